package mongo

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestConnect_RequiresURIAndDatabase(t *testing.T) {
	for _, cfg := range []Config{{Database: "smartcity"}, {URI: "mongodb://localhost:27017"}} {
		if _, _, err := Connect(context.Background(), cfg); err == nil || !strings.Contains(err.Error(), "required") {
			t.Fatalf("expected configuration error for %+v, got %v", cfg, err)
		}
	}
}

func TestConnect_HonoursConnectTimeout(t *testing.T) {
	start := time.Now()
	_, _, err := Connect(context.Background(), Config{
		URI:            "mongodb://127.0.0.1:1/?directConnection=true",
		Database:       "smartcity",
		ConnectTimeout: 300 * time.Millisecond,
	})
	if err == nil {
		t.Fatalf("expected error for unreachable server")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("connect ignored its timeout: took %v", elapsed)
	}
}
