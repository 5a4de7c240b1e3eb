package redis

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestConnect_UnreachableFailsWithinTimeout(t *testing.T) {
	start := time.Now()
	_, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 300 * time.Millisecond})
	if err == nil || !strings.Contains(err.Error(), "127.0.0.1:1") {
		t.Fatalf("expected ping error naming the address, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("connect ignored its timeout: took %v", elapsed)
	}
}
