package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smartcity/access-platform/internal/core/domain"
	"github.com/smartcity/access-platform/internal/core/ports"
)

const collectionAuditLogs = "audit_logs"

// AuditRepository implements ports.AuditRepository using MongoDB. Entries
// are inserted only.
type AuditRepository struct {
	col *mongo.Collection
	ids sequence
}

var _ ports.AuditRepository = (*AuditRepository)(nil)

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAuditLogs), ids: newSequence(db, collectionAuditLogs)}
}

type auditDoc struct {
	ID        int64     `bson:"_id"`
	UserID    int64     `bson:"user_id"`
	Action    string    `bson:"action"`
	Details   string    `bson:"details"`
	IPAddress string    `bson:"ip_address"`
	Timestamp time.Time `bson:"timestamp"`
}

func (r *AuditRepository) Insert(ctx context.Context, e *domain.AuditEntry) error {
	id, err := r.ids.next(ctx)
	if err != nil {
		return err
	}
	doc := auditDoc{
		ID:        id,
		UserID:    e.UserID,
		Action:    e.Action,
		Details:   e.Details,
		IPAddress: e.IPAddress,
		Timestamp: e.Timestamp.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	e.ID = id
	return nil
}

// ListRecent returns up to limit entries, newest first.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer cur.Close(ctx)

	var docs []auditDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit entries: %w", err)
	}
	entries := make([]*domain.AuditEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, &domain.AuditEntry{
			ID:        d.ID,
			UserID:    d.UserID,
			Action:    d.Action,
			Details:   d.Details,
			IPAddress: d.IPAddress,
			Timestamp: d.Timestamp.UTC(),
		})
	}
	return entries, nil
}

// EnsureIndexes creates the timestamp index used by ListRecent.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})
	return err
}
