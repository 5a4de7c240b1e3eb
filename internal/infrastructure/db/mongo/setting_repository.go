package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smartcity/access-platform/internal/core/domain"
	"github.com/smartcity/access-platform/internal/core/ports"
)

const collectionSettings = "system_settings"

// SettingRepository implements ports.SettingRepository using MongoDB.
type SettingRepository struct {
	col *mongo.Collection
	ids sequence
}

var _ ports.SettingRepository = (*SettingRepository)(nil)

func NewSettingRepository(db *mongo.Database) *SettingRepository {
	return &SettingRepository{col: db.Collection(collectionSettings), ids: newSequence(db, collectionSettings)}
}

type settingDoc struct {
	ID          int64     `bson:"_id"`
	Key         string    `bson:"key"`
	Value       string    `bson:"value"`
	Description string    `bson:"description"`
	UpdatedBy   int64     `bson:"updated_by"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d settingDoc) toDomain() *domain.SystemSetting {
	return &domain.SystemSetting{
		ID:          d.ID,
		Key:         d.Key,
		Value:       d.Value,
		Description: d.Description,
		UpdatedBy:   d.UpdatedBy,
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// Upsert replaces the value of an existing key or creates it. The id is
// drawn only when the key is new.
func (r *SettingRepository) Upsert(ctx context.Context, s *domain.SystemSetting) (*domain.SystemSetting, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"value":       s.Value,
		"description": s.Description,
		"updated_by":  s.UpdatedBy,
		"updated_at":  s.UpdatedAt.UTC(),
	}

	var doc settingDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"key": s.Key},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update setting: %w", err)
	}

	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, err
	}
	doc = settingDoc{
		ID:          id,
		Key:         s.Key,
		Value:       s.Value,
		Description: s.Description,
		UpdatedBy:   s.UpdatedBy,
		UpdatedAt:   s.UpdatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost a race with a concurrent insert of the same key.
			return r.Upsert(ctx, s)
		}
		return nil, fmt.Errorf("insert setting: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns every setting ordered by key.
func (r *SettingRepository) List(ctx context.Context) ([]*domain.SystemSetting, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "key", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer cur.Close(ctx)

	var docs []settingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	settings := make([]*domain.SystemSetting, 0, len(docs))
	for _, d := range docs {
		settings = append(settings, d.toDomain())
	}
	return settings, nil
}

// EnsureIndexes creates the unique index on the setting key.
func (r *SettingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
