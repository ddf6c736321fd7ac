package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sandevgo/elvamem/internal/core"
)

type FactsRepo struct {
	coll *mongo.Collection
}

func NewFactsRepo(s *Store) *FactsRepo {
	return &FactsRepo{coll: s.db.Collection(factsCollection)}
}

func (r *FactsRepo) Insert(ctx context.Context, fact *core.Fact) error {
	_, err := r.coll.InsertOne(ctx, fact)
	if err != nil {
		// Same fact key arriving twice (late retry) is not a conflict:
		// the active-partial unique index already holds the record.
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to insert fact: %w", err)
	}
	return nil
}

func (r *FactsRepo) UpdateText(ctx context.Context, ownerID, key, text, normalized string, at time.Time) error {
	filter := bson.D{
		{Key: "owner_id", Value: ownerID},
		{Key: "fact_key", Value: key},
		{Key: "active", Value: true},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "text", Value: text},
		{Key: "normalized", Value: normalized},
		{Key: "updated_at", Value: at},
	}}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update fact: %w", err)
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *FactsRepo) Deactivate(ctx context.Context, ownerID, key string, at time.Time) error {
	filter := bson.D{
		{Key: "owner_id", Value: ownerID},
		{Key: "fact_key", Value: key},
		{Key: "active", Value: true},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "active", Value: false},
		{Key: "updated_at", Value: at},
	}}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to deactivate fact: %w", err)
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *FactsRepo) ListActive(ctx context.Context, ownerID, category string) ([]core.Fact, error) {
	filter := bson.D{
		{Key: "owner_id", Value: ownerID},
		{Key: "active", Value: true},
	}
	if category != "" {
		filter = append(filter, bson.E{Key: "category", Value: category})
	}

	// Oldest first, matching insertion order
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}

	var facts []core.Fact
	if err := cursor.All(ctx, &facts); err != nil {
		return nil, fmt.Errorf("failed to decode facts: %w", err)
	}
	return facts, nil
}
