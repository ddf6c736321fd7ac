package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sandevgo/elvamem/internal/core"
)

type SessionsRepo struct {
	coll *mongo.Collection
}

func NewSessionsRepo(s *Store) *SessionsRepo {
	return &SessionsRepo{coll: s.db.Collection(sessionsCollection)}
}

func (r *SessionsRepo) Touch(ctx context.Context, sessionID string, at time.Time) error {
	filter := bson.D{{Key: "session_id", Value: sessionID}}
	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "last_activity", Value: at}}},
		{Key: "$inc", Value: bson.D{{Key: "message_count", Value: 1}}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "session_id", Value: sessionID},
			{Key: "created_at", Value: at},
		}},
	}

	_, err := r.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (r *SessionsRepo) Get(ctx context.Context, sessionID string) (*core.Session, error) {
	var session core.Session
	err := r.coll.FindOne(ctx, bson.D{{Key: "session_id", Value: sessionID}}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}
