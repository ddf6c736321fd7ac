package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sandevgo/elvamem/internal/core"
	"github.com/sandevgo/elvamem/pkg/log"
)

type MessagesRepo struct {
	coll *mongo.Collection
}

func NewMessagesRepo(s *Store) *MessagesRepo {
	return &MessagesRepo{coll: s.db.Collection(messagesCollection)}
}

func (r *MessagesRepo) Insert(ctx context.Context, msg *core.Message) error {
	_, err := r.coll.InsertOne(ctx, msg)
	if err != nil {
		// A concurrent retry may have landed first; the unique index on
		// dedup_key makes that a success, not a failure.
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *MessagesRepo) FindByDedupKey(ctx context.Context, key string) (*core.Message, error) {
	var msg core.Message
	err := r.coll.FindOne(ctx, bson.D{{Key: "dedup_key", Value: key}}).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find message by dedup key: %w", err)
	}
	return &msg, nil
}

func (r *MessagesRepo) Recent(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	// Fetch the LAST 'limit' messages by sorting DESC, then flip
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.D{{Key: "session_id", Value: sessionID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	var messages []core.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	// Newest -> Oldest back to chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	log.FromCtx(ctx).Debug().Int("count", len(messages)).Msg("loaded history messages")
	return messages, nil
}

func (r *MessagesRepo) Search(ctx context.Context, sessionID, query string, limit int) ([]core.Message, error) {
	filter := bson.D{
		{Key: "session_id", Value: sessionID},
		{Key: "content", Value: bson.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}

	var messages []core.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}
	return messages, nil
}

func (r *MessagesRepo) Stats(ctx context.Context, sessionID string) (*core.SessionStats, error) {
	filter := bson.D{{Key: "session_id", Value: sessionID}}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	user, err := r.coll.CountDocuments(ctx, bson.D{
		{Key: "session_id", Value: sessionID},
		{Key: "role", Value: core.RoleUser},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count user messages: %w", err)
	}

	assistant, err := r.coll.CountDocuments(ctx, bson.D{
		{Key: "session_id", Value: sessionID},
		{Key: "role", Value: core.RoleAssistant},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count assistant messages: %w", err)
	}

	stats := &core.SessionStats{
		SessionID:         sessionID,
		TotalMessages:     total,
		UserMessages:      user,
		AssistantMessages: assistant,
	}

	if total > 0 {
		var first, last core.Message
		err = r.coll.FindOne(ctx, filter,
			options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: 1}})).Decode(&first)
		if err != nil {
			return nil, fmt.Errorf("failed to find first message: %w", err)
		}
		err = r.coll.FindOne(ctx, filter,
			options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})).Decode(&last)
		if err != nil {
			return nil, fmt.Errorf("failed to find last message: %w", err)
		}
		stats.FirstMessage = &first.Timestamp
		stats.LastMessage = &last.Timestamp
	}

	return stats, nil
}

func (r *MessagesRepo) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{{Key: "session_id", Value: sessionID}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete session messages: %w", err)
	}
	return res.DeletedCount, nil
}
