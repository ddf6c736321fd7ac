package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/sandevgo/elvamem/internal/config"
)

const (
	messagesCollection = "messages"
	factsCollection    = "facts"
	sessionsCollection = "sessions"
)

// Store owns the client handle shared by every repository. One Store per
// process; close it on shutdown.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	cfg    *config.MongoConfig
}

func NewStore(ctx context.Context, cfg *config.MongoConfig) (*Store, error) {
	opts := options.Client().
		ApplyURI(cfg.URL).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetRetryWrites(true)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	s := &Store{
		client: client,
		db:     client.Database(cfg.DBName),
		cfg:    cfg,
	}

	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	return s, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// EnsureIndexes creates the index set on startup. Runs in place of a
// migration step: the collections are schemaless, only the indexes matter.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	messages := s.db.Collection(messagesCollection)
	_, err := messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "dedup_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("message_dedup_index"),
		},
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "timestamp", Value: 1}},
			Options: options.Index().SetName("session_timestamp_index"),
		},
		{
			Keys: bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(int32(s.cfg.MessageTTLDays) * 24 * 3600).
				SetName("message_ttl_index"),
		},
	})
	if err != nil {
		return fmt.Errorf("messages indexes: %w", err)
	}

	facts := s.db.Collection(factsCollection)
	_, err = facts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "fact_key", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "active", Value: true}}).
				SetName("owner_fact_key_active_index"),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "active", Value: 1}},
			Options: options.Index().SetName("owner_active_index"),
		},
	})
	if err != nil {
		return fmt.Errorf("facts indexes: %w", err)
	}

	sessions := s.db.Collection(sessionsCollection)
	_, err = sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("session_id_index"),
	})
	if err != nil {
		return fmt.Errorf("sessions indexes: %w", err)
	}

	return nil
}
