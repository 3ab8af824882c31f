// internal/app/store/handoff/store.go
package handoff

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/system/sealing"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Kinds of values handed from one auth step to the next.
const (
	KindRegistrationEmail = "registration_email" // shown on the post-registration page
	KindResetEmail        = "reset_email"        // forgot-password -> verify-otp
	KindResetToken        = "reset_token"        // verify-otp -> reset-password
)

// Handoff is one value waiting to be picked up by a later request. The
// browser only ever holds the handle.
type Handoff struct {
	Handle    string    `bson:"handle"`
	Kind      string    `bson:"kind"`
	Sealed    string    `bson:"sealed"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store manages handoff values in MongoDB.
type Store struct {
	c      *mongo.Collection
	sealer *sealing.Sealer
}

// New creates a handoff Store. Values are sealed with sealer at rest.
func New(db *mongo.Database, sealer *sealing.Sealer) *Store {
	return &Store{c: db.Collection("handoffs"), sealer: sealer}
}

// EnsureIndexes creates indexes for lookup and TTL expiration.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "handle", Value: 1}, {Key: "kind", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_handoff_handle"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_handoff_ttl"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Save stores value under a new handle that expires after ttl.
func (s *Store) Save(ctx context.Context, kind, value string, ttl time.Duration) (string, error) {
	sealed, err := s.sealer.SealString(value)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	h := Handoff{
		Handle:    uuid.NewString(),
		Kind:      kind,
		Sealed:    sealed,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, h); err != nil {
		return "", err
	}
	return h.Handle, nil
}

// Peek returns a live value without consuming it.
func (s *Store) Peek(ctx context.Context, handle, kind string) (string, bool, error) {
	var h Handoff
	err := s.c.FindOne(ctx, live(handle, kind)).Decode(&h)
	return s.open(h, err)
}

// Take returns a live value and deletes it (one-time use).
func (s *Store) Take(ctx context.Context, handle, kind string) (string, bool, error) {
	var h Handoff
	err := s.c.FindOneAndDelete(ctx, live(handle, kind)).Decode(&h)
	return s.open(h, err)
}

func (s *Store) open(h Handoff, err error) (string, bool, error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	v, err := s.sealer.OpenString(h.Sealed)
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func live(handle, kind string) bson.M {
	return bson.M{
		"handle":     handle,
		"kind":       kind,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}
}

// CleanupExpired removes expired handoffs.
// This is a backup for when TTL index cleanup is delayed.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.c.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lt": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
