// internal/app/store/sessions/store.go
package sessions

// Terminology: User Identifiers
//   - SessionID / sessionID / session_id: the console session's ObjectID, the only value in the cookie
//   - UserID / userID / user_id: the backend's id for the signed-in user (opaque string)

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/system/sealing"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// End reasons
const (
	EndLogout          = "logout"
	EndInactive        = "inactive"
	EndUnauthenticated = "unauthenticated" // backend rejected the stored token
)

// closedRetention is how long closed sessions are kept for the activity record.
const closedRetention = 30 * 24 * time.Hour

// ErrNotFound is returned for missing or closed sessions.
var ErrNotFound = errors.New("console session not found")

// Session is a signed-in console session. The backend bearer token is only
// stored sealed.
type Session struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Email     string             `bson:"email"`
	Role      string             `bson:"role"`
	CompanyID string             `bson:"company_id,omitempty"`

	SealedToken string `bson:"sealed_token"`

	// Timing
	LoginAt      time.Time  `bson:"login_at"`
	LogoutAt     *time.Time `bson:"logout_at,omitempty"`
	LastActiveAt time.Time  `bson:"last_active_at"`

	// How did session end?
	EndReason string `bson:"end_reason,omitempty"`

	// Context
	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	// Computed on session close
	DurationSecs int64 `bson:"duration_secs,omitempty"`
}

// Open is what Create needs to start a session.
type Open struct {
	UserID    string
	Email     string
	Role      string
	CompanyID string
	Token     string
	IP        string
	UserAgent string
}

// Store manages console sessions.
type Store struct {
	c      *mongo.Collection
	sealer *sealing.Sealer
}

// New creates a sessions Store. Tokens are sealed with sealer.
func New(db *mongo.Database, sealer *sealing.Sealer) *Store {
	return &Store{c: db.Collection("console_sessions"), sealer: sealer}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Active sessions query (for the inactivity sweep)
		{
			Keys:    bson.D{{Key: "logout_at", Value: 1}, {Key: "last_active_at", Value: -1}},
			Options: options.Index().SetName("idx_sessions_active"),
		},
		// User session history
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "login_at", Value: -1}},
			Options: options.Index().SetName("idx_sessions_user"),
		},
		// Closed sessions expire; open ones have no logout_at and are kept
		{
			Keys:    bson.D{{Key: "logout_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(closedRetention.Seconds())).SetName("idx_sessions_ttl"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create starts a session holding the sealed token.
func (s *Store) Create(ctx context.Context, in Open) (Session, error) {
	sealed, err := s.sealer.SealString(in.Token)
	if err != nil {
		return Session{}, err
	}
	now := time.Now().UTC()
	sess := Session{
		ID:           primitive.NewObjectID(),
		UserID:       in.UserID,
		Email:        in.Email,
		Role:         in.Role,
		CompanyID:    in.CompanyID,
		SealedToken:  sealed,
		LoginAt:      now,
		LastActiveAt: now,
		IP:           in.IP,
		UserAgent:    in.UserAgent,
	}
	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Token opens the session's bearer token.
func (s *Store) Token(sess Session) (string, error) {
	return s.sealer.OpenString(sess.SealedToken)
}

// GetByID retrieves a session by its ID, open or closed.
func (s *Store) GetByID(ctx context.Context, sessionID primitive.ObjectID) (Session, error) {
	var sess Session
	err := s.c.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Session{}, ErrNotFound
	}
	return sess, err
}

// GetActive retrieves an open session and marks it active.
func (s *Store) GetActive(ctx context.Context, sessionID primitive.ObjectID) (Session, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var sess Session
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": sessionID, "logout_at": nil},
		bson.M{"$set": bson.M{"last_active_at": time.Now().UTC()}},
		opts,
	).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Session{}, ErrNotFound
	}
	return sess, err
}

// Close ends a session with the given reason and calculates duration.
// Closing an already closed session is a no-op.
func (s *Store) Close(ctx context.Context, sessionID primitive.ObjectID, reason string) error {
	now := time.Now().UTC()

	sess, err := s.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.LogoutAt != nil {
		return nil
	}

	_, err = s.c.UpdateOne(ctx, bson.M{"_id": sessionID, "logout_at": nil}, bson.M{
		"$set": bson.M{
			"logout_at":     now,
			"end_reason":    reason,
			"duration_secs": int64(now.Sub(sess.LoginAt).Seconds()),
		},
	})
	return err
}

// CloseInactive closes sessions without activity within threshold and
// returns their ids so their views can be torn down.
func (s *Store) CloseInactive(ctx context.Context, inactiveThreshold time.Duration) ([]primitive.ObjectID, error) {
	cutoff := time.Now().UTC().Add(-inactiveThreshold)
	filter := bson.M{
		"logout_at":      nil,
		"last_active_at": bson.M{"$lt": cutoff},
	}

	cur, err := s.c.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]primitive.ObjectID, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	now := time.Now().UTC()
	_, err = s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "logout_at": nil},
		bson.M{"$set": bson.M{"logout_at": now, "end_reason": EndInactive}},
	)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CountActive counts open sessions.
func (s *Store) CountActive(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"logout_at": nil})
}
