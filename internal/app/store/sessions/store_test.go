package sessions_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/store/sessions"
	"github.com/dalemusser/raciconsole/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newStore(t *testing.T) *sessions.Store {
	t.Helper()
	return sessions.New(testutil.SetupTestDB(t), testutil.Sealer(t, "token"))
}

func open() sessions.Open {
	return sessions.Open{
		UserID: "u1", Email: "asha@acme.test", Role: "company_admin", CompanyID: "c1",
		Token: "bearer-abc", IP: "192.168.1.1", UserAgent: "Mozilla/5.0",
	}
}

func TestStore_Create(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess, err := store.Create(ctx, open())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sess.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if sess.SealedToken == "" || sess.SealedToken == "bearer-abc" {
		t.Errorf("token not sealed: %q", sess.SealedToken)
	}
	if sess.LoginAt.IsZero() || sess.LastActiveAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if sess.LogoutAt != nil {
		t.Error("expected LogoutAt to be nil for new session")
	}

	tok, err := store.Token(sess)
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok != "bearer-abc" {
		t.Errorf("Token: got %q", tok)
	}
}

func TestStore_GetActive(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, open())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	found, err := store.GetActive(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if found.Email != "asha@acme.test" || found.CompanyID != "c1" {
		t.Errorf("unexpected session: %+v", found)
	}
	if !found.LastActiveAt.After(created.LastActiveAt) {
		t.Error("GetActive should touch last_active_at")
	}
}

func TestStore_GetActive_NotFound(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetActive(ctx, primitive.NewObjectID()); !errors.Is(err, sessions.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Close(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess, err := store.Create(ctx, open())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Close(ctx, sess.ID, sessions.EndLogout); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	closed, err := store.GetByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if closed.LogoutAt == nil {
		t.Error("expected LogoutAt to be set")
	}
	if closed.EndReason != sessions.EndLogout {
		t.Errorf("EndReason: got %q, want %q", closed.EndReason, sessions.EndLogout)
	}
	if _, err := store.GetActive(ctx, sess.ID); !errors.Is(err, sessions.ErrNotFound) {
		t.Errorf("closed session should not be active, got %v", err)
	}

	// Second close keeps the first reason.
	if err := store.Close(ctx, sess.ID, sessions.EndInactive); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	again, _ := store.GetByID(ctx, sess.ID)
	if again.EndReason != sessions.EndLogout {
		t.Errorf("EndReason changed to %q", again.EndReason)
	}
}

func TestStore_Close_NotFound(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Close(ctx, primitive.NewObjectID(), sessions.EndLogout); !errors.Is(err, sessions.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_CloseInactive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sessions.New(db, testutil.Sealer(t, "token"))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	stale, err := store.Create(ctx, open())
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := store.Create(ctx, open())
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.Collection("console_sessions").UpdateOne(ctx,
		bson.M{"_id": stale.ID},
		bson.M{"$set": bson.M{"last_active_at": time.Now().UTC().Add(-time.Hour)}})
	if err != nil {
		t.Fatal(err)
	}

	ids, err := store.CloseInactive(ctx, 30*time.Minute)
	if err != nil {
		t.Fatalf("CloseInactive failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != stale.ID {
		t.Fatalf("closed %v, want [%v]", ids, stale.ID)
	}
	if _, err := store.GetActive(ctx, fresh.ID); err != nil {
		t.Errorf("fresh session should stay open: %v", err)
	}
	n, err := store.CountActive(ctx)
	if err != nil || n != 1 {
		t.Errorf("CountActive: %d %v", n, err)
	}
}
