package indexes_test

import (
	"testing"

	"github.com/dalemusser/raciconsole/internal/app/system/indexes"
	"github.com/dalemusser/raciconsole/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// First call
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}

	// Second call should also succeed (idempotent)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	want := map[string]string{
		"console_sessions": "idx_sessions_ttl",
		"handoffs":         "idx_handoff_ttl",
	}
	for coll, name := range want {
		cur, err := db.Collection(coll).Indexes().List(ctx)
		if err != nil {
			t.Fatalf("List indexes on %s failed: %v", coll, err)
		}
		found := false
		for cur.Next(ctx) {
			var idx bson.M
			if err := cur.Decode(&idx); err != nil {
				t.Fatalf("decode index: %v", err)
			}
			if idx["name"] == name {
				found = true
			}
		}
		cur.Close(ctx)
		if !found {
			t.Errorf("expected index %s on %s", name, coll)
		}
	}
}
