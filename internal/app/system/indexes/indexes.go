// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/store/audit"
	"github.com/dalemusser/raciconsole/internal/app/store/handoff"
	"github.com/dalemusser/raciconsole/internal/app/store/sessions"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type ensurer interface {
	EnsureIndexes(ctx context.Context) error
}

/*
EnsureAll is called at startup. Each store's EnsureIndexes is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// Index creation never touches sealed values, so no sealer is needed.
	stores := []struct {
		name string
		s    ensurer
	}{
		{"console_sessions", sessions.New(db, nil)},
		{"handoffs", handoff.New(db, nil)},
		{"audit_events", audit.New(db)},
	}

	for _, st := range stores {
		start := time.Now()
		if err := st.s.EnsureIndexes(ctx); err != nil {
			problems = append(problems, st.name+": "+err.Error())
			continue
		}
		zap.L().Info("indexes ensured",
			zap.String("collection", st.name),
			zap.Duration("took", time.Since(start)))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
