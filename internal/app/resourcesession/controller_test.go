package resourcesession

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/system/backend"
	"github.com/dalemusser/raciconsole/internal/app/system/mutation"
	"github.com/dalemusser/raciconsole/internal/app/system/notify"
	"github.com/dalemusser/raciconsole/internal/app/system/projection"
	"github.com/dalemusser/raciconsole/internal/app/system/sessionctx"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"github.com/dalemusser/raciconsole/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func departments(t *testing.T) models.ResourceType {
	t.Helper()
	rt, ok := models.LookupResourceType(models.ResourceDepartments)
	require.True(t, ok)
	return rt
}

func seedDepartments(f *testutil.FakeBackend) {
	f.Seed(models.ResourceDepartments,
		map[string]any{"_id": "2", "name": "Legal", "companyId": "c1", "createdAt": "2024-01-02T00:00:00Z"},
		map[string]any{"_id": "1", "name": "Finance", "companyId": "c1", "createdAt": "2024-01-01T00:00:00Z"},
		map[string]any{"_id": "9", "name": "Elsewhere", "companyId": "c2", "createdAt": "2024-01-03T00:00:00Z"},
	)
}

func newController(t *testing.T, f *testutil.FakeBackend, mod func(*Config)) *Controller {
	t.Helper()
	client := f.Client(t)
	sess, err := sessionctx.NewResolver(client, nil).Resolve(context.Background(), testutil.Token)
	require.NoError(t, err)
	cfg := Config{Resource: departments(t), Session: sess, Client: client}
	if mod != nil {
		mod(&cfg)
	}
	c := New(context.Background(), cfg)
	t.Cleanup(c.Close)
	return c
}

func ids(rs []models.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestLoad_ScopesToCompanyAndOrders(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	seedDepartments(f)
	c := newController(t, f, nil)

	require.NoError(t, c.Load(context.Background(), backend.ListParams{}))
	assert.Equal(t, "c1", f.LastQuery(models.ResourceDepartments).Get("companyId"))

	v := c.View(projection.Spec{})
	assert.Equal(t, []string{"1", "2"}, ids(v.Rows))
	assert.Equal(t, "Finance", v.Rows[0].Name)
	assert.True(t, v.Loaded)
	assert.True(t, v.CanManage)
	assert.Empty(t, v.Notifications)
	assert.Equal(t, "success_keyed", c.State().Shape)
}

func TestLoad_EveryShapeGivesTheSameRows(t *testing.T) {
	for _, shape := range []string{testutil.ShapeArray, testutil.ShapeKeyed, testutil.ShapeData, testutil.ShapeSuccess, testutil.ShapeNested} {
		t.Run(shape, func(t *testing.T) {
			f := testutil.NewFakeBackend(t)
			seedDepartments(f)
			f.SetShape(shape)
			c := newController(t, f, nil)

			require.NoError(t, c.Load(context.Background(), backend.ListParams{}))
			assert.Equal(t, []string{"1", "2"}, ids(c.View(projection.Spec{}).Rows))
		})
	}
}

func TestLoad_UnrecognizedShapeNotifies(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	seedDepartments(f)
	f.SetShape(testutil.ShapeBogus)
	c := newController(t, f, nil)

	err := c.Load(context.Background(), backend.ListParams{})
	require.Error(t, err)

	v := c.View(projection.Spec{})
	assert.Empty(t, v.Rows)
	assert.NotNil(t, v.Rows)
	require.Len(t, v.Notifications, 1)
	assert.Equal(t, notify.KindError, v.Notifications[0].Kind)
}

func TestLoad_ServerErrorLeavesViewUsable(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	seedDepartments(f)
	c := newController(t, f, nil)
	require.NoError(t, c.Load(context.Background(), backend.ListParams{}))

	f.Fail(http.MethodGet, models.ResourceDepartments, http.StatusInternalServerError)
	err := c.Load(context.Background(), backend.ListParams{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, backend.ErrUnauthenticated))

	v := c.View(projection.Spec{})
	assert.Equal(t, []string{"1", "2"}, ids(v.Rows), "previous rows stay visible")
	require.Len(t, v.Notifications, 1)
	assert.Equal(t, "Internal Server Error", v.Notifications[0].Message)
}

func TestLoad_TimeoutNotifies(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	seedDepartments(f)
	f.SetDelay(2 * time.Second)
	c := newController(t, f, func(cfg *Config) { cfg.Timeout = 50 * time.Millisecond })

	err := c.Load(context.Background(), backend.ListParams{})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	ns := c.Notifications()
	require.Len(t, ns, 1)
	assert.Equal(t, "Loading departments timed out. Please try again.", ns[0].Message)
}

func TestLoad_UnauthenticatedPropagates(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	c := newController(t, f, nil)

	f.Fail(http.MethodGet, models.ResourceDepartments, http.StatusUnauthorized)
	err := c.Load(context.Background(), backend.ListParams{})
	require.ErrorIs(t, err, backend.ErrUnauthenticated)
	assert.True(t, c.State().Unauthenticated)
	assert.Empty(t, c.Notifications())
}

func TestCreate_CommitsAndNotifies(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	seedDepartments(f)
	c := newController(t, f, nil)
	require.NoError(t, c.Load(context.Background(), backend.ListParams{}))

	p, err := c.Create(map[string]any{"name": "  Research "})
	require.NoError(t, err)
	assert.True(t, mutation.IsPlaceholder(p.ID))

	o, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, mutation.StateCommitted, o.State)

	body := f.LastBody(models.ResourceDepartments)
	assert.Equal(t, "Research", body["name"])
	assert.Equal(t, "c1", body["companyId"])

	v := c.View(projection.Spec{Search: "research"})
	require.Len(t, v.Rows, 1)
	assert.False(t, v.Rows[0].Placeholder)
	assert.False(t, mutation.IsPlaceholder(v.Rows[0].ID))
	require.Len(t, v.Notifications, 1)
	assert.Equal(t, "Department created", v.Notifications[0].Message)
}

func TestCreate_WithoutRecordReloads(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	seedDepartments(f)
	f.EchoRecord(false)
	c := newController(t, f, nil)
	require.NoError(t, c.Load(context.Background(), backend.ListParams{}))

	p, err := c.Create(map[string]any{"name": "Research"})
	require.NoError(t, err)
	_, err = p.Wait(context.Background())
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return f.Calls(http.MethodGet, models.ResourceDepartments) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		for _, r := range c.View(projection.Spec{}).Rows {
			if r.Name == "Research" && !mutation.IsPlaceholder(r.ID) {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDelete_FailureRestoresRow(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	seedDepartments(f)
	c := newController(t, f, nil)
	require.NoError(t, c.Load(context.Background(), backend.ListParams{}))

	f.Fail(http.MethodDelete, models.ResourceDepartments, http.StatusInternalServerError)
	p, err := c.Delete("1")
	require.NoError(t, err)
	_, err = p.Wait(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"1", "2"}, ids(c.View(projection.Spec{}).Rows))
	assert.Equal(t, mutation.StateRolledBack, c.MutationState("1"))
}

func TestMutation_ForbiddenForRole(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	f.SetUser(map[string]any{"_id": "u2", "name": "Head", "email": "hod@acme.test", "role": "hod", "companyId": "c1"})
	seedDepartments(f)
	c := newController(t, f, nil)
	require.NoError(t, c.Load(context.Background(), backend.ListParams{}))

	_, err := c.Create(map[string]any{"name": "X"})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.False(t, c.View(projection.Spec{}).CanManage)
	assert.Equal(t, 0, f.Calls(http.MethodPost, models.ResourceDepartments))
}

func TestMutation_ObserverSeesOutcome(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	seedDepartments(f)
	got := make(chan mutation.Outcome, 1)
	c := newController(t, f, func(cfg *Config) {
		cfg.Observer = mutation.ObserverFunc(func(_ context.Context, o mutation.Outcome) { got <- o })
	})
	require.NoError(t, c.Load(context.Background(), backend.ListParams{}))

	p, err := c.Update("2", map[string]any{"name": "Legal Affairs"})
	require.NoError(t, err)
	_, err = p.Wait(context.Background())
	require.NoError(t, err)

	select {
	case o := <-got:
		assert.Equal(t, mutation.KindUpdate, o.Kind)
		assert.Equal(t, "2", o.TargetID)
		assert.Equal(t, models.ResourceDepartments, o.Resource)
	case <-time.After(2 * time.Second):
		t.Fatal("observer not called")
	}
}

func TestView_MemoizedRows(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	seedDepartments(f)
	c := newController(t, f, nil)
	require.NoError(t, c.Load(context.Background(), backend.ListParams{}))

	spec := projection.Spec{Search: "fin"}
	a := c.View(spec).Rows
	b := c.View(spec).Rows
	require.Len(t, a, 1)
	assert.Same(t, &a[0], &b[0])
}

func TestDismiss(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	c := newController(t, f, nil)
	f.Fail(http.MethodGet, models.ResourceDepartments, http.StatusBadGateway)
	_ = c.Load(context.Background(), backend.ListParams{})

	ns := c.Notifications()
	require.Len(t, ns, 1)
	assert.True(t, c.Dismiss(ns[0].ID))
	assert.False(t, c.Dismiss(ns[0].ID))
	assert.Empty(t, c.Notifications())
}

func TestClose_DiscardsLateResults(t *testing.T) {
	f := testutil.NewFakeBackend(t)
	seedDepartments(f)
	f.SetDelay(300 * time.Millisecond)
	c := newController(t, f, nil)

	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background(), backend.ListParams{}) }()
	time.Sleep(50 * time.Millisecond)
	c.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("load did not return after Close")
	}
	assert.Empty(t, c.View(projection.Spec{}).Rows)
	assert.Empty(t, c.Notifications())
	assert.True(t, c.State().Closed)
	assert.ErrorIs(t, c.Load(context.Background(), backend.ListParams{}), ErrClosed)
	_, err := c.Create(map[string]any{"name": "late"})
	assert.ErrorIs(t, err, ErrClosed)
}
