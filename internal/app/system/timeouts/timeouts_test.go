package timeouts

import (
	"context"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	Reset()
	if Backend() != 15*time.Second {
		t.Errorf("Backend: got %v, want 15s", Backend())
	}
	if Short() != DefaultShort || Ping() != DefaultPing {
		t.Errorf("unexpected defaults: short %v ping %v", Short(), Ping())
	}
}

func TestConfigure_IgnoresZero(t *testing.T) {
	defer Reset()
	Configure(Config{Backend: 3 * time.Second})
	if Backend() != 3*time.Second {
		t.Errorf("Backend: got %v", Backend())
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium changed to %v", Medium())
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, nil, "test")
	<-ctx.Done()
	cancel()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("expected deadline exceeded, got %v", ctx.Err())
	}
}
