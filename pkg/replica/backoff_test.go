package replica

import (
	"testing"
	"time"
)

func TestBackoffSchedule(t *testing.T) {
	b := Backoff{Floor: 5 * time.Second, Cap: 60 * time.Second}
	want := []time.Duration{
		5 * time.Second,
		10 * time.Second,
		20 * time.Second,
		40 * time.Second,
		60 * time.Second,
		60 * time.Second,
	}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("attempt %d: want %v, got %v", i, w, got)
		}
	}
}

func TestBackoffReset(t *testing.T) {
	b := *DefaultBackoff()
	b.Next()
	b.Next()
	b.Reset()
	if got := b.Next(); got != 5*time.Second {
		t.Errorf("after reset: want 5s, got %v", got)
	}
}
