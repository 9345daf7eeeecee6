package repo

import (
	"context"
	"testing"
	"time"
)

func TestRecentVelocityWithoutClickhouse(t *testing.T) {
	v := NewVelocity(nil, 15*time.Minute)

	out, err := v.RecentVelocity(context.Background(), []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("RecentVelocity: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("velocities = %v, want all zero when the source is disabled", out)
	}
}
