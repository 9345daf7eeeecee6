package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Notifier delivers payloads published on a postgres NOTIFY channel.
// The PG seam implements it; callers assert like Guard does with Pinger
type Notifier interface {
	// Listen blocks on a dedicated connection, invoking fn per payload,
	// until ctx is canceled or the connection fails
	Listen(ctx context.Context, channel string, fn func(payload string)) error
}

// Listen implements Notifier on the pg adapter
func (a *pgAdapter) Listen(ctx context.Context, channel string, fn func(payload string)) error {
	conn, err := a.p.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		return err
	}
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		fn(n.Payload)
	}
}
