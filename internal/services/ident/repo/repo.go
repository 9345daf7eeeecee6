// Package repo provides the viewer token repository on Postgres
package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"marketfeed/internal/core/caps"
	"marketfeed/internal/modkit/repokit"
	perr "marketfeed/internal/platform/errors"
)

// PG looks viewers up by token hash
type PG struct{ q repokit.Queryer }

// NewPG constructs the token repository
func NewPG(q repokit.Queryer) *PG { return &PG{q: q} }

// ViewerByTokenHash returns the viewer a live token resolves to
func (r *PG) ViewerByTokenHash(ctx context.Context, hash string) (caps.Viewer, error) {
	row := r.q.QueryRow(ctx, `
		SELECT v.id::text, v.account_type::text, COALESCE(v.org_id::text, '')
		FROM viewer_tokens t
		JOIN viewers v ON v.id = t.viewer_id
		WHERE t.token_hash = $1 AND t.revoked_at IS NULL AND t.expires_at > now()`,
		hash,
	)
	var v caps.Viewer
	var acct string
	if err := row.Scan(&v.ID, &acct, &v.OrgID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return caps.Viewer{}, perr.Unauthorizedf("unknown or expired token")
		}
		return caps.Viewer{}, err
	}
	v.AccountType = caps.AccountType(acct)
	return v, nil
}
