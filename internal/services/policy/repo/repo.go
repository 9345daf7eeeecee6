// Package repo provides the org policy repository on Postgres
package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"marketfeed/internal/core/caps"
	"marketfeed/internal/modkit/repokit"
	"marketfeed/internal/services/policy/domain"
)

// PG reads org policies
type PG struct{ q repokit.Queryer }

// NewPG constructs the policy repository
func NewPG(q repokit.Queryer) *PG { return &PG{q: q} }

var _ domain.StorePort = (*PG)(nil)

// OrgPolicy implements domain.StorePort
func (r *PG) OrgPolicy(ctx context.Context, orgID string) (caps.OrgPolicy, bool, error) {
	row := r.q.QueryRow(ctx, `
		SELECT product_visibility::text, allow_personal_comments, allow_personal_transactions
		FROM org_policies
		WHERE org_id = $1`,
		orgID,
	)
	var vis string
	pol := caps.OrgPolicy{OrgID: orgID}
	if err := row.Scan(&vis, &pol.AllowPersonalComments, &pol.AllowPersonalTransactions); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return caps.OrgPolicy{}, false, nil
		}
		return caps.OrgPolicy{}, false, err
	}
	pol.ProductVisibility = caps.Visibility(vis)
	return pol, true, nil
}
