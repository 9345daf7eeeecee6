// Package caps resolves per viewer capabilities against a post and the
// owning org's policy. Resolution is pure: no lookups, no errors, and
// malformed input degrades to the base rule for the account type
package caps

// AccountType is the viewer's account class
type AccountType string

// Account types
const (
	AccountPersonal   AccountType = "PERSONAL"
	AccountBusiness   AccountType = "BUSINESS"
	AccountEnterprise AccountType = "ENTERPRISE"
)

// Visibility controls who may see an org's posts
type Visibility string

// Visibility values
const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityOrgOnly Visibility = "ORG_ONLY"
)

// Viewer is the resolved identity capabilities are computed for
type Viewer struct {
	ID          string
	AccountType AccountType
	OrgID       string // empty when the viewer has no org affiliation
}

// OrgPolicy is a tenant's restrictions on personal-account viewers
type OrgPolicy struct {
	OrgID                     string
	ProductVisibility         Visibility
	AllowPersonalComments     bool
	AllowPersonalTransactions bool
}

// Caps is the resolved permission set for one viewer-post pair
type Caps struct {
	CanView     bool `json:"canView"`
	CanComment  bool `json:"canComment"`
	CanTransact bool `json:"canTransact"`
}

// Subject is the slice of a post capability resolution looks at
type Subject struct {
	OwnerOrgID string // empty for posts not owned by an org
	Visibility Visibility
}

// Base returns the capability set implied by the account type alone.
// PERSONAL accounts are buyers; BUSINESS and ENTERPRISE act as catalog
// owners and do not transact against other sellers' listings
func Base(acct AccountType) Caps {
	if acct == AccountPersonal {
		return Caps{CanView: true, CanComment: true, CanTransact: true}
	}
	return Caps{CanView: true, CanComment: true, CanTransact: false}
}

// Resolve computes the capability set for viewer against subject under the
// owning org's policy. A nil policy means no additional restriction: missing
// policy records fail open here, and callers that want fail-closed synthesize
// a deny-all policy before calling.
//
// Post-level ORG_ONLY visibility binds every viewer outside the owning org.
// Policy overrides beyond that only ever target PERSONAL viewers; BUSINESS
// and ENTERPRISE viewers keep their base capabilities, and a viewer inside
// the owning org is never restricted by that org's own policy
func Resolve(viewer Viewer, subject Subject, policy *OrgPolicy) Caps {
	out := Base(viewer.AccountType)

	sameOrg := subject.OwnerOrgID != "" && viewer.OrgID == subject.OwnerOrgID
	if subject.Visibility == VisibilityOrgOnly && !sameOrg {
		out.CanView = false
	}

	if viewer.AccountType != AccountPersonal || sameOrg || subject.OwnerOrgID == "" || policy == nil {
		return out
	}
	if policy.ProductVisibility == VisibilityOrgOnly {
		out.CanView = false
	}
	if !policy.AllowPersonalComments {
		out.CanComment = false
	}
	if !policy.AllowPersonalTransactions {
		out.CanTransact = false
	}
	return out
}

// DenyAll is the policy synthesized for fail-closed mode when an org's
// policy record cannot be found
func DenyAll(orgID string) *OrgPolicy {
	return &OrgPolicy{
		OrgID:                     orgID,
		ProductVisibility:         VisibilityOrgOnly,
		AllowPersonalComments:     false,
		AllowPersonalTransactions: false,
	}
}
