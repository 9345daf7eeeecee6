// Package domain defines the interaction recording types and ports
package domain

import "time"

// Interaction kinds the velocity reader aggregates
const (
	KindView  = "view"
	KindClick = "click"
	KindCart  = "cart"
)

// Interaction is one engagement signal against a post
type Interaction struct {
	PostID     string    `json:"postId"`
	ViewerID   string    `json:"viewerId,omitempty"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ValidKind reports whether k is a known interaction kind
func ValidKind(k string) bool {
	return k == KindView || k == KindClick || k == KindCart
}

// RecorderPort accepts interactions for asynchronous persistence
type RecorderPort interface {
	Record(i Interaction) error
}
