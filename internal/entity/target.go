package entity

import (
	"fmt"
	"strings"

	"anoa.com/karmafeed/pkg/apperror"
	"github.com/google/uuid"
)

// TargetKind names the kind of content a like or karma event points at.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

func (k TargetKind) Valid() bool {
	switch k {
	case TargetPost, TargetComment:
		return true
	}
	return false
}

// ParseTargetKind accepts "post" or "comment" in any case.
func ParseTargetKind(s string) (TargetKind, error) {
	kind := TargetKind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", apperror.ErrInvalidTargetKind, s)
	}
	return kind, nil
}

// Target is a likeable piece of content: either Post(id) or Comment(id).
// Build it with PostTarget or CommentTarget.
type Target struct {
	Kind TargetKind `json:"target_type"`
	ID   uuid.UUID  `json:"target_id"`
}

func PostTarget(id uuid.UUID) Target {
	return Target{Kind: TargetPost, ID: id}
}

func CommentTarget(id uuid.UUID) Target {
	return Target{Kind: TargetComment, ID: id}
}

func (t Target) Validate() error {
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidTargetKind, string(t.Kind))
	}
	return nil
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.ID)
}
