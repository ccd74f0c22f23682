package domain

import (
	"time"
)

// Status is a Post's publication state.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusPublished Status = "Published"
)

type Post struct {
	ID          string
	Title       string
	Slug        string
	Body        string
	Status      Status
	Visibility  Visibility
	AuthorID    string
	PublishedOn time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EffectiveVisibility treats an unset visibility as Public.
func (p Post) EffectiveVisibility() Visibility {
	if p.Visibility == "" {
		return VisibilityPublic
	}
	return p.Visibility
}

// Published reports whether the post is in the Published state.
func (p Post) Published() bool {
	return p.Status == StatusPublished
}
