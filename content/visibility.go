package content

import (
	"sort"

	"gazette/domain"
)

// Viewer identifies the requester a visibility decision is made for. A
// zero Viewer is anonymous.
type Viewer struct {
	UserID string
	Role   domain.Role
}

// Anonymous is the viewer of a request with no resolved identity.
var Anonymous = Viewer{Role: domain.RoleAnonymous}

// Authenticated reports whether the viewer carries a resolved identity.
func (v Viewer) Authenticated() bool {
	return v.UserID != ""
}

// Visible decides whether a single post may appear in a listing for the
// viewer.
//
// Private posts are visible to their author only, regardless of status or
// the viewer's role. Public posts are visible to everyone once published,
// and to any authenticated role while still drafts. Ranked tiers are
// visible, draft or published, to any role that clears them: draft content
// at or above a viewer's clearance serves as an internal review surface.
func Visible(post domain.Post, viewer Viewer) bool {
	tier := post.EffectiveVisibility()

	if tier == domain.VisibilityPrivate {
		return viewer.Authenticated() && viewer.UserID == post.AuthorID
	}

	if tier == domain.VisibilityPublic && post.Published() {
		return true
	}

	if !viewer.Authenticated() {
		return false
	}
	return viewer.Role.Satisfies(tier)
}

// Ordering selects how a listing is sorted.
type Ordering int

const (
	// OrderByCreation sorts by creation time, oldest first. This is the
	// default listing order.
	OrderByCreation Ordering = iota
	// OrderByTier groups posts by visibility tier, most restricted first,
	// with Private last, keeping creation order within a tier.
	OrderByTier
)

// ListVisible filters posts through Visible and returns the survivors in
// the requested order. The result is stable and reproducible for identical
// inputs; ties break on creation time, then id. An empty result is valid.
func ListVisible(posts []domain.Post, viewer Viewer, ordering Ordering) []domain.Post {
	visible := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if Visible(p, viewer) {
			visible = append(visible, p)
		}
	}
	SortPosts(visible, ordering)
	return visible
}

// SortPosts orders posts in place per the given ordering.
func SortPosts(posts []domain.Post, ordering Ordering) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if ordering == OrderByTier {
			ra := tierSortRank(a.EffectiveVisibility())
			rb := tierSortRank(b.EffectiveVisibility())
			if ra != rb {
				return ra < rb
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// Private has no hierarchy rank; for display purposes it sorts after every
// ranked tier.
func tierSortRank(tier domain.Visibility) int {
	if rank, ok := tier.Rank(); ok {
		return rank
	}
	return 6
}
