package content

import (
	"time"

	"github.com/google/uuid"

	"gazette/domain"
	"gazette/errs"
)

var (
	// ErrUnauthenticated rejects a create attempt with no resolved identity.
	ErrUnauthenticated = errs.New(errs.CodeUnauthenticated, "authentication required")
	// ErrUnknownUser rejects an identity that resolves to no User record.
	ErrUnknownUser = errs.New(errs.CodeForbidden, "unknown user")
	// ErrCreateNotAllowed rejects post creation by Subscribers; authoring
	// starts at Contributor.
	ErrCreateNotAllowed = errs.New(errs.CodeForbidden, "You are not allowed to create posts")
)

// CreateInput is the already-validated create payload handed in by the
// transport layer. Status defaults to Draft and Visibility to Public.
type CreateInput struct {
	Title      string
	Body       string
	Slug       string
	Status     domain.Status
	Visibility domain.Visibility
}

// AuthorizeCreate runs the create path: requester checks, publication
// policy, slug resolution, and the PublishedOn stamp. It returns the fully
// formed Post for the caller to persist; it never persists anything itself.
//
// user is the requester's User record, nil when the identity resolved to no
// known user. now supplies the creation timestamp, injectable for tests.
func AuthorizeCreate(viewer Viewer, user *domain.User, input CreateInput, exists ExistsFunc, now func() time.Time) (domain.Post, error) {
	if !viewer.Authenticated() {
		return domain.Post{}, ErrUnauthenticated
	}
	if user == nil {
		return domain.Post{}, ErrUnknownUser
	}
	if user.Role.Rank() > domain.RoleContributor.Rank() {
		return domain.Post{}, ErrCreateNotAllowed
	}

	status := input.Status
	if status == "" {
		status = domain.StatusDraft
	}
	if err := AuthorizeStatus(user.Role, status); err != nil {
		return domain.Post{}, err
	}

	slug, err := ResolveSlug(input.Title, input.Slug, exists)
	if err != nil {
		return domain.Post{}, err
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}

	ts := now().UTC()
	post := domain.Post{
		ID:         uuid.NewString(),
		Title:      input.Title,
		Slug:       slug,
		Body:       input.Body,
		Status:     status,
		Visibility: visibility,
		AuthorID:   user.ID,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	// Set exactly once, at the transition into Published.
	if status == domain.StatusPublished {
		post.PublishedOn = ts
	}
	return post, nil
}
