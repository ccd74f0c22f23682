package content

import (
	"gazette/domain"
	"gazette/errs"
)

// ErrPublishNotAllowed rejects a publish request from a role below Author.
var ErrPublishNotAllowed = errs.New(errs.CodeInvalidRequest, "You are not allowed to publish posts")

// AuthorizeStatus validates that the role may set the requested publication
// status. Any role may save a draft; publishing requires a rank strictly
// above Contributor (Administrator, Editor or Author).
func AuthorizeStatus(role domain.Role, status domain.Status) error {
	if status != domain.StatusPublished {
		return nil
	}
	if role.Rank() < domain.RoleContributor.Rank() {
		return nil
	}
	return ErrPublishNotAllowed
}
