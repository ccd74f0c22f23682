package domain

// Role is a User's editorial privilege level.
type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleEditor        Role = "Editor"
	RoleAuthor        Role = "Author"
	RoleContributor   Role = "Contributor"
	RoleSubscriber    Role = "Subscriber"

	// RoleAnonymous is the pseudo-role of a requester with no resolved
	// identity. It is never stored on a User record.
	RoleAnonymous Role = "Anonymous"
)

// Visibility is the disclosure level required to view a Post. Six levels
// share the Role ranking (plus Public at the bottom); Private sits outside
// the ranking and is granted through authorship only.
type Visibility string

const (
	VisibilityAdministrator Visibility = "Administrator"
	VisibilityEditor        Visibility = "Editor"
	VisibilityAuthor        Visibility = "Author"
	VisibilityContributor   Visibility = "Contributor"
	VisibilitySubscriber    Visibility = "Subscriber"
	VisibilityPublic        Visibility = "Public"
	VisibilityPrivate       Visibility = "Private"
)

// Lower rank means more privileged. Anonymous ranks with Public so that it
// satisfies the Public tier and nothing stricter.
var roleRanks = map[Role]int{
	RoleAdministrator: 0,
	RoleEditor:        1,
	RoleAuthor:        2,
	RoleContributor:   3,
	RoleSubscriber:    4,
	RoleAnonymous:     5,
}

var visibilityRanks = map[Visibility]int{
	VisibilityAdministrator: 0,
	VisibilityEditor:        1,
	VisibilityAuthor:        2,
	VisibilityContributor:   3,
	VisibilitySubscriber:    4,
	VisibilityPublic:        5,
}

// ParseRole returns the named role, or RoleAnonymous if the name does not
// match any stored role.
func ParseRole(name string) Role {
	r := Role(name)
	if _, ok := roleRanks[r]; !ok || r == RoleAnonymous {
		return RoleAnonymous
	}
	return r
}

// Rank returns the role's position in the hierarchy.
func (r Role) Rank() int {
	rank, ok := roleRanks[r]
	if !ok {
		return roleRanks[RoleAnonymous]
	}
	return rank
}

// Rank returns the tier's position in the hierarchy. Private has no rank;
// it reports false.
func (v Visibility) Rank() (int, bool) {
	rank, ok := visibilityRanks[v]
	return rank, ok
}

// Satisfies reports whether the role clears the required visibility tier.
// Private is never satisfied here: it is an ownership tier, granted only to
// the post's author by the visibility filter.
func (r Role) Satisfies(tier Visibility) bool {
	required, ok := tier.Rank()
	if !ok {
		return false
	}
	return r.Rank() <= required
}
