package auth

import "errors"

var (
	// ErrUnauthenticated means the caller is anonymous and the action needs an identity.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the caller is known but ranks below the required role.
	ErrForbidden = errors.New("insufficient role")
)

type Entity string

const (
	EntityPlace      Entity = "place"
	EntityAccept     Entity = "accept"
	EntityRating     Entity = "rating"
	EntityPlaceImage Entity = "place_image"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type permission struct {
	entity Entity
	action Action
}

// policy lists the minimum role per entity and action. Pairs that are not
// listed are not exposed and are always denied.
var policy = map[permission]Role{
	{EntityPlace, ActionRead}:   RoleAuthenticated,
	{EntityPlace, ActionCreate}: RoleAuthenticated,
	{EntityPlace, ActionUpdate}: RoleSuperuser,
	{EntityPlace, ActionDelete}: RoleSuperuser,

	{EntityAccept, ActionRead}:   RoleAuthenticated,
	{EntityAccept, ActionCreate}: RoleAuthenticated,
	{EntityAccept, ActionDelete}: RoleAuthenticated,

	{EntityRating, ActionRead}:   RoleAuthenticated,
	{EntityRating, ActionCreate}: RoleAuthenticated,
	{EntityRating, ActionDelete}: RoleAuthenticated,

	{EntityPlaceImage, ActionRead}:   RoleAuthenticated,
	{EntityPlaceImage, ActionCreate}: RoleModerator,
	{EntityPlaceImage, ActionDelete}: RoleModerator,
}

// RequiredRole returns the minimum role for the pair, and false when the
// pair is not part of the API.
func RequiredRole(entity Entity, action Action) (Role, bool) {
	role, ok := policy[permission{entity, action}]
	return role, ok
}

// Authorize checks p against the policy. Anonymous callers that fall short
// get ErrUnauthenticated, everyone else ErrForbidden.
func Authorize(p Principal, entity Entity, action Action) error {
	required, ok := RequiredRole(entity, action)
	if !ok {
		return ErrForbidden
	}
	if p.Role.AtLeast(required) {
		return nil
	}
	if p.IsAnonymous() {
		return ErrUnauthenticated
	}
	return ErrForbidden
}
