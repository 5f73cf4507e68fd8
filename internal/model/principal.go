package model

// SuperAdminID is the identifier carried in tokens issued to the super-admin.
const SuperAdminID = "super-admin"

// SuperAdminName is the display name of the super-admin.
const SuperAdminName = "Super Admin"

// Principal is the authenticated caller of a request.
type Principal struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	SuperAdmin bool   `json:"-"`
}

// SuperAdmin returns the synthetic, never-persisted admin principal.
func SuperAdmin() *Principal {
	return &Principal{
		ID:         SuperAdminID,
		Name:       SuperAdminName,
		Role:       RoleAdmin,
		SuperAdmin: true,
	}
}

// PrincipalFromUser builds a principal for a stored user.
func PrincipalFromUser(u *User) *Principal {
	return &Principal{ID: u.ID, Name: u.Name, Role: u.Role}
}

// IsAdmin reports whether the principal has the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// ActorID returns the user ID recorded as the actor of a change.
// The super-admin is recorded as nil.
func (p *Principal) ActorID() *string {
	if p == nil || p.SuperAdmin {
		return nil
	}
	id := p.ID
	return &id
}

// Owns reports whether the principal is the recorded creator. A nil
// creator means the super-admin created the resource.
func (p *Principal) Owns(creatorID *string) bool {
	if p == nil {
		return false
	}
	if creatorID == nil {
		return p.SuperAdmin
	}
	return !p.SuperAdmin && *creatorID == p.ID
}
