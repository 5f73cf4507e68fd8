package auth

import (
	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/model"
)

// Action is something a principal may attempt.
type Action string

// Actions.
const (
	ActionView           Action = "view"
	ActionManageUsers    Action = "manage_users"
	ActionCreateTrip     Action = "create_trip"
	ActionUpdateTrip     Action = "update_trip"
	ActionDeleteTrip     Action = "delete_trip"
	ActionCloseTrip      Action = "close_trip"
	ActionAddTripItem    Action = "add_trip_item"
	ActionReturnTripItem Action = "return_trip_item"
	ActionRemoveTripItem Action = "remove_trip_item"
	ActionMarkLost       Action = "mark_lost"
	ActionMarkNotFound   Action = "mark_not_found"
	ActionManageCatalog  Action = "manage_catalog"
	ActionDeleteCatalog  Action = "delete_catalog"
)

// Resource describes the target of an action. OwnerID is the creator;
// nil means the super-admin created it.
type Resource struct {
	OwnerID *string
}

type rule int

const (
	anyPrincipal rule = iota
	adminOnly
	adminOrOwner
)

var rules = map[Action]rule{
	ActionView:           anyPrincipal,
	ActionManageUsers:    adminOnly,
	ActionCreateTrip:     adminOnly,
	ActionUpdateTrip:     adminOrOwner,
	ActionDeleteTrip:     adminOnly,
	ActionCloseTrip:      adminOnly,
	ActionAddTripItem:    anyPrincipal,
	ActionReturnTripItem: anyPrincipal,
	ActionRemoveTripItem: adminOrOwner,
	ActionMarkLost:       adminOnly,
	ActionMarkNotFound:   adminOnly,
	ActionManageCatalog:  anyPrincipal,
	ActionDeleteCatalog:  adminOnly,
}

var messages = map[Action]string{
	ActionManageUsers:    "Only admins can manage users",
	ActionCreateTrip:     "Only admins can create trips",
	ActionUpdateTrip:     "Only the trip creator or an admin can update this trip",
	ActionDeleteTrip:     "Only admins can delete trips",
	ActionCloseTrip:      "Only admins can close trips",
	ActionRemoveTripItem: "Only the trip creator or an admin can remove items from this trip",
	ActionMarkLost:       "Only admins can mark items as lost",
	ActionMarkNotFound:   "Only admins can mark items as not found",
	ActionDeleteCatalog:  "Only admins can delete catalog entries",
}

// Authorize checks whether the principal may perform the action on the
// resource. Unknown actions are denied.
func Authorize(p *model.Principal, action Action, res Resource) error {
	if p == nil {
		return apperr.Unauthenticated(apperr.CodeAuthRequired, "Authentication required")
	}

	r, ok := rules[action]
	if !ok {
		return apperr.ErrForbidden
	}

	switch r {
	case anyPrincipal:
		return nil
	case adminOnly:
		if p.IsAdmin() {
			return nil
		}
	case adminOrOwner:
		if p.IsAdmin() || p.Owns(res.OwnerID) {
			return nil
		}
	}

	if msg, ok := messages[action]; ok {
		return apperr.Forbidden(msg)
	}
	return apperr.ErrForbidden
}
