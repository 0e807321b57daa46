package auth

import "github.com/folio/folio/internal/model"

// Action is a project operation subject to the ownership guard.
type Action string

const (
	ActionView       Action = "view"
	ActionUpdate     Action = "update"
	ActionSoftDelete Action = "soft-delete"
	ActionRestore    Action = "restore"
	ActionHardDelete Action = "hard-delete"
	ActionHistory    Action = "history"
)

func (a Action) deniedMessage() string {
	switch a {
	case ActionView:
		return "You are not authorized to access this project"
	case ActionUpdate:
		return "You are not authorized to update this project"
	case ActionSoftDelete:
		return "You are not authorized to delete this project"
	case ActionRestore:
		return "You are not authorized to restore this project"
	case ActionHardDelete:
		return "You are not authorized to permanently delete this project"
	case ActionHistory:
		return "You are not authorized to view this project's history"
	default:
		return "You are not authorized to perform this action"
	}
}

// Authorize allows the action only when caller owns the resource.
// It never mutates caller or the resource.
func Authorize(caller *model.Caller, ownerID string, action Action) error {
	if caller == nil {
		return &AuthenticationError{Reason: ReasonMissing}
	}
	if !SameID(caller.ID, ownerID) {
		return &AuthorizationError{Action: action}
	}
	return nil
}
