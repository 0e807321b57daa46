package activity

import (
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/folio/folio/internal/model"
)

const maxActorIDLength = 128

// ValidateProjectEventPayload validates project event payload fields.
func ValidateProjectEventPayload(payload ProjectEventPayload) error {
	if payload.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	if _, err := ulid.ParseStrict(payload.ProjectID); err != nil {
		return fmt.Errorf("project_id must be a ULID")
	}
	if payload.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if payload.ActorID == "" {
		return fmt.Errorf("actor_id is required")
	}
	if len(payload.OwnerID) > maxActorIDLength || len(payload.ActorID) > maxActorIDLength {
		return fmt.Errorf("owner_id or actor_id too long")
	}
	if !isKnownAction(model.Transition(payload.Action)) {
		return fmt.Errorf("unknown action %q", payload.Action)
	}
	if payload.OccurredAt <= 0 {
		return fmt.Errorf("occurred_at must be set")
	}
	return nil
}

func isKnownAction(action model.Transition) bool {
	switch action {
	case model.TransitionCreate,
		model.TransitionUpdate,
		model.TransitionSoftDelete,
		model.TransitionRestore,
		model.TransitionHardDelete:
		return true
	default:
		return false
	}
}
