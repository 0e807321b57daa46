package service

import "github.com/folio/folio/internal/model"

// checkTransition rejects transitions whose precondition the loaded state
// already violates. The repository's conditional write stays authoritative;
// this only avoids a round trip for the common case.
func checkTransition(project *model.Project, transition model.Transition) error {
	switch transition {
	case model.TransitionSoftDelete:
		if project.IsDeleted() {
			return ErrAlreadyDeleted
		}
	case model.TransitionUpdate, model.TransitionRestore, model.TransitionHardDelete:
		// Allowed from every persisted state.
	}
	return nil
}
