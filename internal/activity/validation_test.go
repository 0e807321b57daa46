package activity

import (
	"strings"
	"testing"
)

func TestValidateProjectEventPayload(t *testing.T) {
	valid := samplePayload()

	tests := []struct {
		name    string
		mutate  func(p *ProjectEventPayload)
		wantErr bool
	}{
		{"valid", func(p *ProjectEventPayload) {}, false},
		{"missing_project", func(p *ProjectEventPayload) { p.ProjectID = "" }, true},
		{"project_not_ulid", func(p *ProjectEventPayload) { p.ProjectID = "42" }, true},
		{"missing_owner", func(p *ProjectEventPayload) { p.OwnerID = "" }, true},
		{"missing_actor", func(p *ProjectEventPayload) { p.ActorID = "" }, true},
		{"actor_too_long", func(p *ProjectEventPayload) { p.ActorID = strings.Repeat("a", maxActorIDLength+1) }, true},
		{"unknown_action", func(p *ProjectEventPayload) { p.Action = "archive" }, true},
		{"missing_time", func(p *ProjectEventPayload) { p.OccurredAt = 0 }, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			payload := valid
			test.mutate(&payload)
			err := ValidateProjectEventPayload(payload)
			if test.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !test.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
