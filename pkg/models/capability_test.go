package models

import "testing"

func TestCapabilityEligible(t *testing.T) {
	cap := Capability{
		Name:       "code_generation",
		AgentKinds: []AgentKind{AgentKindCoding},
	}

	if !cap.Eligible(AgentKindCoding) {
		t.Error("expected coding kind to be eligible")
	}
	if cap.Eligible(AgentKindGeneral) {
		t.Error("expected general kind to be ineligible")
	}
}

func TestCapabilityPrimaryKind(t *testing.T) {
	cap := Capability{
		Name:       "conversation",
		AgentKinds: []AgentKind{AgentKindGeneral, AgentKindCoding},
	}
	if cap.PrimaryKind() != AgentKindGeneral {
		t.Errorf("expected general as primary kind, got %s", cap.PrimaryKind())
	}

	// A capability without kinds falls back to general rather than panicking.
	empty := Capability{Name: "misconfigured"}
	if empty.PrimaryKind() != AgentKindGeneral {
		t.Errorf("expected fallback to general, got %s", empty.PrimaryKind())
	}
}

func TestAgentKindValid(t *testing.T) {
	if !AgentKindGeneral.Valid() || !AgentKindCoding.Valid() {
		t.Error("expected built-in kinds to be valid")
	}
	if AgentKind("gpu").Valid() {
		t.Error("expected unknown kind to be invalid")
	}
}
