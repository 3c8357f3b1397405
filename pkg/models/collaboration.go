package models

import "time"

// CollaborationDirection names the side of the repair negotiation a fix
// request is sent to. Only testing-to-codegen requests exist today; the
// type keeps the directive well-formed if the reverse direction is added.
type CollaborationDirection string

const DirectionToCodeGeneration CollaborationDirection = "to_code_generation"

// RoundOutcome is the resolution of one collaboration round. A round stays
// pending until the subsequent testing run either repairs the failure or not.
type RoundOutcome string

const (
	RoundOutcomePending    RoundOutcome = "pending"
	RoundOutcomeRepaired   RoundOutcome = "repaired"
	RoundOutcomeUnresolved RoundOutcome = "unresolved"
)

// FixRequest names the failing steps and diagnostic detail from the latest
// test result, sent to the code generator to request a repaired script.
type FixRequest struct {
	FailingSteps []TestStep `json:"failing_steps"`
	Diagnostics  string     `json:"diagnostics,omitempty"`
	Logs         []string   `json:"logs,omitempty"`
}

// FixResponse carries the replacement generated_code artifact.
type FixResponse struct {
	Code       GeneratedCode `json:"code"`
	Confidence float64       `json:"confidence"`
	Notes      string        `json:"notes,omitempty"`
}

// CollaborationRound records one fix-request/fix-response cycle between the
// testing and code generation phases. Rounds are append-only.
type CollaborationRound struct {
	RoundIndex int          `json:"round_index"`
	Request    FixRequest   `json:"fix_request"`
	Response   *FixResponse `json:"fix_response,omitempty"`
	Outcome    RoundOutcome `json:"outcome"`
	StartedAt  time.Time    `json:"started_at"`
	ResolvedAt *time.Time   `json:"resolved_at,omitempty"`
}
