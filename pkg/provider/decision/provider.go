// Package decision defines the interface for dialogue decision providers.
//
// A decision provider looks at the latest user utterance, the dialogue
// memory flags and the catalog of available pre-recorded segments, and
// returns the next action the agent should take.
package decision

import "context"

// Action is the kind of step a Decision asks the agent to take.
type Action string

const (
	// ActionPlayRecord plays a pre-recorded segment identified by RecordID.
	ActionPlayRecord Action = "play_record"
	// ActionDoTool runs a tool, typically sending the dashboard invitation.
	ActionDoTool Action = "do_tool"
	// ActionAskClarification means no segment fits; the agent keeps listening.
	ActionAskClarification Action = "ask_clarification"
	// ActionEnd terminates the session.
	ActionEnd Action = "end"
)

// Decision is the structured outcome of a single dialogue turn.
type Decision struct {
	Action    Action            `json:"action"`
	RecordID  string            `json:"record_id"`
	Variables map[string]string `json:"variables"`
	Reason    string            `json:"reason"`
}

// Email returns the email variable, if the decision carries one.
func (d Decision) Email() string {
	if d.Variables == nil {
		return ""
	}
	return d.Variables["email"]
}

// RecordSummary describes one playable segment for the decision prompt.
type RecordSummary struct {
	ID     string `json:"id"`
	Intent string `json:"intent"`
}

// Request carries everything a provider needs to decide the next action.
type Request struct {
	// LastUserText is the transcript of the most recent utterance. May be empty.
	LastUserText string
	// Flags is the public view of the dialogue memory.
	Flags map[string]bool
	// Records lists every segment in the manifest.
	Records []RecordSummary
	// AllowedRecordIDs is the subset of records the gate currently permits.
	AllowedRecordIDs []string
}

// Provider decides the next dialogue action.
type Provider interface {
	// Decide returns the next action for the given turn. Implementations
	// must return a usable Decision even when the upstream model produces
	// malformed output; transport failures are reported as errors.
	Decide(ctx context.Context, req Request) (Decision, error)
}
