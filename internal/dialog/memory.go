// Package dialog holds the per-session conversation state for the scripted
// appointment flow: the mutable progress memory, the step-gating policy that
// restricts which pre-recorded segments may be played next, and the text
// heuristics that advance the memory from raw transcripts.
package dialog

// Record identifiers of the scripted conversation segments. These match the
// "id" values of the segment manifest.
const (
	RecordBonjour       = "Bonjour"
	RecordTestSon       = "Test_son"
	RecordRaisonRdv     = "Raison_rdv"
	RecordPresentezVous = "Presentez_vous"
	RecordMerci         = "Merci_presentation"
	RecordDemandeEmail  = "Demande_email"
	RecordInvitationOK  = "Invitation_done"
)

// StepOrder is the canonical segment sequence of a full session, in the order
// the gate releases them. Read-only.
var StepOrder = []string{
	RecordTestSon,
	RecordRaisonRdv,
	RecordPresentezVous,
	RecordMerci,
	RecordDemandeEmail,
}

// Memory tracks conversation progress across turns. Flags only transition
// false→true (and Email unset→set) for the lifetime of a session; nothing is
// ever reset. Memory is owned exclusively by the turn controller — it is not
// safe for concurrent use and never needs to be.
type Memory struct {
	Greeted              bool
	PresentationReceived bool
	EmailCaptured        bool
	InviteSent           bool

	// Email is the address captured by the transcript heuristic. May be
	// overridden at invite time by the decision provider's own extraction.
	Email string

	// Per-step completion flags, set after the corresponding segment has
	// been played.
	TestSonDone bool
	RaisonDone  bool
	MerciDone   bool
}

// NewMemory returns a fresh session memory with all flags unset.
func NewMemory() *Memory { return &Memory{} }

// Flags returns the progress flags in the shape sent to the decision
// provider. Per-step completion flags are internal to the gate and are not
// exposed.
func (m *Memory) Flags() map[string]bool {
	return map[string]bool{
		"greeted":               m.Greeted,
		"presentation_received": m.PresentationReceived,
		"email_captured":        m.EmailCaptured,
		"invite_sent":           m.InviteSent,
	}
}

// ObserveTranscript applies the per-turn text heuristics to a raw transcript:
// a self-introduction pattern sets PresentationReceived, and the first email
// address found is recorded and sets EmailCaptured. Both transitions are
// one-way; flags already set are left untouched.
func (m *Memory) ObserveTranscript(text string) {
	if !m.PresentationReceived && DetectPresentation(text) {
		m.PresentationReceived = true
	}
	if !m.EmailCaptured {
		if email := ExtractEmail(text); email != "" {
			m.Email = email
			m.EmailCaptured = true
		}
	}
}

// MarkPlayed records the completion of a successfully played segment,
// advancing the corresponding step flag. Playing Merci_presentation forces
// PresentationReceived true even when the text heuristic missed it.
func (m *Memory) MarkPlayed(recordID string) {
	switch recordID {
	case RecordTestSon:
		m.TestSonDone = true
	case RecordRaisonRdv:
		m.RaisonDone = true
	case RecordMerci:
		m.MerciDone = true
		m.PresentationReceived = true
	}
}

// ResolveEmail picks the address to use at invite time: the decision
// provider's candidate when non-empty, otherwise the heuristically captured
// address. Returns "" when neither is available.
func (m *Memory) ResolveEmail(candidate string) string {
	if candidate != "" {
		return candidate
	}
	return m.Email
}
