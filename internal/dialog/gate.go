package dialog

// Gate computes which pre-recorded segments may be played next under the
// fixed step sequence, as a pure function of the session memory. The gate is
// read-only after construction and safe for concurrent use.
type Gate struct {
	present map[string]bool
}

// NewGate creates a gate over the set of record identifiers actually present
// in the loaded manifest. Rules whose target segment is absent fall through
// to the next rule.
func NewGate(recordIDs []string) *Gate {
	present := make(map[string]bool, len(recordIDs))
	for _, id := range recordIDs {
		present[id] = true
	}
	return &Gate{present: present}
}

// AllowedRecords returns the ordered set of record identifiers permitted for
// the next playback action. The rules form an ordered decision list — the
// first matching rule wins:
//
//  1. Not greeted: Bonjour then Test_son, filtered to those present.
//  2. Test_son not done: only Test_son.
//  3. Raison_rdv not done: only Raison_rdv.
//  4. Presentation not received: only Presentez_vous.
//  5. Presentation received, thanks not played: only Merci_presentation.
//  6. Email not captured: only Demande_email.
//  7. Email captured: empty — the caller must perform the invite action
//     instead of a playback action.
func (g *Gate) AllowedRecords(m *Memory) []string {
	if !m.Greeted {
		var allowed []string
		for _, id := range []string{RecordBonjour, RecordTestSon} {
			if g.present[id] {
				allowed = append(allowed, id)
			}
		}
		return allowed
	}
	if !m.TestSonDone && g.present[RecordTestSon] {
		return []string{RecordTestSon}
	}
	if !m.RaisonDone && g.present[RecordRaisonRdv] {
		return []string{RecordRaisonRdv}
	}
	if !m.PresentationReceived && g.present[RecordPresentezVous] {
		return []string{RecordPresentezVous}
	}
	if m.PresentationReceived && !m.MerciDone && g.present[RecordMerci] {
		return []string{RecordMerci}
	}
	if !m.EmailCaptured && g.present[RecordDemandeEmail] {
		return []string{RecordDemandeEmail}
	}
	return nil
}

// Enforce applies the substitution contract to an externally proposed record
// identifier: when proposed is non-empty and allowed is non-empty but does
// not contain it, the first allowed entry is substituted. When allowed is
// empty the proposal is trusted unchanged. The second return reports whether
// a substitution occurred.
func Enforce(proposed string, allowed []string) (string, bool) {
	if proposed == "" || len(allowed) == 0 {
		return proposed, false
	}
	for _, id := range allowed {
		if id == proposed {
			return proposed, false
		}
	}
	return allowed[0], true
}
