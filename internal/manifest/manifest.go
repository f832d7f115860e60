// Package manifest loads and indexes the static catalogue of pre-recorded
// audio segments used by the scripted conversation mode.
//
// The manifest is a JSON document of shape {"records": [{id, path, intent}]}
// living next to the segment files. Record paths are resolved relative to the
// manifest's parent directory's parent, so a manifest at segments/manifest.json
// with path "segments/Bonjour.wav" resolves against the project root.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/antzucaro/matchr"
)

// resolveSimilarity is the minimum Jaro-Winkler score required for a fuzzy
// record-id match in [Manifest.Resolve].
const resolveSimilarity = 0.85

// Record describes one pre-recorded segment: its identifier, its audio file
// path (manifest-relative), and a short intent summary used to prompt the
// decision provider.
type Record struct {
	ID     string `json:"id"`
	Path   string `json:"path"`
	Intent string `json:"intent"`
}

// Manifest is the read-only set of records loaded at startup.
type Manifest struct {
	records []Record
	paths   map[string]string // id → absolute file path
}

// Load reads and indexes the manifest at path. Record identifiers must be
// unique; records missing an id or path are skipped from the path index but
// kept in the prompt catalogue. A missing or malformed file is an error —
// the caller treats this as fatal at startup.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %q: %w", path, err)
	}

	var doc struct {
		Records []Record `json:"records"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("manifest: parse %q: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %q: %w", path, err)
	}
	// Segment paths are relative to the manifest directory's parent.
	baseDir := filepath.Dir(filepath.Dir(abs))

	m := &Manifest{
		records: doc.Records,
		paths:   make(map[string]string, len(doc.Records)),
	}
	for _, rec := range doc.Records {
		if rec.ID == "" || rec.Path == "" {
			continue
		}
		if _, dup := m.paths[rec.ID]; dup {
			return nil, fmt.Errorf("manifest: duplicate record id %q", rec.ID)
		}
		m.paths[rec.ID] = filepath.Join(baseDir, rec.Path)
	}
	return m, nil
}

// Records returns the full record catalogue in manifest order.
func (m *Manifest) Records() []Record { return m.records }

// IDs returns the identifiers of all records that have a playable path.
func (m *Manifest) IDs() []string {
	ids := make([]string, 0, len(m.paths))
	for _, rec := range m.records {
		if _, ok := m.paths[rec.ID]; ok {
			ids = append(ids, rec.ID)
		}
	}
	return ids
}

// Has reports whether id maps to a playable segment.
func (m *Manifest) Has(id string) bool {
	_, ok := m.paths[id]
	return ok
}

// PathFor returns the absolute audio file path for id.
func (m *Manifest) PathFor(id string) (string, bool) {
	p, ok := m.paths[id]
	return p, ok
}

// Resolve maps an externally proposed record identifier onto a manifest id.
// It tries an exact match, then a case-insensitive match, then the most
// similar id by Jaro-Winkler score above a fixed threshold — decision
// providers occasionally mangle casing or drop underscores. Returns false
// when nothing plausible matches.
func (m *Manifest) Resolve(proposed string) (string, bool) {
	if proposed == "" {
		return "", false
	}
	if m.Has(proposed) {
		return proposed, true
	}

	lower := strings.ToLower(proposed)
	for id := range m.paths {
		if strings.ToLower(id) == lower {
			return id, true
		}
	}

	var (
		bestID    string
		bestScore float64
	)
	for id := range m.paths {
		score := matchr.JaroWinkler(lower, strings.ToLower(id), false)
		if score > bestScore {
			bestID, bestScore = id, score
		}
	}
	if bestScore >= resolveSimilarity {
		return bestID, true
	}
	return "", false
}
