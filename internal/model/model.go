package model

import (
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
)

// RecordsRegistryName is the name of the model's record registry.
const RecordsRegistryName = "records"

// Model is one build of the game-data graph. It owns a single registry.
type Model struct {
	id      string
	records *Registry
}

// Option configures a Model.
type Option func(*Model)

// WithRunID sets the model's run id instead of generating one.
func WithRunID(id string) Option {
	return func(m *Model) { m.id = id }
}

// New creates an empty model.
func New(opts ...Option) *Model {
	m := &Model{records: NewRegistry(RecordsRegistryName)}
	for _, opt := range opts {
		opt(m)
	}
	if m.id == "" {
		m.id = uuid.New().String()
	}
	return m
}

// ID returns the run id used to correlate logs and traces for this build.
func (m *Model) ID() string { return m.id }

// Records returns the model's registry.
func (m *Model) Records() *Registry { return m.records }

// CheckReferences returns the names referenced but never realized. When
// strict is set and any exist, it also returns *UnresolvedReferencesError.
func (m *Model) CheckReferences(strict bool) ([]string, error) {
	names := m.records.UnresolvedNames()
	if strict && len(names) > 0 {
		return names, &UnresolvedReferencesError{Registry: m.records.Name(), Names: names}
	}
	return names, nil
}

// Summary counts the model's records.
type Summary struct {
	Realized   int
	Referenced int
	Unresolved int
	ByTag      map[string]int
}

// Summary returns record counts, including realized records per tag.
func (m *Model) Summary() Summary {
	s := Summary{
		Realized:   m.records.Len(),
		Referenced: m.records.RefLen(),
		ByTag:      make(map[string]int),
	}
	s.Unresolved = s.Referenced - s.Realized
	for _, rec := range m.records.Records() {
		for _, tag := range rec.Tags() {
			s.ByTag[tag]++
		}
	}
	return s
}

// maxSuggestions bounds Suggest's result.
const maxSuggestions = 3

// Suggest returns up to three realized names closest to name by
// case-insensitive edit distance. Names further than a third of the
// name's length (minimum 2) are not suggested.
func (m *Model) Suggest(name string) []string {
	type candidate struct {
		name string
		dist int
	}

	limit := max(len(name)/3, 2)
	needle := strings.ToLower(name)

	var found []candidate
	for _, realized := range m.records.InstantiatedNames() {
		if realized == name {
			continue
		}
		d := levenshtein.ComputeDistance(needle, strings.ToLower(realized))
		if d <= limit {
			found = append(found, candidate{name: realized, dist: d})
		}
	}
	slices.SortStableFunc(found, func(a, b candidate) int { return a.dist - b.dist })

	out := make([]string, 0, min(len(found), maxSuggestions))
	for _, c := range found {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, c.name)
	}
	return out
}
