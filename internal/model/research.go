package model

import (
	"fmt"
	"strings"
)

// ResearchPrefix is prepended to every Research record name so research
// never collides with a building or item of the same title.
const ResearchPrefix = "[Research]"

// ResearchRecordName returns name with ResearchPrefix, adding it if missing.
func ResearchRecordName(name string) string {
	if name == "" || strings.HasPrefix(name, ResearchPrefix) {
		return name
	}
	return ResearchPrefix + name
}

// Research is a tech-tree research topic that buildings can require.
type Research struct {
	recordBase
}

func newResearch(r *Registry, name string) (*Research, error) {
	if strings.TrimPrefix(name, ResearchPrefix) == "" {
		return nil, &MalformedRecordNameError{Kind: KindNameResearch, Name: name, Reason: "empty research title"}
	}
	rs := &Research{recordBase: newRecordBase(r, name, KindNameResearch)}
	rs.AddTag(KindNameResearch)
	return rs, nil
}

// Title returns the record name without ResearchPrefix.
func (rs *Research) Title() string {
	return strings.TrimPrefix(rs.name, ResearchPrefix)
}

// DisplayName returns the display name override, or the title.
func (rs *Research) DisplayName() string {
	return rs.display.Or(rs.Title())
}

func (rs *Research) String() string {
	return fmt.Sprintf("Research(%s)", rs.describe(rs.DisplayName()))
}
