package presentation

import (
	"github.com/zjrosen/factorytown/internal/model"
	"github.com/zjrosen/factorytown/internal/scrape"
)

// RecordDTO represents a realized record for presentation
type RecordDTO struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	DisplayName string   `json:"display_name"`
	Image       string   `json:"image,omitempty"`
	Tags        []string `json:"tags"`
}

// UnresolvedDTO represents a referenced name no record was created for
type UnresolvedDTO struct {
	Name        string   `json:"name"`
	Suggestions []string `json:"suggestions"` // always present, possibly empty
}

// SummaryDTO carries the record counts of one model build
type SummaryDTO struct {
	RunID      string         `json:"run_id"`
	Realized   int            `json:"realized"`
	Referenced int            `json:"referenced"`
	Unresolved int            `json:"unresolved"`
	ByTag      map[string]int `json:"by_tag"`
}

// CacheEntryDTO is one cached page key
type CacheEntryDTO struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
}

// FromRecord converts a model record to a DTO.
func FromRecord(rec model.Record) RecordDTO {
	dto := RecordDTO{
		Name:        rec.RecordName(),
		Kind:        rec.KindName(),
		DisplayName: rec.DisplayName(),
		Tags:        rec.Tags(),
	}
	if obj, ok := rec.(model.GameObject); ok {
		dto.Image = obj.ImageName()
	}
	return dto
}

// FromRecords converts records to DTOs, keeping their order
func FromRecords(recs []model.Record) []RecordDTO {
	dtos := make([]RecordDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = FromRecord(rec)
	}
	return dtos
}

// FromUnresolved converts scrape results to DTOs
func FromUnresolved(list []scrape.Unresolved) []UnresolvedDTO {
	dtos := make([]UnresolvedDTO, len(list))
	for i, u := range list {
		suggestions := u.Suggestions
		if suggestions == nil {
			suggestions = []string{}
		}
		dtos[i] = UnresolvedDTO{Name: u.Name, Suggestions: suggestions}
	}
	return dtos
}

// FromSummary converts a model summary to a DTO
func FromSummary(runID string, s model.Summary) SummaryDTO {
	return SummaryDTO{
		RunID:      runID,
		Realized:   s.Realized,
		Referenced: s.Referenced,
		Unresolved: s.Unresolved,
		ByTag:      s.ByTag,
	}
}
