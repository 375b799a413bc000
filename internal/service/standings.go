package service

import (
	"sort"

	"github.com/noah-isme/festival-live-api/internal/models"
)

// DefaultStandingsLimit applies when callers pass a non-positive limit.
const DefaultStandingsLimit = 10

const unknownInstitution = "Unknown"

// ComputeStandings sums placement points per institution from the given results
// and joins institution metadata. Institutions without placements are omitted.
// Equal totals are ordered by institution code, then id.
func ComputeStandings(results []models.Result, institutions []models.Institution, limit int) []models.StandingsEntry {
	if limit <= 0 {
		limit = DefaultStandingsLimit
	}

	totals := make(map[string]float64)
	order := make([]string, 0)
	for _, result := range results {
		for _, p := range result.Placements {
			if _, seen := totals[p.InstitutionID]; !seen {
				order = append(order, p.InstitutionID)
			}
			totals[p.InstitutionID] += p.Points
		}
	}

	meta := make(map[string]models.Institution, len(institutions))
	for _, inst := range institutions {
		meta[inst.ID] = inst
	}

	entries := make([]models.StandingsEntry, 0, len(order))
	for _, id := range order {
		entry := models.StandingsEntry{
			InstitutionID: id,
			TotalPoints:   totals[id],
			DisplayName:   unknownInstitution,
		}
		if inst, ok := meta[id]; ok {
			entry.DisplayName = inst.DisplayName
			entry.Code = inst.Code
			entry.LogoURL = inst.LogoURL
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.InstitutionID < b.InstitutionID
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
