// Package team derives station grouping from station attributes. Teams are
// never stored: stations sharing one physical unit (several controllers on a
// single console) carry the same team id, and everything else is recomputed
// on demand.
package team

import (
	"sort"

	"loungepos/internal/models"
)

// TeammatesOf returns every other station sharing the candidate's team id.
// Stations without a team have no teammates.
func TeammatesOf(station models.Station, all []models.Station) []models.Station {
	if station.TeamID == "" {
		return nil
	}

	var mates []models.Station
	for _, other := range all {
		if other.ID == station.ID {
			continue
		}
		if other.TeamID == station.TeamID {
			mates = append(mates, other)
		}
	}
	return mates
}

// HasConflict reports whether selecting the candidate would commit a physical
// unit that one of the already-selected stations has committed.
func HasConflict(candidate models.Station, selectedIDs []string, all []models.Station) bool {
	mates := TeammatesOf(candidate, all)
	if len(mates) == 0 {
		return false
	}

	selected := make(map[string]struct{}, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = struct{}{}
	}

	for _, mate := range mates {
		if _, ok := selected[mate.ID]; ok {
			return true
		}
	}
	return false
}

// HiddenStations returns the ids a chooser UI must suppress: the union of
// teammates of every selected station that has a team. The result is sorted
// so callers get a stable order.
func HiddenStations(selectedIDs []string, all []models.Station) []string {
	byID := make(map[string]models.Station, len(all))
	for _, st := range all {
		byID[st.ID] = st
	}

	hidden := make(map[string]struct{})
	for _, id := range selectedIDs {
		st, ok := byID[id]
		if !ok || st.TeamID == "" {
			continue
		}
		for _, mate := range TeammatesOf(st, all) {
			hidden[mate.ID] = struct{}{}
		}
	}

	if len(hidden) == 0 {
		return nil
	}

	ids := make([]string, 0, len(hidden))
	for id := range hidden {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SelectedTeamSize counts how many of the selected stations share the
// candidate's team, the candidate included. Used to pick between single-unit
// and per-member pricing.
func SelectedTeamSize(candidate models.Station, selectedIDs []string, all []models.Station) int {
	if candidate.TeamID == "" {
		return 1
	}

	byID := make(map[string]models.Station, len(all))
	for _, st := range all {
		byID[st.ID] = st
	}

	size := 1
	for _, id := range selectedIDs {
		if id == candidate.ID {
			continue
		}
		if st, ok := byID[id]; ok && st.TeamID == candidate.TeamID {
			size++
		}
	}
	return size
}
