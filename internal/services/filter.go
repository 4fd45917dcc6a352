package services

import (
	"strings"

	"vaccine-availability-notifier/internal/models"
)

// FilterResult holds both stages of filtering
type FilterResult struct {
	Candidates []models.Location // in range and not excluded, availability not yet checked
	Openings   []models.Location // what gets reported
}

// FilterOpenings keeps the locations worth reporting, preserving upstream
// order. With ClientSideRadius set, excluded providers and anything farther
// than req.Radius miles (or without coordinates) are dropped first. In test
// mode the first candidate is always reported, ahead of the real openings.
func FilterOpenings(locations []models.Location, req models.SearchRequest, policy FilterPolicy) FilterResult {
	candidates := make([]models.Location, 0, len(locations))
	if !policy.ClientSideRadius {
		candidates = append(candidates, locations...)
	} else {
		origin := models.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude}
		for _, loc := range locations {
			if isExcluded(loc.ProviderName, policy.ExcludedProviders) {
				continue
			}
			if !loc.HasCoordinates || !WithinRadius(origin, loc.Coordinates, req.Radius) {
				continue
			}
			candidates = append(candidates, loc)
		}
	}

	var openings []models.Location
	if req.TestMode && len(candidates) > 0 {
		openings = append(openings, candidates[0])
	}
	for _, loc := range candidates {
		if loc.AppointmentAvailable {
			openings = append(openings, loc)
		}
	}

	return FilterResult{Candidates: candidates, Openings: openings}
}

func isExcluded(provider string, excluded []string) bool {
	for _, e := range excluded {
		if strings.EqualFold(provider, e) {
			return true
		}
	}
	return false
}
