package models

import (
	"fmt"
	"regexp"
	"strings"
)

// SearchRequest describes one poll: where to look and where to report
type SearchRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`           // miles
	Region    string  `json:"region,omitempty"` // two-letter state code, aggregator only
	Channel   string  `json:"channel"`
	TestMode  bool    `json:"test_mode"`
}

var regionPattern = regexp.MustCompile(`^[A-Z]{2}$`)

// Validate checks the request before any outbound call is made
func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Channel) == "" {
		return fmt.Errorf("channel is required")
	}
	if r.Latitude < -90 || r.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", r.Latitude)
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", r.Longitude)
	}
	if r.Radius <= 0 {
		return fmt.Errorf("radius must be positive, got %v", r.Radius)
	}
	if r.Region != "" && !regionPattern.MatchString(r.Region) {
		return fmt.Errorf("region %q is not a two-letter state code", r.Region)
	}
	return nil
}

// Coordinates is a WGS 84 point
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is the provider-neutral shape handed to the message composer
type Location struct {
	ID                   string      `json:"id"`
	DisplayName          string      `json:"display_name"`
	AddressLines         []string    `json:"address_lines"`
	City                 string      `json:"city"`
	State                string      `json:"state"`
	PostalCode           string      `json:"postal_code"`
	Coordinates          Coordinates `json:"coordinates"`
	HasCoordinates       bool        `json:"has_coordinates"`
	AppointmentAvailable bool        `json:"appointment_available"`
	ActionURL            string      `json:"action_url,omitempty"`
	ProviderName         string      `json:"provider_name"`
}

// StreetAddress returns the first address line, or "" when none is known
func (l Location) StreetAddress() string {
	for _, line := range l.AddressLines {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}
