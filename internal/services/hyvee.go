package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"vaccine-availability-notifier/internal/models"
)

// HyVeeProviderName is the provider tag for the pharmacy chain
const HyVeeProviderName = "hyvee"

const hyveeQuery = `query SearchPharmaciesNearPointWithCovidVaccineAvailability($latitude: Float!, $longitude: Float!, $radius: Int! = 10) {
  searchPharmaciesNearPoint(latitude: $latitude, longitude: $longitude, radius: $radius) {
    distance
    location {
      locationId
      name
      nickname
      phoneNumber
      businessCode
      isCovidVaccineAvailable
      covidVaccineEligibilityTerms
      address {
        line1
        line2
        city
        state
        zip
        latitude
        longitude
      }
    }
  }
}`

const maxResponseBytes = 16 << 20

// HyVeeProvider queries the pharmacy chain's GraphQL store search. Radius
// filtering happens server-side.
type HyVeeProvider struct {
	httpClient      *http.Client
	endpoint        string
	registrationURL string
}

// HyVeeConfig holds the endpoints for HyVeeProvider
type HyVeeConfig struct {
	Endpoint        string
	RegistrationURL string
	Timeout         time.Duration
}

// hyveeResponse mirrors the GraphQL response envelope
type hyveeResponse struct {
	Data struct {
		SearchPharmaciesNearPoint []HyVeeSearchResult `json:"searchPharmaciesNearPoint"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// HyVeeSearchResult is one entry of searchPharmaciesNearPoint
type HyVeeSearchResult struct {
	Distance float64       `json:"distance"`
	Location HyVeePharmacy `json:"location"`
}

// HyVeePharmacy is the raw pharmacy record
type HyVeePharmacy struct {
	LocationID                   flexString `json:"locationId"`
	Name                         string     `json:"name"`
	Nickname                     *string    `json:"nickname"`
	PhoneNumber                  string     `json:"phoneNumber"`
	BusinessCode                 string     `json:"businessCode"`
	IsCovidVaccineAvailable      bool       `json:"isCovidVaccineAvailable"`
	CovidVaccineEligibilityTerms string     `json:"covidVaccineEligibilityTerms"`
	Address                      struct {
		Line1     string   `json:"line1"`
		Line2     *string  `json:"line2"`
		City      string   `json:"city"`
		State     string   `json:"state"`
		Zip       string   `json:"zip"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"address"`
}

// flexString accepts a JSON string or number
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("locationId is neither string nor number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// NewHyVeeProvider creates the pharmacy-chain provider
func NewHyVeeProvider(cfg HyVeeConfig) *HyVeeProvider {
	return &HyVeeProvider{
		httpClient:      newHTTPClient(cfg.Timeout),
		endpoint:        cfg.Endpoint,
		registrationURL: cfg.RegistrationURL,
	}
}

func (p *HyVeeProvider) Name() string { return HyVeeProviderName }

func (p *HyVeeProvider) Policy() FilterPolicy {
	return FilterPolicy{ClientSideRadius: false}
}

func (p *HyVeeProvider) Style() MessageStyle {
	return MessageStyle{
		Title:           titleHeadline + "\n\nThe following :hyvee: locations have COVID-19 vaccination appointments :covid-19: :syringe: available now!",
		SharedActionURL: p.registrationURL,
		ActionLabel:     defaultActionLabel,
	}
}

// Fetch posts the store search query and returns pharmacies nearest first
func (p *HyVeeProvider) Fetch(ctx context.Context, req models.SearchRequest) ([]models.Location, error) {
	payload := map[string]interface{}{
		"query": hyveeQuery,
		"variables": map[string]interface{}{
			"latitude":  req.Latitude,
			"longitude": req.Longitude,
			// the schema declares radius as Int; round up so nothing inside the requested radius is lost
			"radius": int(math.Ceil(req.Radius)),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Provider: p.Name(), Err: fmt.Errorf("failed to marshal query: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Provider: p.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Provider: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &TransportError{Provider: p.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(snippet)))}
	}

	var decoded hyveeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&decoded); err != nil {
		return nil, &TransportError{Provider: p.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if len(decoded.Errors) > 0 && decoded.Data.SearchPharmaciesNearPoint == nil {
		messages := make([]string, 0, len(decoded.Errors))
		for _, e := range decoded.Errors {
			messages = append(messages, e.Message)
		}
		return nil, &TransportError{Provider: p.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("graphql errors: %s", strings.Join(messages, "; "))}
	}

	locations := make([]models.Location, 0, len(decoded.Data.SearchPharmaciesNearPoint))
	for _, result := range decoded.Data.SearchPharmaciesNearPoint {
		locations = append(locations, NormalizeHyVeePharmacy(result.Location, p.registrationURL))
	}
	return locations, nil
}

// NormalizeHyVeePharmacy adapts a pharmacy record. The nickname wins over the
// formal name when present.
func NormalizeHyVeePharmacy(raw HyVeePharmacy, registrationURL string) models.Location {
	name := raw.Name
	if raw.Nickname != nil && strings.TrimSpace(*raw.Nickname) != "" {
		name = *raw.Nickname
	}

	lines := []string{raw.Address.Line1}
	if raw.Address.Line2 != nil && strings.TrimSpace(*raw.Address.Line2) != "" {
		lines = append(lines, *raw.Address.Line2)
	}

	loc := models.Location{
		ID:                   string(raw.LocationID),
		DisplayName:          name,
		AddressLines:         lines,
		City:                 raw.Address.City,
		State:                raw.Address.State,
		PostalCode:           raw.Address.Zip,
		AppointmentAvailable: raw.IsCovidVaccineAvailable,
		ActionURL:            registrationURL,
		ProviderName:         HyVeeProviderName,
	}
	if raw.Address.Latitude != nil && raw.Address.Longitude != nil {
		loc.Coordinates = models.Coordinates{Latitude: *raw.Address.Latitude, Longitude: *raw.Address.Longitude}
		loc.HasCoordinates = true
	}
	return loc
}
