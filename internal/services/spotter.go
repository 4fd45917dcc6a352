package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"vaccine-availability-notifier/internal/logging"
	"vaccine-availability-notifier/internal/models"
)

// SpotterProviderName is the provider tag for the aggregator
const SpotterProviderName = "spotter"

// SpotterProvider reads the aggregator's per-state GeoJSON feed. The feed is
// not radius-aware, so results are filtered client-side.
type SpotterProvider struct {
	httpClient        *http.Client
	baseURL           string
	defaultState      string
	excludedProviders []string
}

// SpotterConfig holds settings for SpotterProvider
type SpotterConfig struct {
	BaseURL           string
	DefaultState      string
	ExcludedProviders []string
	Timeout           time.Duration
}

// NewSpotterProvider creates the aggregator provider
func NewSpotterProvider(cfg SpotterConfig) *SpotterProvider {
	return &SpotterProvider{
		httpClient:        newHTTPClient(cfg.Timeout),
		baseURL:           strings.TrimRight(cfg.BaseURL, "/"),
		defaultState:      models.NormalizeRegion(cfg.DefaultState),
		excludedProviders: cfg.ExcludedProviders,
	}
}

func (p *SpotterProvider) Name() string { return SpotterProviderName }

func (p *SpotterProvider) Policy() FilterPolicy {
	return FilterPolicy{
		ClientSideRadius:  true,
		ExcludedProviders: p.excludedProviders,
	}
}

func (p *SpotterProvider) Style() MessageStyle {
	return MessageStyle{
		Title:             titleHeadline + "\n\nThe following locations have COVID-19 vaccination appointments :covid-19: :syringe: available now!",
		PerLocationAction: true,
		ActionLabel:       defaultActionLabel,
	}
}

// StateURL is the feed address for a region; an empty region uses the default state
func (p *SpotterProvider) StateURL(region string) string {
	region = models.NormalizeRegion(region)
	if region == "" {
		region = p.defaultState
	}
	return fmt.Sprintf("%s/states/%s.json", p.baseURL, url.PathEscape(region))
}

// Fetch downloads the state feed. Only the region is sent upstream.
func (p *SpotterProvider) Fetch(ctx context.Context, req models.SearchRequest) ([]models.Location, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.StateURL(req.Region), nil)
	if err != nil {
		return nil, &TransportError{Provider: p.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Accept", "application/geo+json, application/json")
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

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Provider: p.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var feed spotterFeed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, &TransportError{Provider: p.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode feature collection: %w", err)}
	}

	locations := make([]models.Location, 0, len(feed.Features))
	skipped := 0
	for _, raw := range feed.Features {
		var f SpotterFeature
		if err := json.Unmarshal(raw, &f); err != nil {
			skipped++
			continue
		}
		locations = append(locations, NormalizeSpotterFeature(f))
	}
	if skipped > 0 {
		logging.Get().Warn().Str("provider", p.Name()).Int("skipped", skipped).Msg("Skipped malformed features")
	}
	return locations, nil
}

// spotterFeed is the feed envelope. The "type" members are optional on the
// wire, which orb's strict decoder does not allow.
type spotterFeed struct {
	Features []json.RawMessage `json:"features"`
}

// SpotterFeature is one feed entry
type SpotterFeature struct {
	Geometry *struct {
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
	Properties geojson.Properties `json:"properties"`
}

// Point returns the feature's [lon, lat] position, if it has one
func (f SpotterFeature) Point() (orb.Point, bool) {
	if f.Geometry == nil || len(f.Geometry.Coordinates) == 0 {
		return orb.Point{}, false
	}
	var coords []float64
	if err := json.Unmarshal(f.Geometry.Coordinates, &coords); err != nil || len(coords) < 2 {
		return orb.Point{}, false
	}
	return orb.Point{coords[0], coords[1]}, true
}

// NormalizeSpotterFeature adapts one feed entry. Features without a point
// geometry keep HasCoordinates false.
func NormalizeSpotterFeature(f SpotterFeature) models.Location {
	props := f.Properties
	if props == nil {
		props = geojson.Properties{}
	}

	loc := models.Location{
		ID:                   propertyID(props),
		DisplayName:          models.JoinNonEmpty(" ", props.MustString("name", ""), props.MustString("provider_brand_name", "")),
		AddressLines:         []string{props.MustString("address", "")},
		City:                 props.MustString("city", ""),
		State:                props.MustString("state", ""),
		PostalCode:           props.MustString("postal_code", ""),
		AppointmentAvailable: props.MustBool("appointments_available", false),
		ActionURL:            props.MustString("url", ""),
		ProviderName:         props.MustString("provider", ""),
	}

	if point, ok := f.Point(); ok {
		loc.Coordinates = models.Coordinates{Latitude: point.Lat(), Longitude: point.Lon()}
		loc.HasCoordinates = true
	}
	return loc
}

func propertyID(props geojson.Properties) string {
	switch v := props["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
