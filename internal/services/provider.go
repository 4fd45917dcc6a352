package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"vaccine-availability-notifier/internal/models"
)

// LocationProvider is one upstream availability source
type LocationProvider interface {
	// Name is the short provider tag used in logs, keys and exclusions
	Name() string
	// Fetch performs exactly one outbound request and returns normalized
	// locations in upstream order. Failures are *TransportError.
	Fetch(ctx context.Context, req models.SearchRequest) ([]models.Location, error)
	// Policy says how Fetch results must be filtered
	Policy() FilterPolicy
	// Style says how openings from this provider are rendered
	Style() MessageStyle
}

// FilterPolicy controls the client-side filtering applied to a provider's results
type FilterPolicy struct {
	ClientSideRadius  bool     // provider ignores the search radius
	ExcludedProviders []string // provider tags dropped before the radius check
}

// MessageStyle controls how the composer lays out a provider's message
type MessageStyle struct {
	Title             string
	PerLocationAction bool   // one button per location using Location.ActionURL
	SharedActionURL   string // single button after the footer when not per-location
	ActionLabel       string
}

const (
	defaultActionLabel = "Register Now"
	titleHeadline      = ":alert: <!here> *Vaccines Available* :alert:"
)

// TransportError reports a failed fetch: network failure, non-2xx status or
// an undecodable body.
type TransportError struct {
	Provider   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s fetch failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s fetch failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			IdleConnTimeout: 90 * time.Second,
		},
	}
}

const userAgent = "vaccine-availability-notifier/1.0"
