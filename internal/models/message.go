package models

import "time"

// MessageSegment is one unit of an outbound notification. The concrete
// types below are the only implementations.
type MessageSegment interface {
	segment()
}

// TitleSegment opens every message
type TitleSegment struct {
	Text string `json:"text"`
}

// LocationSegment describes one location with openings
type LocationSegment struct {
	Location Location `json:"location"`
}

// DividerSegment separates locations
type DividerSegment struct{}

// ActionSegment is a registration button
type ActionSegment struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// TimestampSegment is the "posted at" footer
type TimestampSegment struct {
	At time.Time `json:"at"` // already converted to the display time zone
}

func (TitleSegment) segment()     {}
func (LocationSegment) segment()  {}
func (DividerSegment) segment()   {}
func (ActionSegment) segment()    {}
func (TimestampSegment) segment() {}

// NotificationResult is what the notifier reports back for a single send
type NotificationResult struct {
	Success     bool   `json:"success"`
	ErrorDetail string `json:"error_detail,omitempty"`
	Channel     string `json:"channel,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"` // platform message timestamp on success
}
