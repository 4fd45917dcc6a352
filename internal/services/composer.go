package services

import (
	"time"

	"vaccine-availability-notifier/internal/models"
)

// ComposeMessage lays out the notification for a non-empty list of openings.
//
// Shared-action style:       Title, (Location, Divider)*, Timestamp, Action
// Per-location-action style: Title, (Location, Action, Divider)*, Timestamp
//
// The timestamp is converted to tz. An empty list yields nil.
func ComposeMessage(openings []models.Location, style MessageStyle, now time.Time, tz *time.Location) []models.MessageSegment {
	if len(openings) == 0 {
		return nil
	}
	if tz == nil {
		tz = time.UTC
	}

	label := style.ActionLabel
	if label == "" {
		label = defaultActionLabel
	}

	segments := make([]models.MessageSegment, 0, 3+3*len(openings))
	segments = append(segments, models.TitleSegment{Text: style.Title})

	for _, loc := range openings {
		segments = append(segments, models.LocationSegment{Location: loc})
		if style.PerLocationAction {
			segments = append(segments, models.ActionSegment{Label: label, URL: loc.ActionURL})
		}
		segments = append(segments, models.DividerSegment{})
	}

	segments = append(segments, models.TimestampSegment{At: now.In(tz)})

	if !style.PerLocationAction && style.SharedActionURL != "" {
		segments = append(segments, models.ActionSegment{Label: label, URL: style.SharedActionURL})
	}
	return segments
}
