package services

import (
	"fmt"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaccine-availability-notifier/internal/models"
)

func segmentKinds(segments []models.MessageSegment) []string {
	kinds := make([]string, 0, len(segments))
	for _, s := range segments {
		switch s.(type) {
		case models.TitleSegment:
			kinds = append(kinds, "title")
		case models.LocationSegment:
			kinds = append(kinds, "location")
		case models.DividerSegment:
			kinds = append(kinds, "divider")
		case models.ActionSegment:
			kinds = append(kinds, "action")
		case models.TimestampSegment:
			kinds = append(kinds, "timestamp")
		default:
			kinds = append(kinds, fmt.Sprintf("%T", s))
		}
	}
	return kinds
}

func countKind(kinds []string, kind string) int {
	n := 0
	for _, k := range kinds {
		if k == kind {
			n++
		}
	}
	return n
}

var (
	sharedStyle      = MessageStyle{Title: "title", SharedActionURL: "https://example.com/register", ActionLabel: "Register Now"}
	perLocationStyle = MessageStyle{Title: "title", PerLocationAction: true, ActionLabel: "Register Now"}
	chicago, _       = time.LoadLocation("America/Chicago")
	fixedNow         = time.Date(2021, 3, 15, 19, 30, 5, 0, time.UTC)
)

func TestComposeMessage_SharedActionLayout(t *testing.T) {
	openings := []models.Location{loc("a", "hyvee", 0, 0, true), loc("b", "hyvee", 0, 0, true)}

	segments := ComposeMessage(openings, sharedStyle, fixedNow, chicago)
	assert.Equal(t,
		[]string{"title", "location", "divider", "location", "divider", "timestamp", "action"},
		segmentKinds(segments))

	action := segments[len(segments)-1].(models.ActionSegment)
	assert.Equal(t, "https://example.com/register", action.URL)
	assert.Equal(t, "Register Now", action.Label)
}

func TestComposeMessage_PerLocationLayout(t *testing.T) {
	openings := []models.Location{loc("near", "walgreens", 0, 0, true)}

	segments := ComposeMessage(openings, perLocationStyle, fixedNow, chicago)
	assert.Equal(t, []string{"title", "location", "action", "divider", "timestamp"}, segmentKinds(segments))

	action := segments[2].(models.ActionSegment)
	assert.Equal(t, "https://example.com/near", action.URL)
}

func TestComposeMessage_SegmentCounts(t *testing.T) {
	for n := 1; n <= 6; n++ {
		openings := make([]models.Location, 0, n)
		for i := 0; i < n; i++ {
			openings = append(openings, loc(fmt.Sprint(i), "cvs", 0, 0, true))
		}

		shared := segmentKinds(ComposeMessage(openings, sharedStyle, fixedNow, chicago))
		assert.Equal(t, 1, countKind(shared, "title"))
		assert.Equal(t, n, countKind(shared, "location"))
		assert.Equal(t, n, countKind(shared, "divider"))
		assert.Equal(t, 1, countKind(shared, "action"))
		assert.Equal(t, 1, countKind(shared, "timestamp"))

		perLocation := segmentKinds(ComposeMessage(openings, perLocationStyle, fixedNow, chicago))
		assert.Equal(t, 1, countKind(perLocation, "title"))
		assert.Equal(t, n, countKind(perLocation, "location"))
		assert.Equal(t, n, countKind(perLocation, "divider"))
		assert.Equal(t, n, countKind(perLocation, "action"))
		assert.Equal(t, 1, countKind(perLocation, "timestamp"))
	}
}

func TestComposeMessage_TimestampZone(t *testing.T) {
	segments := ComposeMessage([]models.Location{loc("a", "cvs", 0, 0, true)}, perLocationStyle, fixedNow, chicago)

	ts := segments[len(segments)-1].(models.TimestampSegment)
	assert.True(t, ts.At.Equal(fixedNow))
	assert.Equal(t, "America/Chicago", ts.At.Location().String())
	assert.Equal(t, 14, ts.At.Hour())
}

func TestComposeMessage_Empty(t *testing.T) {
	assert.Nil(t, ComposeMessage(nil, sharedStyle, fixedNow, chicago))
}

func TestComposeMessage_DefaultsLabelAndZone(t *testing.T) {
	segments := ComposeMessage([]models.Location{loc("a", "cvs", 0, 0, true)}, MessageStyle{PerLocationAction: true}, fixedNow, nil)
	require.Len(t, segments, 5)

	assert.Equal(t, "Register Now", segments[2].(models.ActionSegment).Label)
	assert.Equal(t, time.UTC, segments[4].(models.TimestampSegment).At.Location())
}
