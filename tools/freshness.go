package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/scoutmind/scout-go-sdk/core"
)

// Release is one known major release of a technology.
type Release struct {
	Version string
	Date    time.Time
}

// ReleaseFeed maps a technology family to its known major releases. The
// feed is external data, not a design constant: production deployments
// refresh it from a release-tracking source and swap it in with SetFeed.
type ReleaseFeed map[string][]Release

// Freshness checks topics against a release feed and a fixed model
// knowledge cutoff. A major release after the cutoff means the model's
// prior on that technology is likely stale.
type Freshness struct {
	mu     sync.RWMutex
	feed   ReleaseFeed
	cutoff time.Time
}

// NewFreshness creates a freshness provider. A nil feed starts with the
// built-in snapshot.
func NewFreshness(feed ReleaseFeed, modelCutoff time.Time) *Freshness {
	if feed == nil {
		feed = defaultReleaseFeed()
	}
	if modelCutoff.IsZero() {
		modelCutoff = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	}
	return &Freshness{feed: feed, cutoff: modelCutoff}
}

// SetFeed replaces the release feed. Safe to call while checks run.
func (f *Freshness) SetFeed(feed ReleaseFeed) {
	f.mu.Lock()
	f.feed = feed
	f.mu.Unlock()
}

// CheckFreshness scans the feed for a technology family mentioned in the
// topic with a release newer than the model cutoff.
func (f *Freshness) CheckFreshness(ctx context.Context, topic string) (core.FreshnessEvidence, error) {
	if err := ctx.Err(); err != nil {
		return core.FreshnessEvidence{}, err
	}

	f.mu.RLock()
	feed := f.feed
	cutoff := f.cutoff
	f.mu.RUnlock()

	lowered := strings.ToLower(topic)
	for family, releases := range feed {
		if !strings.Contains(lowered, family) {
			continue
		}
		var latest *Release
		for i := range releases {
			if releases[i].Date.After(cutoff) {
				if latest == nil || releases[i].Date.After(latest.Date) {
					latest = &releases[i]
				}
			}
		}
		if latest != nil {
			return core.FreshnessEvidence{
				IsLikelyOutdated:   true,
				Reason:             fmt.Sprintf("Major release %s on %s after model cutoff", latest.Version, latest.Date.Format("2006-01-02")),
				LatestKnownVersion: latest.Version,
				ReleaseDate:        latest.Date.Format("2006-01-02"),
			}, nil
		}
		break
	}

	return core.FreshnessEvidence{
		IsLikelyOutdated: false,
		Reason:           "No known major releases post-cutoff",
	}, nil
}

// defaultReleaseFeed is the built-in snapshot used when no external feed
// is wired. Dates are release announcements, UTC.
func defaultReleaseFeed() ReleaseFeed {
	d := func(y, m, day int) time.Time { return time.Date(y, time.Month(m), day, 0, 0, 0, 0, time.UTC) }
	return ReleaseFeed{
		"redis": {
			{Version: "7", Date: d(2022, 4, 27)},
			{Version: "7.2", Date: d(2023, 8, 1)},
			{Version: "7.4", Date: d(2024, 7, 1)},
		},
		"postgresql": {
			{Version: "15", Date: d(2022, 10, 13)},
			{Version: "16", Date: d(2023, 9, 14)},
			{Version: "17", Date: d(2024, 9, 26)},
		},
		"typescript": {
			{Version: "5.0", Date: d(2023, 3, 16)},
			{Version: "5.4", Date: d(2024, 3, 6)},
			{Version: "5.5", Date: d(2024, 6, 20)},
			{Version: "5.7", Date: d(2024, 11, 22)},
		},
		"docker": {
			{Version: "24", Date: d(2023, 7, 1)},
			{Version: "25", Date: d(2024, 1, 19)},
			{Version: "27", Date: d(2024, 6, 27)},
		},
		"kubernetes": {
			{Version: "1.28", Date: d(2023, 8, 15)},
			{Version: "1.29", Date: d(2023, 12, 13)},
			{Version: "1.30", Date: d(2024, 4, 17)},
			{Version: "1.31", Date: d(2024, 8, 13)},
		},
		"python": {
			{Version: "3.11", Date: d(2022, 10, 24)},
			{Version: "3.12", Date: d(2023, 10, 2)},
			{Version: "3.13", Date: d(2024, 10, 7)},
		},
	}
}
