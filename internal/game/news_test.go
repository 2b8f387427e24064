package game

import (
	"fmt"
	"testing"
	"time"
)

func TestNewsFeedRetentionCap(t *testing.T) {
	feed := &newsFeed{}
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		feed.post(fmt.Sprintf("headline %d", i), "", 5, now.Add(time.Duration(i)*time.Minute))
	}
	if len(feed.Items) != 5 {
		t.Fatalf("feed holds %d items, want 5", len(feed.Items))
	}
	if feed.Items[0].Headline != "headline 3" {
		t.Fatalf("oldest surviving headline = %q, want headline 3", feed.Items[0].Headline)
	}
	if feed.Items[4].Headline != "headline 7" {
		t.Fatalf("newest headline = %q, want headline 7", feed.Items[4].Headline)
	}
}

func TestNewsFeedRecentLimit(t *testing.T) {
	feed := &newsFeed{}
	now := time.Now()
	for i := 0; i < 4; i++ {
		feed.post(fmt.Sprintf("headline %d", i), "body", 0, now)
	}

	got := feed.recent(2)
	if len(got) != 2 || got[0].Headline != "headline 2" || got[1].Headline != "headline 3" {
		t.Fatalf("recent(2) = %v, want the two newest items", got)
	}
	if got := feed.recent(0); len(got) != 4 {
		t.Fatalf("recent(0) returned %d items, want all 4", len(got))
	}
	if got := feed.recent(99); len(got) != 4 {
		t.Fatalf("recent(99) returned %d items, want all 4", len(got))
	}
}

func TestNewsFeedSanitizesInput(t *testing.T) {
	feed := &newsFeed{}
	item := feed.post("pirates\x1b strike", "all\x00\thands", 0, time.Now())
	if item.Headline != "pirates strike" {
		t.Fatalf("headline = %q, want control bytes stripped", item.Headline)
	}
	if item.Body != "all hands" {
		t.Fatalf("body = %q, want control bytes stripped and tab folded", item.Body)
	}
}

func TestClaimPlanetMakesHeadlines(t *testing.T) {
	w := newTestWorld(t)
	before := len(w.News(0))

	c := seedTestCommander(t, w, "Corsair")
	c.Credits = 1000
	if _, err := w.Warp(c.Name, "Rustbelt"); err != nil {
		t.Fatalf("Warp returned error: %v", err)
	}
	if _, err := w.ClaimPlanet(c.Name); err != nil {
		t.Fatalf("ClaimPlanet returned error: %v", err)
	}

	after := w.News(0)
	if len(after) <= before {
		t.Fatalf("claim posted no news: %d -> %d items", before, len(after))
	}
	latest := after[len(after)-1]
	if latest.Headline != "Corsair claims Rustbelt" {
		t.Fatalf("headline = %q, want Corsair claims Rustbelt", latest.Headline)
	}
}
