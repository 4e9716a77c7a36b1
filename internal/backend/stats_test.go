package backend

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/five82/sieve/internal/feed"
)

// newStatsStore extends the shared seed with a read video, a categorized
// video and a creator with no videos.
func newStatsStore(t *testing.T) *Store {
	t.Helper()
	store := newTestStore(t)
	ctx := context.Background()
	if _, err := store.SetState(ctx, "a2", feed.StateRead); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	extra := Seed{
		Creators: []feed.Creator{{UID: 6, AuthorName: "erin", Enabled: true, Weight: 1}},
		Videos: []feed.Video{
			{ID: "a3", UID: 1, Title: "Talk", PubTS: hoursAgo(10), URL: "https://v/a3", TName: "Tech"},
		},
	}
	if err := store.Import(ctx, extra); err != nil {
		t.Fatalf("Import: %v", err)
	}
	return store
}

func TestStatsOverview(t *testing.T) {
	store := newStatsStore(t)

	got, err := store.StatsOverview(context.Background(), 0)
	if err != nil {
		t.Fatalf("StatsOverview: %v", err)
	}
	want := feed.StatsOverview{
		WindowDays:       7,
		TotalCreators:    5,
		EnabledCreators:  4,
		PriorityCreators: 1,
		VideosInWindow:   7,
		HiddenInWindow:   1,
		ReadInWindow:     1,
		TopTNames:        []feed.TNameCount{{TName: uncategorized, Count: 6}, {TName: "Tech", Count: 1}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("overview = %+v\nwant %+v", got, want)
	}
}

func TestStatsOverviewWindow(t *testing.T) {
	store := newStatsStore(t)

	got, err := store.StatsOverview(context.Background(), 1)
	if err != nil {
		t.Fatalf("StatsOverview: %v", err)
	}
	// d1 is 30 hours old.
	if got.WindowDays != 1 || got.VideosInWindow != 6 {
		t.Fatalf("overview = %+v, want 6 videos in 1 day", got)
	}

	if _, err := store.StatsOverview(context.Background(), 4000); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestCreatorStats(t *testing.T) {
	store := newStatsStore(t)

	stats, err := store.CreatorStats(context.Background(), feed.StatsQuery{})
	if err != nil {
		t.Fatalf("CreatorStats: %v", err)
	}
	var order []int64
	for _, st := range stats {
		order = append(order, st.UID)
	}
	if !reflect.DeepEqual(order, []int64{2, 1, 4, 6, 3}) {
		t.Fatalf("order = %v", order)
	}

	alice := stats[1]
	if alice.VideosInWindow != 3 || alice.ReadCount != 1 || alice.HiddenCount != 0 {
		t.Fatalf("alice = %+v", alice)
	}
	if alice.LastPubTS == nil || *alice.LastPubTS != hoursAgo(1) || *alice.FreshnessHours != 1 {
		t.Fatalf("alice last pub = %v freshness = %v", alice.LastPubTS, alice.FreshnessHours)
	}
	wantMix := []feed.TNameCount{{TName: uncategorized, Count: 2}, {TName: "Tech", Count: 1}}
	if !reflect.DeepEqual(alice.TNameMix, wantMix) || alice.Hint != "" {
		t.Fatalf("alice mix = %+v hint = %q", alice.TNameMix, alice.Hint)
	}

	// The hidden d2 is newer than d3 but does not count as published.
	dave := stats[2]
	if dave.HiddenCount != 1 || dave.VideosInWindow != 2 || *dave.LastPubTS != hoursAgo(6) {
		t.Fatalf("dave = %+v", dave)
	}

	if erin := stats[3]; erin.LastPubTS != nil || erin.FreshnessHours != nil || erin.Hint != "no visible videos" {
		t.Fatalf("erin = %+v", erin)
	}
	if carol := stats[4]; carol.Hint != "disabled" {
		t.Fatalf("carol hint = %q", carol.Hint)
	}
}

func TestCreatorStatsLimits(t *testing.T) {
	store := newStatsStore(t)
	ctx := context.Background()

	stats, err := store.CreatorStats(ctx, feed.StatsQuery{Limit: 2})
	if err != nil {
		t.Fatalf("CreatorStats: %v", err)
	}
	if len(stats) != 2 || stats[0].UID != 2 {
		t.Fatalf("stats = %+v", stats)
	}

	for _, q := range []feed.StatsQuery{{Limit: 3000}, {Limit: -1}, {Days: -2}} {
		if _, err := store.CreatorStats(ctx, q); !errors.Is(err, ErrInvalid) {
			t.Errorf("CreatorStats(%+v) err = %v, want ErrInvalid", q, err)
		}
	}
}

func TestCreatorHint(t *testing.T) {
	ts := int64(1)
	tests := []struct {
		name string
		stat feed.CreatorStat
		want string
	}{
		{"disabled wins", feed.CreatorStat{Enabled: false, LastPubTS: &ts, VideosInWindow: 4}, "disabled"},
		{"never published", feed.CreatorStat{Enabled: true}, "no visible videos"},
		{"quiet", feed.CreatorStat{Enabled: true, LastPubTS: &ts}, "nothing new in 7 days"},
		{"active", feed.CreatorStat{Enabled: true, LastPubTS: &ts, VideosInWindow: 1}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := creatorHint(tt.stat, 7); got != tt.want {
				t.Fatalf("creatorHint = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatsEndpoints(t *testing.T) {
	client, srv := newTestAPI(t)
	ctx := context.Background()

	overview, err := client.FetchStatsOverview(ctx, feed.StatsQuery{Days: 1})
	if err != nil {
		t.Fatalf("FetchStatsOverview: %v", err)
	}
	if overview.WindowDays != 1 || overview.TotalCreators != 4 || overview.VideosInWindow != 5 {
		t.Fatalf("overview = %+v", overview)
	}

	stats, err := client.FetchCreatorStats(ctx, feed.StatsQuery{Days: 7, Limit: 1})
	if err != nil {
		t.Fatalf("FetchCreatorStats: %v", err)
	}
	if len(stats) != 1 || stats[0].UID != 2 || stats[0].DisplayName() != "bob" {
		t.Fatalf("stats = %+v", stats)
	}

	for _, path := range []string{"/api/stats/overview?days=0x", "/api/stats/creators?limit=9999"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("GET %s = %d, want 422", path, resp.StatusCode)
		}
	}
}
