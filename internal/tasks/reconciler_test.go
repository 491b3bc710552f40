package tasks

import (
	"testing"

	"github.com/desertthunder/livesync/internal/services"
)

func member(handle, videoID string) services.MemberItem {
	return services.MemberItem{ID: handle, VideoID: videoID}
}

func live(videoID string) services.LiveItem {
	return services.LiveItem{VideoID: videoID, Title: "title-" + videoID}
}

func TestDiff(t *testing.T) {
	tc := []struct {
		name       string
		current    []services.MemberItem
		desired    []services.LiveItem
		wantAdd    []string
		wantRemove []string
	}{
		{
			name:       "both empty",
			wantAdd:    nil,
			wantRemove: nil,
		},
		{
			name:       "identical sets",
			current:    []services.MemberItem{member("h1", "v1")},
			desired:    []services.LiveItem{live("v1")},
			wantAdd:    nil,
			wantRemove: nil,
		},
		{
			name:       "all additions in desired order",
			current:    nil,
			desired:    []services.LiveItem{live("v1"), live("v2"), live("v3")},
			wantAdd:    []string{"v1", "v2", "v3"},
			wantRemove: nil,
		},
		{
			name:       "all removals in current order",
			current:    []services.MemberItem{member("h1", "v1"), member("h2", "v2")},
			desired:    nil,
			wantAdd:    nil,
			wantRemove: []string{"v1", "v2"},
		},
		{
			name:       "mixed",
			current:    []services.MemberItem{member("h1", "v1"), member("h2", "v2"), member("h3", "v3")},
			desired:    []services.LiveItem{live("v2"), live("v4")},
			wantAdd:    []string{"v4"},
			wantRemove: []string{"v1", "v3"},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			toAdd, toRemove := Diff(tt.current, tt.desired,
				func(m services.MemberItem) string { return m.VideoID },
				func(i services.LiveItem) string { return i.VideoID },
			)

			if len(toAdd) != len(tt.wantAdd) {
				t.Fatalf("toAdd: expected %v, got %+v", tt.wantAdd, toAdd)
			}
			for i, want := range tt.wantAdd {
				if toAdd[i].VideoID != want {
					t.Errorf("toAdd[%d]: expected %s, got %s", i, want, toAdd[i].VideoID)
				}
			}

			if len(toRemove) != len(tt.wantRemove) {
				t.Fatalf("toRemove: expected %v, got %+v", tt.wantRemove, toRemove)
			}
			for i, want := range tt.wantRemove {
				if toRemove[i].VideoID != want {
					t.Errorf("toRemove[%d]: expected %s, got %s", i, want, toRemove[i].VideoID)
				}
			}

			// No added key may exist in current, no removed key in desired.
			currentKeys := map[string]bool{}
			for _, c := range tt.current {
				currentKeys[c.VideoID] = true
			}
			for _, a := range toAdd {
				if currentKeys[a.VideoID] {
					t.Errorf("added key %s already present in current", a.VideoID)
				}
			}
			desiredKeys := map[string]bool{}
			for _, d := range tt.desired {
				desiredKeys[d.VideoID] = true
			}
			for _, r := range toRemove {
				if desiredKeys[r.VideoID] {
					t.Errorf("removed key %s still present in desired", r.VideoID)
				}
			}
		})
	}
}

func TestDiff_IgnoresNonKeyFields(t *testing.T) {
	current := []services.MemberItem{member("handle-a", "v1")}
	desired := []services.LiveItem{{VideoID: "v1", Title: "a completely different title"}}

	plan := BuildPlan(current, desired)
	if !plan.Empty() {
		t.Errorf("expected empty plan when keys match, got %+v", plan)
	}
}

func TestDiff_Idempotence(t *testing.T) {
	desired := []services.LiveItem{live("v1"), live("v2")}

	// After applying a plan the membership matches the desired set; a second
	// reconciliation must produce an empty plan.
	applied := []services.MemberItem{member("h1", "v1"), member("h2", "v2")}

	plan := BuildPlan(applied, desired)
	if !plan.Empty() {
		t.Errorf("expected empty plan on re-run, got %d adds %d removes", len(plan.ToAdd), len(plan.ToRemove))
	}
}

func TestDedupeLive(t *testing.T) {
	items := []services.LiveItem{
		{VideoID: "v1", ChannelID: "UCa"},
		{VideoID: "v2", ChannelID: "UCa"},
		{VideoID: "v1", ChannelID: "UCb"},
		{VideoID: "v3", ChannelID: "UCb"},
	}

	out := dedupeLive(items)
	if len(out) != 3 {
		t.Fatalf("expected 3 unique items, got %d", len(out))
	}

	// First-seen wins, discovery order preserved.
	if out[0].VideoID != "v1" || out[0].ChannelID != "UCa" {
		t.Errorf("expected first occurrence of v1 kept, got %+v", out[0])
	}
	if out[1].VideoID != "v2" || out[2].VideoID != "v3" {
		t.Errorf("expected order preserved, got %+v", out)
	}
}
