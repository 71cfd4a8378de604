package fyp

import (
	"context"
	"testing"
	"time"

	"github.com/simosa/fyp/internal/content"
)

func TestStaticInterests(t *testing.T) {
	got := StaticInterests{}.Interests(context.Background(), Signals{})
	if len(got) != 2 || got[0] != "viral" || got[1] != "trending" {
		t.Errorf("expected default interests, got %v", got)
	}

	// Callers may modify the result without touching the defaults.
	got[0] = "changed"
	if DefaultInterests[0] != "viral" {
		t.Error("default interests mutated through returned slice")
	}

	custom := StaticInterests{Tags: []string{"cooking"}}.Interests(context.Background(), Signals{})
	if len(custom) != 1 || custom[0] != "cooking" {
		t.Errorf("expected custom interests, got %v", custom)
	}
}

func TestHistoryInterests(t *testing.T) {
	f := newFakeStore()
	f.PutItem(item("v1", "c1", time.Hour, "dance", "music"))
	f.PutItem(item("v2", "c2", time.Hour, "music", "comedy"))
	f.PutItem(item("v3", "c3", time.Hour, "comedy", "music"))
	f.PutItem(item("v4", "c4", time.Hour, "dance"))
	f.PutItem(item("v5", "c5", time.Hour))

	signals := Signals{
		UserID: "u1",
		Behavior: []content.Behavior{
			view("u1", "v1", testNow),
			view("u1", "v2", testNow),
			{UserID: "u1", ItemID: "v4", Action: content.ActionShare, CreatedAt: testNow},
			view("u1", "v1", testNow),
		},
		Likes: []string{"v3", "v2"},
	}

	tests := []struct {
		name string
		topN int
		want []string
	}{
		// music=3, dance=1, comedy=2; ties keep first-seen order.
		{"ranked by frequency", 5, []string{"music", "comedy", "dance"}},
		{"top two", 2, []string{"music", "comedy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := HistoryInterests{Lookup: f, TopN: tt.topN, Logger: discardLogger()}
			got := h.Interests(context.Background(), signals)
			if len(got) != len(tt.want) {
				t.Fatalf("Interests() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Interests() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestHistoryInterests_Fallback(t *testing.T) {
	f := newFakeStore()
	f.PutItem(item("untagged", "c1", time.Hour))

	tests := []struct {
		name    string
		lookup  ContentLookup
		signals Signals
	}{
		{"no history", f, Signals{UserID: "u1"}},
		{"no lookup", nil, Signals{UserID: "u1", Likes: []string{"untagged"}}},
		{"untagged history", f, Signals{UserID: "u1", Likes: []string{"untagged"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := HistoryInterests{Lookup: tt.lookup, Logger: discardLogger()}
			got := h.Interests(context.Background(), tt.signals)
			if len(got) != 2 || got[0] != "viral" {
				t.Errorf("expected fallback interests, got %v", got)
			}
		})
	}

	t.Run("lookup error", func(t *testing.T) {
		failing := newFakeStore()
		failing.fail(opContentByIDs, errDown)
		h := HistoryInterests{
			Lookup:   failing,
			Fallback: StaticInterests{Tags: []string{"backup"}},
			Logger:   discardLogger(),
		}
		got := h.Interests(context.Background(), Signals{Likes: []string{"v1"}})
		if len(got) != 1 || got[0] != "backup" {
			t.Errorf("expected configured fallback, got %v", got)
		}
	})
}

func TestActionCounter(t *testing.T) {
	pattern := ActionCounter{}.Analyze([]content.Behavior{
		{Action: content.ActionView},
		{Action: content.ActionView},
		{Action: content.ActionComment},
	})
	if pattern.ActionCounts[content.ActionView] != 2 || pattern.ActionCounts[content.ActionComment] != 1 {
		t.Errorf("unexpected counts: %v", pattern.ActionCounts)
	}
	if len(ActionCounter{}.Analyze(nil).ActionCounts) != 0 {
		t.Error("expected no counts for empty behavior")
	}
}
