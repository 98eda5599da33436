package scheduler

import (
	"testing"
	"time"

	"github.com/manawire-project/manawire/internal/config"
)

func TestNextRun(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		at   string
		want time.Time
	}{
		{"13:00", time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)},
		{"04:00", time.Date(2026, 3, 11, 4, 0, 0, 0, time.UTC)},
		{"12:30", time.Date(2026, 3, 11, 12, 30, 0, 0, time.UTC)},
		{"garbage", time.Date(2026, 3, 11, 4, 0, 0, 0, time.UTC)},
		{"25:00", time.Date(2026, 3, 11, 4, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := NextRun(base, tt.at); !got.Equal(tt.want) {
			t.Errorf("NextRun(%q) = %v, want %v", tt.at, got, tt.want)
		}
	}
}

type fakePruner struct{ retention time.Duration }

func (f *fakePruner) Prune(d time.Duration) (int64, error) {
	f.retention = d
	return 3, nil
}

func TestPruneJournalUsesRetention(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Journal.RetentionDays = 3
	p := &fakePruner{}

	NewScheduler(cfg, p, nil).PruneJournal()
	if p.retention != 72*time.Hour {
		t.Errorf("retention = %v, want 72h", p.retention)
	}
}
