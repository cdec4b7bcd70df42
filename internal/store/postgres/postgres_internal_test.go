package postgres

import (
	"strings"
	"testing"

	"jobtracker/tracker-service/internal/kanban"
)

func TestSelectColumnsMatchScanTargets(t *testing.T) {
	cols := strings.Split(selectColumns, ",")
	var a kanban.Application
	if got, want := len(cols), len(scanTargets(&a)); got != want {
		t.Errorf("selectColumns has %d columns, scanTargets has %d", got, want)
	}
}

func TestHistoryNeverNil(t *testing.T) {
	if history(nil) == nil {
		t.Error("history(nil) returned nil")
	}
	h := []kanban.StatusChange{{From: kanban.StatusApplied, To: kanban.StatusOffer}}
	if got := history(h); len(got) != 1 {
		t.Errorf("history dropped entries: %v", got)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	var up, down int
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			up++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			down++
		}
	}
	if up == 0 || up != down {
		t.Errorf("found %d up and %d down migrations", up, down)
	}
}
