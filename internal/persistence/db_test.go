package persistence

import (
	"path/filepath"
	"testing"

	"github.com/talgya/impactsim/internal/disease"
	"github.com/talgya/impactsim/internal/economy"
	"github.com/talgya/impactsim/internal/sim"
	"github.com/talgya/impactsim/internal/war"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	db := openTestDB(t)

	diseases := disease.NewEngine()
	wars := war.NewEngine(war.WithRand(sim.NewRand(1)))
	economies := economy.NewEngine(economy.WithRand(sim.NewRand(2)))

	if _, err := diseases.Introduce("s1", disease.Plague, 25, sim.EnvironmentalFactors{}); err != nil {
		t.Fatalf("Introduce: %v", err)
	}
	scenario, err := wars.CreateScenario("border war", []string{"s2"}, 0.5, 30)
	if err != nil {
		t.Fatalf("CreateScenario: %v", err)
	}
	if _, err := economies.CreateTradeRoute("s1", "s2", []string{"food"}, 100, "safe"); err != nil {
		t.Fatalf("CreateTradeRoute: %v", err)
	}

	if err := db.SaveAll(diseases, wars, economies, 17); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	d2 := disease.NewEngine()
	w2 := war.NewEngine()
	e2 := economy.NewEngine()
	if err := db.RestoreAll(d2, w2, e2); err != nil {
		t.Fatalf("RestoreAll: %v", err)
	}

	if got := d2.Status("s1"); !got.HasDiseases || got.Outbreaks[0].InfectedCount != 25 {
		t.Errorf("restored disease state wrong: %+v", got)
	}
	if got, err := w2.ScenarioStatus(scenario.ID); err != nil || !got.Active {
		t.Errorf("restored war state wrong: %+v, %v", got, err)
	}
	if got := e2.State("s1"); got.RouteCount != 1 {
		t.Errorf("restored economy state wrong: %+v", got)
	}

	day, err := db.GetMeta("last_day")
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if day != "17" {
		t.Errorf("last_day = %q, want 17", day)
	}
}

func TestRestoreFreshDatabaseIsNoOp(t *testing.T) {
	db := openTestDB(t)

	diseases := disease.NewEngine()
	wars := war.NewEngine()
	economies := economy.NewEngine()

	if err := db.RestoreAll(diseases, wars, economies); err != nil {
		t.Fatalf("RestoreAll on empty db: %v", err)
	}
	if diseases.Status("anything").HasDiseases {
		t.Error("fresh restore invented outbreaks")
	}
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	db := openTestDB(t)

	diseases := disease.NewEngine()
	wars := war.NewEngine()
	economies := economy.NewEngine()

	if _, err := diseases.Introduce("s1", disease.Fever, 10, sim.EnvironmentalFactors{}); err != nil {
		t.Fatalf("Introduce: %v", err)
	}
	if err := db.SaveAll(diseases, wars, economies, 1); err != nil {
		t.Fatalf("SaveAll day 1: %v", err)
	}

	if err := diseases.EndOutbreak("s1", disease.Fever); err != nil {
		t.Fatalf("EndOutbreak: %v", err)
	}
	if err := db.SaveAll(diseases, wars, economies, 2); err != nil {
		t.Fatalf("SaveAll day 2: %v", err)
	}

	restored := disease.NewEngine()
	if err := db.RestoreAll(restored, war.NewEngine(), economy.NewEngine()); err != nil {
		t.Fatalf("RestoreAll: %v", err)
	}
	if restored.Status("s1").HasDiseases {
		t.Error("stale snapshot survived overwrite")
	}
}

func TestEventLog(t *testing.T) {
	db := openTestDB(t)

	entries := []LogEntry{
		{Day: 1, EntityID: "s1", Category: "disease", Description: "plague emerges"},
		{Day: 2, EntityID: "s1", Category: "war", Description: "siege begins"},
		{Day: 3, EntityID: "s2", Category: "economy", Description: "trade route blocked"},
	}
	if err := db.AppendEvents(entries); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}
	if err := db.AppendEvents(nil); err != nil {
		t.Fatalf("AppendEvents(nil): %v", err)
	}

	recent, err := db.RecentEvents(2)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d entries, want 2", len(recent))
	}
	if recent[0].Day != 3 {
		t.Errorf("newest entry day = %d, want 3", recent[0].Day)
	}
}
