package quest

import (
	"strings"
	"testing"
	"time"
)

func TestCatalogCoversAllTemplates(t *testing.T) {
	catalog := Catalog()
	wanted := []string{
		"investigation", "gathering", "delivery", "protection",
		"evacuation", "extermination", "rebuilding", "memorial",
		"escort", "rescue",
	}
	for _, typ := range wanted {
		tpl, ok := catalog[typ]
		if !ok {
			t.Errorf("catalog missing %q", typ)
			continue
		}
		if tpl.Type != typ {
			t.Errorf("%q template carries type %q", typ, tpl.Type)
		}
		if tpl.Duration <= 0 {
			t.Errorf("%q has no duration", typ)
		}
		if len(tpl.Rewards) == 0 {
			t.Errorf("%q has no rewards", typ)
		}
	}
}

func TestExterminationRewards(t *testing.T) {
	tpl := Catalog()["extermination"]
	if tpl.Priority != PriorityCritical {
		t.Errorf("priority = %v, want critical", tpl.Priority)
	}
	if tpl.Rewards["experience"] != 500 {
		t.Errorf("experience = %v, want 500", tpl.Rewards["experience"])
	}
	if tpl.Rewards["legendary_item"] != true {
		t.Errorf("legendary_item = %v, want true", tpl.Rewards["legendary_item"])
	}
	if tpl.MaxParticipants != 4 {
		t.Errorf("max participants = %d, want 4", tpl.MaxParticipants)
	}
}

func TestInstantiateFillsSubjectAndExpiry(t *testing.T) {
	g := NewGenerator()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	op, ok := g.Instantiate("investigation", "Black Death", "disease_outbreak", "p1")
	if !ok {
		t.Fatal("known template not found")
	}
	if !strings.Contains(op.Title, "Black Death") {
		t.Errorf("title %q missing subject", op.Title)
	}
	if strings.Contains(op.Title, "{subject}") {
		t.Errorf("placeholder survived in %q", op.Title)
	}
	if op.QuestID == "" {
		t.Error("quest id not assigned")
	}
	if op.EntityID != "p1" || op.EventSource != "disease_outbreak" {
		t.Errorf("origin fields wrong: %+v", op)
	}
	if !op.ExpiresAt.Equal(fixed.Add(op.Duration)) {
		t.Errorf("expiry = %v, want created + duration", op.ExpiresAt)
	}

	if _, ok := g.Instantiate("heist", "x", "y", "z"); ok {
		t.Fatal("unknown template should not instantiate")
	}
}

func TestInstantiateUniqueIDs(t *testing.T) {
	g := NewGenerator()
	a, _ := g.Instantiate("gathering", "Marsh Fever", "disease_outbreak", "p1")
	b, _ := g.Instantiate("gathering", "Marsh Fever", "disease_outbreak", "p1")
	if a.QuestID == b.QuestID {
		t.Fatal("two instantiations share a quest id")
	}
}
