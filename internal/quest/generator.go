package quest

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Opportunity is one instantiated quest, ready for the quest sink.
type Opportunity struct {
	QuestID         string         `json:"quest_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Type            string         `json:"type"`
	Priority        Priority       `json:"priority"`
	Rewards         map[string]any `json:"rewards"`
	Requirements    []string       `json:"requirements"`
	Duration        time.Duration  `json:"duration"`
	MaxParticipants int            `json:"max_participants"`
	EventSource     string         `json:"event_source"`
	EntityID        string         `json:"entity_id"`
	CreatedAt       time.Time      `json:"created_at"`
	ExpiresAt       time.Time      `json:"expires_at"`
}

// Sink receives instantiated opportunities. The default is NopSink; a
// real sink is chosen at engine construction time, never discovered at
// import time.
type Sink interface {
	Offer(op Opportunity)
}

// NopSink discards every opportunity.
type NopSink struct{}

func (NopSink) Offer(Opportunity) {}

// Generator instantiates templates from the catalog.
type Generator struct {
	catalog map[string]Template
	now     func() time.Time
}

// NewGenerator builds a Generator over the static catalog.
func NewGenerator() *Generator {
	return &Generator{catalog: Catalog(), now: time.Now}
}

// Instantiate fills a template into a concrete Opportunity. subject
// replaces the {subject} placeholder in the title; eventSource tags the
// coarse origin ("disease_outbreak", "war_impact", ...); entityID is the
// population or settlement the quest belongs to. Returns false for an
// unknown template type.
func (g *Generator) Instantiate(templateType, subject, eventSource, entityID string) (Opportunity, bool) {
	tpl, ok := g.catalog[templateType]
	if !ok {
		return Opportunity{}, false
	}
	now := g.now()
	return Opportunity{
		QuestID:         uuid.NewString(),
		Title:           strings.ReplaceAll(tpl.Title, "{subject}", subject),
		Description:     tpl.Description,
		Type:            tpl.Type,
		Priority:        tpl.Priority,
		Rewards:         tpl.Rewards,
		Requirements:    tpl.Requirements,
		Duration:        tpl.Duration,
		MaxParticipants: tpl.MaxParticipants,
		EventSource:     eventSource,
		EntityID:        entityID,
		CreatedAt:       now,
		ExpiresAt:       now.Add(tpl.Duration),
	}, true
}
