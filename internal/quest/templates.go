// Package quest synthesizes quest opportunities from engine stage
// transitions and threshold crossings. Templates are a static catalog;
// instantiation fills in ids, expiry, and the originating entity.
package quest

import "time"

// Priority of a quest opportunity.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Template defines one reusable quest shape. Title may contain a
// {subject} placeholder filled at instantiation time.
type Template struct {
	Type            string
	Title           string
	Description     string
	Priority        Priority
	Rewards         map[string]any
	Requirements    []string
	Duration        time.Duration
	MaxParticipants int
}

// Catalog returns the full template set, keyed by type.
func Catalog() map[string]Template {
	return map[string]Template{
		"investigation": {
			Type:            "investigation",
			Title:           "Investigate {subject} Outbreak",
			Description:     "Reports of a mysterious illness have emerged. Investigate the source.",
			Priority:        PriorityMedium,
			Rewards:         map[string]any{"experience": 150, "reputation": 50, "gold": 100},
			Requirements:    []string{"investigation_skill", "medical_knowledge"},
			Duration:        72 * time.Hour,
			MaxParticipants: 2,
		},
		"gathering": {
			Type:            "gathering",
			Title:           "Gather Medicinal Supplies",
			Description:     "Gather herbs that might help treat the emerging outbreak.",
			Priority:        PriorityMedium,
			Rewards:         map[string]any{"experience": 100, "items": []string{"healing_potion", "herb_bundle"}, "gold": 75},
			Requirements:    []string{"herbalism", "foraging"},
			Duration:        48 * time.Hour,
			MaxParticipants: 4,
		},
		"delivery": {
			Type:            "delivery",
			Title:           "Emergency Medicine Delivery",
			Description:     "Rush medical supplies to contain the spreading outbreak.",
			Priority:        PriorityHigh,
			Rewards:         map[string]any{"experience": 200, "reputation": 100, "gold": 200},
			Requirements:    []string{"fast_travel", "disease_resistance"},
			Duration:        24 * time.Hour,
			MaxParticipants: 1,
		},
		"protection": {
			Type:            "protection",
			Title:           "Enforce Quarantine Measures",
			Description:     "Help enforce quarantine measures to prevent the disease from spreading further.",
			Priority:        PriorityHigh,
			Rewards:         map[string]any{"experience": 180, "reputation": 150, "gold": 150},
			Requirements:    []string{"combat_skill", "persuasion"},
			Duration:        96 * time.Hour,
			MaxParticipants: 3,
		},
		"evacuation": {
			Type:            "evacuation",
			Title:           "Emergency Evacuation",
			Description:     "Help evacuate healthy citizens from the devastated quarter.",
			Priority:        PriorityCritical,
			Rewards:         map[string]any{"experience": 300, "reputation": 200, "title": "Life Saver", "gold": 300},
			Requirements:    []string{"leadership", "logistics"},
			Duration:        48 * time.Hour,
			MaxParticipants: 5,
		},
		"extermination": {
			Type:            "extermination",
			Title:           "Eliminate {subject} Source",
			Description:     "Find and eliminate the source of the outbreak.",
			Priority:        PriorityCritical,
			Rewards:         map[string]any{"experience": 500, "reputation": 300, "legendary_item": true, "gold": 500},
			Requirements:    []string{"combat_skill", "magic_resistance", "disease_immunity"},
			Duration:        120 * time.Hour,
			MaxParticipants: 4,
		},
		"rebuilding": {
			Type:            "rebuilding",
			Title:           "Rebuild {subject}",
			Description:     "Help rebuild the community after the devastation.",
			Priority:        PriorityLow,
			Rewards:         map[string]any{"experience": 250, "reputation": 200, "property_deed": true, "gold": 200},
			Requirements:    []string{"crafting", "leadership", "resources"},
			Duration:        240 * time.Hour,
			MaxParticipants: 8,
		},
		"memorial": {
			Type:            "memorial",
			Title:           "Build Memorial for the Lost",
			Description:     "Build a memorial for those lost to the outbreak.",
			Priority:        PriorityLow,
			Rewards:         map[string]any{"experience": 150, "reputation": 100, "honor_points": 50, "gold": 100},
			Requirements:    []string{"crafting", "stone_working", "artistic_skill"},
			Duration:        168 * time.Hour,
			MaxParticipants: 6,
		},
		"escort": {
			Type:            "escort",
			Title:           "Escort Refugees",
			Description:     "See a column of refugees safely to shelter.",
			Priority:        PriorityHigh,
			Rewards:         map[string]any{"experience": 180, "reputation": 120, "gold": 150},
			Requirements:    []string{"combat_skill", "navigation"},
			Duration:        72 * time.Hour,
			MaxParticipants: 4,
		},
		"rescue": {
			Type:            "rescue",
			Title:           "Rescue Trapped Citizens",
			Description:     "Pull survivors from the rubble before it is too late.",
			Priority:        PriorityHigh,
			Rewards:         map[string]any{"experience": 250, "reputation": 180, "gold": 200},
			Requirements:    []string{"strength", "search_and_rescue"},
			Duration:        24 * time.Hour,
			MaxParticipants: 3,
		},
	}
}
