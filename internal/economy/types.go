// Package economy models settlement prosperity: resource scarcity,
// trade routes, timed economic events, and the daily prosperity drift
// that feeds population growth elsewhere.
package economy

import (
	"time"

	"github.com/talgya/impactsim/internal/sim"
)

// Status is derived from prosperity level on every read; it is never
// stored separately.
type Status string

const (
	StatusBooming    Status = "booming"
	StatusProsperous Status = "prosperous"
	StatusStable     Status = "stable"
	StatusStruggling Status = "struggling"
	StatusDeclining  Status = "declining"
	StatusDepressed  Status = "depressed"
	StatusCollapsed  Status = "collapsed"
)

// StatusFor maps a prosperity level in [-1, 1] to its band.
func StatusFor(prosperity float64) Status {
	switch {
	case prosperity >= 0.8:
		return StatusBooming
	case prosperity >= 0.5:
		return StatusProsperous
	case prosperity >= 0.2:
		return StatusStable
	case prosperity >= -0.2:
		return StatusStruggling
	case prosperity >= -0.5:
		return StatusDeclining
	case prosperity >= -0.8:
		return StatusDepressed
	default:
		return StatusCollapsed
	}
}

// ResourceType enumerates tracked resources.
type ResourceType string

const (
	ResourceFood        ResourceType = "food"
	ResourceWater       ResourceType = "water"
	ResourceTimber      ResourceType = "timber"
	ResourceStone       ResourceType = "stone"
	ResourceIron        ResourceType = "iron"
	ResourceLuxuryGoods ResourceType = "luxury_goods"
	ResourceTools       ResourceType = "tools"
	ResourceMedicine    ResourceType = "medicine"
)

// ResourceTypes lists every tracked resource.
func ResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceFood, ResourceWater, ResourceTimber, ResourceStone,
		ResourceIron, ResourceLuxuryGoods, ResourceTools, ResourceMedicine,
	}
}

// ParseResourceType validates a resource type string.
func ParseResourceType(s string) (ResourceType, error) {
	for _, rt := range ResourceTypes() {
		if string(rt) == s {
			return rt, nil
		}
	}
	return "", sim.Invalidf("resource_type", s, "unknown resource")
}

// ResourceAvailability tracks one resource in one settlement. Scarcity
// runs 0 (abundant) to 1 (gone); the price modifier follows it
// directly.
type ResourceAvailability struct {
	Type            ResourceType `json:"type"`
	ScarcityLevel   float64      `json:"scarcity_level"`
	QualityModifier float64      `json:"quality_modifier"`
	PriceModifier   float64      `json:"price_modifier"`
}

// AbundanceCategory buckets scarcity for reporting.
func (r ResourceAvailability) AbundanceCategory() string {
	switch {
	case r.ScarcityLevel >= 0.8:
		return "critical_shortage"
	case r.ScarcityLevel >= 0.6:
		return "shortage"
	case r.ScarcityLevel >= 0.4:
		return "limited"
	case r.ScarcityLevel >= 0.2:
		return "adequate"
	default:
		return "abundant"
	}
}

func priceModifierFor(scarcity float64) float64 {
	return 1.0 + 2.0*scarcity
}

// RouteSafety classifies a trade route's travel conditions.
type RouteSafety string

const (
	SafetyBlocked   RouteSafety = "blocked"
	SafetyDangerous RouteSafety = "dangerous"
	SafetySafe      RouteSafety = "safe"
	SafetyProtected RouteSafety = "protected"
)

var safetyMultipliers = map[RouteSafety]float64{
	SafetyBlocked:   0.0,
	SafetyDangerous: 0.3,
	SafetySafe:      1.0,
	SafetyProtected: 1.2,
}

// ParseRouteSafety validates a safety level string.
func ParseRouteSafety(s string) (RouteSafety, error) {
	if _, ok := safetyMultipliers[RouteSafety(s)]; !ok {
		return "", sim.Invalidf("safety_level", s, "unknown safety level")
	}
	return RouteSafety(s), nil
}

// TradeRoute links two settlements. Its bonus is a pure derived value;
// the route has no state machine of its own.
type TradeRoute struct {
	ID                 string         `json:"route_id"`
	Origin             string         `json:"origin_settlement"`
	Destination        string         `json:"destination_settlement"`
	Goods              []ResourceType `json:"primary_goods"`
	Distance           float64        `json:"distance"`
	Safety             RouteSafety    `json:"safety_level"`
	VolumeModifier     float64        `json:"trade_volume_modifier"`
	TravelTimeDays     int            `json:"travel_time_days"`
	ProsperityBonus    float64        `json:"prosperity_bonus"`
	MigrationInfluence float64        `json:"migration_influence"`
	Active             bool           `json:"is_active"`
	LastUpdated        time.Time      `json:"last_updated"`
}

// EffectiveTradeBonus is the route's prosperity contribution after
// volume and safety: exactly zero when blocked or inactive.
func (t TradeRoute) EffectiveTradeBonus() float64 {
	if !t.Active {
		return 0.0
	}
	return t.ProsperityBonus * t.VolumeModifier * safetyMultipliers[t.Safety]
}

// Event is a timed economic occurrence affecting one or more
// settlements. Daily effects apply while it runs; completion effects
// apply exactly once when it expires.
type Event struct {
	ID           string   `json:"event_id"`
	Type         string   `json:"event_type"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Settlements  []string `json:"affected_settlements"`
	DurationDays int      `json:"duration_days"`

	// Population-facing modifiers, neutral at 1.0.
	PopulationGrowthModifier  float64 `json:"population_growth_modifier"`
	MigrationPressureModifier float64 `json:"migration_pressure_modifier"`
	DiseaseResistanceModifier float64 `json:"disease_resistance_modifier"`

	// Economic effects. ProsperityChange spreads evenly over the
	// event's duration; ResourceEffects apply once at creation.
	ProsperityChange float64                  `json:"prosperity_change"`
	ResourceEffects  map[ResourceType]float64 `json:"resource_effects,omitempty"`

	// CompletionEffects apply exactly once at expiry.
	CompletionProsperity float64                  `json:"completion_prosperity"`
	CompletionResources  map[ResourceType]float64 `json:"completion_resources,omitempty"`

	Active    bool           `json:"is_active"`
	Completed bool           `json:"completed"`
	Elapsed   map[string]int `json:"elapsed"` // per settlement
	StartDate time.Time      `json:"start_date"`
}

// State is one settlement's economic record, owned by the engine.
type State struct {
	SettlementID    string                                 `json:"settlement_id"`
	ProsperityLevel float64                                `json:"prosperity_level"`
	WealthPerCapita float64                                `json:"wealth_per_capita"`
	TradeVolume     float64                                `json:"trade_volume"`
	Routes          []string                               `json:"active_trade_routes"`
	TradePartners   []string                               `json:"trade_partners"`
	ProsperityTrend float64                                `json:"prosperity_trend"`
	Resources       map[ResourceType]*ResourceAvailability `json:"resources"`
	ActiveEvents    []string                               `json:"active_events"`
	LastUpdated     time.Time                              `json:"last_updated"`
}

func newState(settlementID string, now time.Time) *State {
	resources := make(map[ResourceType]*ResourceAvailability, len(ResourceTypes()))
	for _, rt := range ResourceTypes() {
		resources[rt] = &ResourceAvailability{
			Type:            rt,
			ScarcityLevel:   0.3,
			QualityModifier: 1.0,
			PriceModifier:   priceModifierFor(0.3),
		}
	}
	return &State{
		SettlementID:    settlementID,
		ProsperityLevel: 0.0,
		WealthPerCapita: 10.0,
		Resources:       resources,
		LastUpdated:     now,
	}
}

// Snapshot is the read-only projection of a settlement's economy.
type Snapshot struct {
	SettlementID    string                                `json:"settlement_id"`
	ProsperityLevel float64                               `json:"prosperity_level"`
	EconomicStatus  Status                                `json:"economic_status"`
	WealthPerCapita float64                               `json:"wealth_per_capita"`
	TradeVolume     float64                               `json:"trade_volume"`
	RouteCount      int                                   `json:"active_trade_routes"`
	TradePartners   []string                              `json:"trade_partners"`
	ProsperityTrend float64                               `json:"prosperity_trend"`
	Resources       map[ResourceType]ResourceAvailability `json:"resources"`
	ActiveEvents    int                                   `json:"active_events"`
	LastUpdated     time.Time                             `json:"last_updated"`
}

func (s *State) snapshot() Snapshot {
	resources := make(map[ResourceType]ResourceAvailability, len(s.Resources))
	for rt, r := range s.Resources {
		resources[rt] = *r
	}
	return Snapshot{
		SettlementID:    s.SettlementID,
		ProsperityLevel: s.ProsperityLevel,
		EconomicStatus:  StatusFor(s.ProsperityLevel),
		WealthPerCapita: s.WealthPerCapita,
		TradeVolume:     s.TradeVolume,
		RouteCount:      len(s.Routes),
		TradePartners:   append([]string(nil), s.TradePartners...),
		ProsperityTrend: s.ProsperityTrend,
		Resources:       resources,
		ActiveEvents:    len(s.ActiveEvents),
		LastUpdated:     s.LastUpdated,
	}
}
