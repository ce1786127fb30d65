// Package war models armed conflict pressing on settlements: scenarios
// spanning several settlements, sieges with their own stage ladder,
// refugee populations, and the reconstruction that follows.
package war

import "time"

// Status is a settlement's war posture, driven by membership in an
// active scenario. It only ever moves forward within one conflict.
type Status string

const (
	StatusPeace          Status = "peace"
	StatusTensions       Status = "tensions"
	StatusSkirmishes     Status = "skirmishes"
	StatusActiveWar      Status = "active_war"
	StatusSiege          Status = "siege"
	StatusOccupation     Status = "occupation"
	StatusReconstruction Status = "reconstruction"
)

var statusRank = map[Status]int{
	StatusPeace:          0,
	StatusTensions:       1,
	StatusSkirmishes:     2,
	StatusActiveWar:      3,
	StatusSiege:          4,
	StatusOccupation:     5,
	StatusReconstruction: 6,
}

// escalate moves a settlement status forward, never backward.
func escalate(current, target Status) Status {
	if statusRank[target] > statusRank[current] {
		return target
	}
	return current
}

// SiegeStage is the lifecycle of one siege. Breached and captured are
// terminal and cannot reverse; liberated is reached only when the war
// ends in the defenders' favor first.
type SiegeStage string

const (
	SiegeApproaching SiegeStage = "approaching"
	SiegeBesieged    SiegeStage = "besieged"
	SiegeUnderAttack SiegeStage = "under_attack"
	SiegeBreached    SiegeStage = "breached"
	SiegeCaptured    SiegeStage = "captured"
	SiegeLiberated   SiegeStage = "liberated"
)

func (s SiegeStage) terminal() bool {
	return s == SiegeBreached || s == SiegeCaptured || s == SiegeLiberated
}

// DailyRates are the six per-day rates a scenario applies, all linear
// in the single intensity scalar.
type DailyRates struct {
	Mortality          float64 `json:"mortality"`
	RefugeeGeneration  float64 `json:"refugee_generation"`
	EconomicDisruption float64 `json:"economic_disruption"`
	MoraleImpact       float64 `json:"morale_impact"`
	Recruitment        float64 `json:"recruitment"`
	BreachChance       float64 `json:"breach_chance"`
}

func ratesFor(intensity float64) DailyRates {
	return DailyRates{
		Mortality:          intensity * 0.002,
		RefugeeGeneration:  intensity * 0.005,
		EconomicDisruption: intensity * 0.6,
		MoraleImpact:       intensity * 0.4,
		Recruitment:        intensity * 0.001,
		BreachChance:       intensity * 0.05,
	}
}

// SiegeData lives inside exactly one scenario; it is never registered
// anywhere else.
type SiegeData struct {
	SettlementID     string     `json:"settlement_id"`
	Stage            SiegeStage `json:"stage"`
	AttackerStrength float64    `json:"attacker_strength"`
	DefenderStrength float64    `json:"defender_strength"`
	DaysElapsed      int        `json:"days_elapsed"`
	StartedAt        time.Time  `json:"started_at"`
}

// Scenario is one war affecting a set of settlements.
type Scenario struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Settlements  []string       `json:"settlements"`
	Intensity    float64        `json:"intensity"`
	DurationDays int            `json:"duration_days"`
	Rates        DailyRates     `json:"rates"`
	Siege        *SiegeData     `json:"siege,omitempty"`
	Active       bool           `json:"active"`
	Outcome      string         `json:"outcome,omitempty"`
	DaysElapsed  map[string]int `json:"days_elapsed"` // per settlement
	StartedAt    time.Time      `json:"started_at"`
	EndedAt      *time.Time     `json:"ended_at,omitempty"`
}

func (s *Scenario) contains(settlementID string) bool {
	for _, id := range s.Settlements {
		if id == settlementID {
			return true
		}
	}
	return false
}

// snapshot returns a caller-safe copy.
func (s *Scenario) snapshot() Scenario {
	out := *s
	out.Settlements = append([]string(nil), s.Settlements...)
	out.DaysElapsed = make(map[string]int, len(s.DaysElapsed))
	for k, v := range s.DaysElapsed {
		out.DaysElapsed[k] = v
	}
	if s.Siege != nil {
		siege := *s.Siege
		out.Siege = &siege
	}
	return out
}

// RefugeePopulation is a displaced group fleeing a settlement. Ids are
// globally unique and immutable once assigned.
type RefugeePopulation struct {
	ID               string    `json:"id"`
	OriginSettlement string    `json:"origin_settlement"`
	Count            int       `json:"count"`
	ScenarioID       string    `json:"scenario_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// HistoryRecord is the immutable account of one ended war.
type HistoryRecord struct {
	ScenarioID  string    `json:"scenario_id"`
	Name        string    `json:"name"`
	Outcome     string    `json:"outcome"`
	Settlements []string  `json:"settlements"`
	EndedAt     time.Time `json:"ended_at"`
}

// DailyImpact is the report returned for one settlement's war day.
// PopulationChange is never positive; the caller owns applying it.
type DailyImpact struct {
	SettlementID      string     `json:"settlement_id"`
	Status            Status     `json:"status"`
	SiegeStage        SiegeStage `json:"siege_stage,omitempty"`
	PopulationChange  int        `json:"population_change"`
	MoraleChange      float64    `json:"morale_change"`
	EconomicImpact    float64    `json:"economic_impact"`
	RefugeesGenerated int        `json:"refugees_generated"`
	MilitaryRecruited int        `json:"military_recruited"`
	Events            []string   `json:"events"`
}
