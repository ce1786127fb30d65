package war

import "time"

// ProjectKind classifies what a reconstruction project rebuilds.
type ProjectKind string

const (
	ProjectHousing        ProjectKind = "housing"
	ProjectDefenses       ProjectKind = "defenses"
	ProjectInfrastructure ProjectKind = "infrastructure"
	ProjectMarketplace    ProjectKind = "marketplace"
)

var projectKinds = map[ProjectKind]bool{
	ProjectHousing:        true,
	ProjectDefenses:       true,
	ProjectInfrastructure: true,
	ProjectMarketplace:    true,
}

// ProjectPhase is the scale of a project, fixed at creation by its
// funding requirement.
type ProjectPhase string

const (
	PhaseRubbleClearing   ProjectPhase = "rubble_clearing"
	PhaseStructuralRepair ProjectPhase = "structural_repair"
	PhaseExpansion        ProjectPhase = "expansion"
)

// phaseProfile is the static effect table per phase. Coefficients scale
// from funding once at project creation and never recompute afterward;
// a project's metrics are a snapshot of its founding, not a live view.
type phaseProfile struct {
	employmentPerHundredGold float64
	capacityRestored         float64
	boostPerThousandGold     float64
}

var phaseProfiles = map[ProjectPhase]phaseProfile{
	PhaseRubbleClearing:   {employmentPerHundredGold: 4.0, capacityRestored: 0.15, boostPerThousandGold: 0.02},
	PhaseStructuralRepair: {employmentPerHundredGold: 2.5, capacityRestored: 0.45, boostPerThousandGold: 0.035},
	PhaseExpansion:        {employmentPerHundredGold: 1.5, capacityRestored: 0.80, boostPerThousandGold: 0.05},
}

func phaseForFunding(funding float64) ProjectPhase {
	switch {
	case funding < 1000:
		return PhaseRubbleClearing
	case funding < 10000:
		return PhaseStructuralRepair
	default:
		return PhaseExpansion
	}
}

// ReconstructionProject is an independent rebuilding effort. Once
// created it does not depend on the scenario that caused the damage.
type ReconstructionProject struct {
	ID               string       `json:"id"`
	SettlementID     string       `json:"settlement_id"`
	Kind             ProjectKind  `json:"kind"`
	Phase            ProjectPhase `json:"phase"`
	FundingRequired  float64      `json:"funding_required"`
	Employment       int          `json:"employment"`
	CapacityRestored float64      `json:"capacity_restored"`
	EconomicBoost    float64      `json:"economic_boost"`
	CreatedAt        time.Time    `json:"created_at"`
}
