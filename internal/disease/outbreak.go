package disease

import (
	"time"

	"github.com/talgya/impactsim/internal/sim"
)

// Outbreak is the mutable record of one disease actively affecting one
// population. It is owned exclusively by the engine's store; callers
// only ever see Snapshot copies.
type Outbreak struct {
	DiseaseType   Type
	Stage         Stage
	InfectedCount int
	TotalDeaths   int
	DaysActive    int
	InfectionRate float64 // current effective daily transmission

	// Environmental modifiers applied on the most recent step.
	CrowdingModifier   float64
	HygieneModifier    float64
	HealthcareModifier float64
	SeasonalModifier   float64

	PeakInfected int
	StartedAt    time.Time
}

func (o *Outbreak) profile() Profile {
	p, _ := ProfileFor(o.DiseaseType)
	return p
}

// Snapshot is the read-only projection of an outbreak.
type Snapshot struct {
	DiseaseType   Type    `json:"disease_type"`
	DiseaseName   string  `json:"disease_name"`
	Stage         Stage   `json:"stage"`
	InfectedCount int     `json:"infected_count"`
	TotalDeaths   int     `json:"total_deaths"`
	DaysActive    int     `json:"days_active"`
	MortalityRate float64 `json:"mortality_rate"`
	PeakInfected  int     `json:"peak_infected"`
}

func (o *Outbreak) snapshot() Snapshot {
	p := o.profile()
	return Snapshot{
		DiseaseType:   o.DiseaseType,
		DiseaseName:   p.Name,
		Stage:         o.Stage,
		InfectedCount: o.InfectedCount,
		TotalDeaths:   o.TotalDeaths,
		DaysActive:    o.DaysActive,
		MortalityRate: p.MortalityRate,
		PeakInfected:  o.PeakInfected,
	}
}

// computeStage recomputes the lifecycle stage from current metrics.
// The two upper infection bands (5-15% and >15%) both resolve to peak.
func computeStage(o *Outbreak, totalPopulation int) Stage {
	p := o.profile()
	if totalPopulation < 1 {
		totalPopulation = 1
	}
	rate := float64(o.InfectedCount) / float64(totalPopulation)

	switch {
	case o.DaysActive < 3:
		return StageEmerging
	case rate < 0.01:
		if o.DaysActive > p.RecoveryDays*2 {
			return StageEradicated
		}
		return StageDeclining
	case rate < 0.05:
		return StageSpreading
	case rate < 0.15:
		return StagePeak
	default:
		return StagePeak
	}
}

// transmissionModifier combines raw environmental conditions with the
// profile's sensitivity coefficients into one multiplier.
func transmissionModifier(p Profile, f sim.EnvironmentalFactors) float64 {
	return (f.Crowding*p.CrowdingFactor +
		f.Hygiene*p.HygieneFactor +
		f.Healthcare*p.HealthcareFactor +
		p.seasonalModifier(f.Season)) / 4.0
}
