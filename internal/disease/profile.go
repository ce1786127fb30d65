// Package disease models outbreaks spreading through settlement
// populations: profiles per disease type, daily progression driven by
// environmental conditions, lifecycle stages, and the effect multipliers
// other systems consume.
package disease

import (
	"github.com/talgya/impactsim/internal/sim"
)

// Type identifies a disease.
type Type string

const (
	Plague           Type = "plague"
	Fever            Type = "fever"
	Pox              Type = "pox"
	Wasting          Type = "wasting"
	Flux             Type = "flux"
	SweatingSickness Type = "sweating_sickness"
	LungRot          Type = "lung_rot"
	BoneFever        Type = "bone_fever"
)

// ParseType validates a disease type string.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if _, ok := profiles[t]; !ok {
		return "", sim.Invalidf("disease_type", s, "unknown disease")
	}
	return t, nil
}

// Stage is the lifecycle phase of an outbreak, recomputed from metrics
// every step.
type Stage string

const (
	StageEmerging   Stage = "emerging"
	StageSpreading  Stage = "spreading"
	StagePeak       Stage = "peak"
	StageDeclining  Stage = "declining"
	StageEndemic    Stage = "endemic"
	StageEradicated Stage = "eradicated"
)

// Profile holds the immutable characteristics of one disease type.
// Environmental factors are multipliers applied against the caller's
// raw conditions; seasonal preference boosts transmission during one
// season.
type Profile struct {
	Name             string
	Type             Type
	MortalityRate    float64 // fraction of the infected who die (0-1)
	TransmissionRate float64 // base daily transmission (0-1)
	IncubationDays   int
	RecoveryDays     int
	ImmunityDays     int // 0 = permanent immunity

	CrowdingFactor   float64
	HygieneFactor    float64
	HealthcareFactor float64

	SeasonalPreference sim.Season
	SeasonalMultiplier float64

	TargetsYoung bool
	TargetsOld   bool
	TargetsWeak  bool
}

var profiles = map[Type]Profile{
	Plague: {
		Name: "Black Death", Type: Plague,
		MortalityRate: 0.6, TransmissionRate: 0.25,
		IncubationDays: 3, RecoveryDays: 7, ImmunityDays: 365,
		CrowdingFactor: 2.0, HygieneFactor: 1.8, HealthcareFactor: 0.5,
		SeasonalPreference: sim.SeasonAutumn, SeasonalMultiplier: 1.5,
		TargetsWeak: true,
	},
	Fever: {
		Name: "Marsh Fever", Type: Fever,
		MortalityRate: 0.15, TransmissionRate: 0.35,
		IncubationDays: 2, RecoveryDays: 5, ImmunityDays: 180,
		CrowdingFactor: 1.3, HygieneFactor: 1.5, HealthcareFactor: 0.6,
		SeasonalPreference: sim.SeasonSummer, SeasonalMultiplier: 1.5,
		TargetsYoung: true,
	},
	Pox: {
		Name: "Red Pox", Type: Pox,
		MortalityRate: 0.25, TransmissionRate: 0.4,
		IncubationDays: 4, RecoveryDays: 10, ImmunityDays: 0,
		CrowdingFactor: 1.8, HygieneFactor: 1.2, HealthcareFactor: 0.7,
		SeasonalMultiplier: 1.5,
		TargetsYoung:       true,
	},
	Wasting: {
		Name: "Wasting Sickness", Type: Wasting,
		MortalityRate: 0.8, TransmissionRate: 0.1,
		IncubationDays: 7, RecoveryDays: 30, ImmunityDays: 0,
		CrowdingFactor: 1.2, HygieneFactor: 1.4, HealthcareFactor: 0.4,
		SeasonalMultiplier: 1.5,
		TargetsOld:         true, TargetsWeak: true,
	},
	Flux: {
		Name: "Bloody Flux", Type: Flux,
		MortalityRate: 0.3, TransmissionRate: 0.3,
		IncubationDays: 1, RecoveryDays: 8, ImmunityDays: 90,
		CrowdingFactor: 1.6, HygieneFactor: 2.0, HealthcareFactor: 0.5,
		SeasonalPreference: sim.SeasonSummer, SeasonalMultiplier: 1.5,
		TargetsYoung:       true, TargetsOld: true,
	},
	SweatingSickness: {
		Name: "Sweating Sickness", Type: SweatingSickness,
		MortalityRate: 0.4, TransmissionRate: 0.6,
		IncubationDays: 1, RecoveryDays: 3, ImmunityDays: 30,
		CrowdingFactor: 1.7, HygieneFactor: 1.1, HealthcareFactor: 0.8,
		SeasonalPreference: sim.SeasonSummer, SeasonalMultiplier: 1.5,
	},
	LungRot: {
		Name: "Lung Rot", Type: LungRot,
		MortalityRate: 0.45, TransmissionRate: 0.2,
		IncubationDays: 5, RecoveryDays: 21, ImmunityDays: 0,
		CrowdingFactor: 1.9, HygieneFactor: 1.3, HealthcareFactor: 0.6,
		SeasonalPreference: sim.SeasonWinter, SeasonalMultiplier: 1.5,
		TargetsOld:         true,
	},
	BoneFever: {
		Name: "Bone Fever", Type: BoneFever,
		MortalityRate: 0.05, TransmissionRate: 0.8,
		IncubationDays: 2, RecoveryDays: 14, ImmunityDays: 365,
		CrowdingFactor: 1.4, HygieneFactor: 1.2, HealthcareFactor: 0.9,
		SeasonalPreference: sim.SeasonSpring, SeasonalMultiplier: 1.5,
	},
}

// ProfileFor returns the profile for a disease type.
func ProfileFor(t Type) (Profile, bool) {
	p, ok := profiles[t]
	return p, ok
}

// Types lists every known disease type.
func Types() []Type {
	out := make([]Type, 0, len(profiles))
	for t := range profiles {
		out = append(out, t)
	}
	return out
}

// seasonalModifier returns the transmission multiplier for the current
// season: the profile's multiplier during its preferred season, 1.0
// otherwise.
func (p Profile) seasonalModifier(season sim.Season) float64 {
	if p.SeasonalPreference == sim.SeasonNone || season == sim.SeasonNone {
		return 1.0
	}
	if season == p.SeasonalPreference {
		return p.SeasonalMultiplier
	}
	return 1.0
}
