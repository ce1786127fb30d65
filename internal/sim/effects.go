package sim

// EffectBundle is the multiplier contract every engine derives from its
// current state for the population growth and migration logic outside
// this module. Multipliers are neutral at 1.0; MigrationPressure is a
// [0,1] pressure, positive values push residents out. Engines that have
// nothing to say about a field leave it neutral.
type EffectBundle struct {
	Productivity      float64 `json:"productivity_multiplier"`
	Morale            float64 `json:"morale_multiplier"`
	GrowthRate        float64 `json:"growth_rate_multiplier"`
	MigrationPressure float64 `json:"migration_pressure"`
	DiseaseResistance float64 `json:"disease_resistance_multiplier"`
}

// NeutralEffects is the bundle for an entity with no active impacts.
func NeutralEffects() EffectBundle {
	return EffectBundle{
		Productivity:      1.0,
		Morale:            1.0,
		GrowthRate:        1.0,
		MigrationPressure: 0.0,
		DiseaseResistance: 1.0,
	}
}

// Clamped returns a copy with every field forced into its documented
// interval.
func (b EffectBundle) Clamped() EffectBundle {
	b.Productivity = Clamp(b.Productivity, 0, 3)
	b.Morale = Clamp(b.Morale, 0, 3)
	b.GrowthRate = Clamp(b.GrowthRate, 0, 3)
	b.MigrationPressure = ClampUnit(b.MigrationPressure)
	b.DiseaseResistance = Clamp(b.DiseaseResistance, 0, 3)
	return b
}
