package disease

import "time"

// outbreakRecord is the serialized form of one outbreak.
type outbreakRecord struct {
	DiseaseType        Type      `json:"disease_type"`
	Stage              Stage     `json:"stage"`
	InfectedCount      int       `json:"infected_count"`
	TotalDeaths        int       `json:"total_deaths"`
	DaysActive         int       `json:"days_active"`
	InfectionRate      float64   `json:"infection_rate"`
	CrowdingModifier   float64   `json:"crowding_modifier"`
	HygieneModifier    float64   `json:"hygiene_modifier"`
	HealthcareModifier float64   `json:"healthcare_modifier"`
	SeasonalModifier   float64   `json:"seasonal_modifier"`
	PeakInfected       int       `json:"peak_infected"`
	StartedAt          time.Time `json:"started_at"`
}

// EngineState is the serializable form of the engine's store.
type EngineState struct {
	Outbreaks map[string][]outbreakRecord `json:"outbreaks"`
}

// ExportState copies the store for persistence.
func (e *Engine) ExportState() EngineState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := EngineState{Outbreaks: make(map[string][]outbreakRecord, len(e.outbreaks))}
	for pop, list := range e.outbreaks {
		recs := make([]outbreakRecord, 0, len(list))
		for _, o := range list {
			recs = append(recs, outbreakRecord{
				DiseaseType:        o.DiseaseType,
				Stage:              o.Stage,
				InfectedCount:      o.InfectedCount,
				TotalDeaths:        o.TotalDeaths,
				DaysActive:         o.DaysActive,
				InfectionRate:      o.InfectionRate,
				CrowdingModifier:   o.CrowdingModifier,
				HygieneModifier:    o.HygieneModifier,
				HealthcareModifier: o.HealthcareModifier,
				SeasonalModifier:   o.SeasonalModifier,
				PeakInfected:       o.PeakInfected,
				StartedAt:          o.StartedAt,
			})
		}
		st.Outbreaks[pop] = recs
	}
	return st
}

// ImportState replaces the store with a previously exported one.
// Records with unknown disease types are dropped.
func (e *Engine) ImportState(st EngineState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.outbreaks = make(map[string][]*Outbreak, len(st.Outbreaks))
	for pop, recs := range st.Outbreaks {
		var list []*Outbreak
		for _, r := range recs {
			if _, ok := ProfileFor(r.DiseaseType); !ok {
				continue
			}
			list = append(list, &Outbreak{
				DiseaseType:        r.DiseaseType,
				Stage:              r.Stage,
				InfectedCount:      r.InfectedCount,
				TotalDeaths:        r.TotalDeaths,
				DaysActive:         r.DaysActive,
				InfectionRate:      r.InfectionRate,
				CrowdingModifier:   r.CrowdingModifier,
				HygieneModifier:    r.HygieneModifier,
				HealthcareModifier: r.HealthcareModifier,
				SeasonalModifier:   r.SeasonalModifier,
				PeakInfected:       r.PeakInfected,
				StartedAt:          r.StartedAt,
			})
		}
		if len(list) > 0 {
			e.outbreaks[pop] = list
		}
	}
}
