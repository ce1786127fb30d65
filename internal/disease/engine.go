package disease

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/talgya/impactsim/internal/notify"
	"github.com/talgya/impactsim/internal/quest"
	"github.com/talgya/impactsim/internal/sim"
)

// Engine owns every active outbreak, keyed by population id. At most
// one outbreak exists per (population, disease type); re-introduction
// merges counts. The engine never owns population totals; callers pass
// the current count into every step.
type Engine struct {
	mu        sync.RWMutex
	outbreaks map[string][]*Outbreak

	locks sim.KeyedLocks

	rng       sim.Rand
	quests    *quest.Generator
	questSink quest.Sink
	notifier  notify.Sink
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects the randomness source used for spontaneous outbreak
// rolls. Introduce and StepDay themselves are deterministic.
func WithRand(r sim.Rand) Option { return func(e *Engine) { e.rng = r } }

// WithQuestSink routes synthesized quest opportunities.
func WithQuestSink(s quest.Sink) Option { return func(e *Engine) { e.questSink = s } }

// WithNotifier routes stage-change and lifecycle notifications.
func WithNotifier(s notify.Sink) Option { return func(e *Engine) { e.notifier = s } }

// NewEngine constructs a disease engine. All collaborators default to
// no-ops; nothing is discovered at import time.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		outbreaks: make(map[string][]*Outbreak),
		rng:       sim.NewRand(0),
		quests:    quest.NewGenerator(),
		questSink: quest.NopSink{},
		notifier:  notify.NopSink{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Introduce starts a new outbreak or augments an existing one for the
// same (population, disease type) pair. Deterministic; returns the
// resulting snapshot.
func (e *Engine) Introduce(populationID string, t Type, initialInfected int, factors sim.EnvironmentalFactors) (Snapshot, error) {
	profile, ok := ProfileFor(t)
	if !ok {
		return Snapshot{}, sim.Invalidf("disease_type", t, "unknown disease")
	}
	if initialInfected < 1 {
		return Snapshot{}, sim.Invalidf("initial_infected", initialInfected, "must be >= 1")
	}
	if err := factors.Validate(); err != nil {
		return Snapshot{}, err
	}
	f := factors.Normalized()

	unlock := e.locks.Lock(populationID)
	defer unlock()

	e.mu.Lock()
	for _, o := range e.outbreaks[populationID] {
		if o.DiseaseType == t {
			o.InfectedCount += initialInfected
			if o.InfectedCount > o.PeakInfected {
				o.PeakInfected = o.InfectedCount
			}
			snap := o.snapshot()
			e.mu.Unlock()
			return snap, nil
		}
	}

	o := &Outbreak{
		DiseaseType:        t,
		Stage:              StageEmerging,
		InfectedCount:      initialInfected,
		InfectionRate:      profile.TransmissionRate,
		CrowdingModifier:   f.Crowding,
		HygieneModifier:    f.Hygiene,
		HealthcareModifier: f.Healthcare,
		SeasonalModifier:   profile.seasonalModifier(f.Season),
		PeakInfected:       initialInfected,
		StartedAt:          e.now(),
	}
	e.outbreaks[populationID] = append(e.outbreaks[populationID], o)
	snap := o.snapshot()
	e.mu.Unlock()

	slog.Info("disease outbreak started",
		"population", populationID,
		"disease", profile.Name,
		"infected", initialInfected,
	)
	e.notifier.Publish(notify.New("disease_outbreak", populationID, notify.PriorityWarning, map[string]any{
		"disease_type": string(t),
		"disease_name": profile.Name,
		"infected":     initialInfected,
	}))
	e.offerQuests(populationID, o)
	return snap, nil
}

// OutbreakDayDetail reports one outbreak's changes for a single day.
type OutbreakDayDetail struct {
	Snapshot
	NewInfections int   `json:"new_infections"`
	NewDeaths     int   `json:"new_deaths"`
	PreviousStage Stage `json:"previous_stage"`
	Ended         bool  `json:"ended"`
}

// DayReport aggregates one population's disease day.
type DayReport struct {
	PopulationID    string              `json:"population_id"`
	ActiveOutbreaks int                 `json:"active_outbreaks"`
	TotalInfected   int                 `json:"total_infected"`
	NewInfections   int                 `json:"new_infections"`
	NewDeaths       int                 `json:"new_deaths"`
	Outbreaks       []OutbreakDayDetail `json:"outbreaks"`
}

// StepDay advances every outbreak in the population by one day.
// totalPopulation is supplied fresh by the caller; reported deaths are
// not applied to it here. Within the call the order is fixed per
// outbreak: modifiers, infection delta, death delta, clamps, stage,
// removal check.
func (e *Engine) StepDay(populationID string, totalPopulation int, factors sim.EnvironmentalFactors) (DayReport, error) {
	if totalPopulation < 0 {
		return DayReport{}, sim.Invalidf("total_population", totalPopulation, "must be >= 0")
	}
	if err := factors.Validate(); err != nil {
		return DayReport{}, err
	}
	f := factors.Normalized()

	unlock := e.locks.Lock(populationID)
	defer unlock()

	e.mu.Lock()
	active := e.outbreaks[populationID]
	if len(active) == 0 {
		e.mu.Unlock()
		return DayReport{PopulationID: populationID}, nil
	}

	report := DayReport{PopulationID: populationID}
	var kept []*Outbreak
	type transition struct {
		o    *Outbreak
		from Stage
	}
	var transitions []transition
	var ended []*Outbreak

	for _, o := range active {
		p := o.profile()
		prevStage := o.Stage

		o.CrowdingModifier = f.Crowding
		o.HygieneModifier = f.Hygiene
		o.HealthcareModifier = f.Healthcare
		o.SeasonalModifier = p.seasonalModifier(f.Season)

		tm := transmissionModifier(p, f)
		effective := p.TransmissionRate * tm
		o.InfectionRate = effective

		var newInfections int
		if totalPopulation > 0 {
			susceptible := sim.FloorInt(totalPopulation - o.InfectedCount)
			prob := math.Min(0.95, effective*float64(o.InfectedCount)/float64(totalPopulation))
			newInfections = int(float64(susceptible) * prob)
		}
		o.InfectedCount += newInfections
		o.DaysActive++
		if o.InfectedCount > o.PeakInfected {
			o.PeakInfected = o.InfectedCount
		}

		// Deaths accrue only after incubation and only during the
		// recovery window; good healthcare divides the rate down.
		var newDeaths int
		if o.DaysActive >= p.IncubationDays {
			sinceIncubation := o.DaysActive - p.IncubationDays
			if sinceIncubation < p.RecoveryDays {
				perDay := p.MortalityRate / float64(p.RecoveryDays)
				careMod := o.HealthcareModifier * p.HealthcareFactor
				if careMod < 0.01 {
					careMod = 0.01
				}
				newDeaths = int(float64(o.InfectedCount) * perDay / careMod)
				o.TotalDeaths += newDeaths
				o.InfectedCount = sim.FloorInt(o.InfectedCount - newDeaths)
			}
		}

		o.Stage = computeStage(o, totalPopulation)

		detail := OutbreakDayDetail{
			Snapshot:      o.snapshot(),
			NewInfections: newInfections,
			NewDeaths:     newDeaths,
			PreviousStage: prevStage,
		}

		if o.Stage == StageEradicated || (o.InfectedCount == 0 && o.DaysActive > p.RecoveryDays) {
			detail.Ended = true
			ended = append(ended, o)
		} else {
			kept = append(kept, o)
			if o.Stage != prevStage {
				transitions = append(transitions, transition{o: o, from: prevStage})
			}
		}

		// Counts residual infected of outbreaks removed this step too;
		// eradication can fire while carriers remain.
		report.TotalInfected += o.InfectedCount
		report.NewInfections += newInfections
		report.NewDeaths += newDeaths
		report.Outbreaks = append(report.Outbreaks, detail)
	}

	if len(kept) == 0 {
		delete(e.outbreaks, populationID)
	} else {
		e.outbreaks[populationID] = kept
	}
	report.ActiveOutbreaks = len(kept)
	e.mu.Unlock()

	// Fan-out happens after the store mutation is complete, so every
	// notification refers to visible state.
	for _, tr := range transitions {
		slog.Info("disease stage changed",
			"population", populationID,
			"disease", tr.o.profile().Name,
			"from", tr.from,
			"to", tr.o.Stage,
		)
		e.notifier.Publish(notify.New("disease_stage_change", populationID, stagePriority(tr.o.Stage), map[string]any{
			"disease_type": string(tr.o.DiseaseType),
			"from":         string(tr.from),
			"to":           string(tr.o.Stage),
			"infected":     tr.o.InfectedCount,
		}))
		e.offerQuests(populationID, tr.o)
	}
	for _, o := range ended {
		slog.Info("disease outbreak ended",
			"population", populationID,
			"disease", o.profile().Name,
			"total_deaths", o.TotalDeaths,
		)
		e.notifier.Publish(notify.New("disease_outbreak_ended", populationID, notify.PriorityInfo, map[string]any{
			"disease_type": string(o.DiseaseType),
			"total_deaths": o.TotalDeaths,
			"days_active":  o.DaysActive,
		}))
	}

	return report, nil
}

// StatusReport is the read-only projection of a population's outbreaks.
type StatusReport struct {
	PopulationID  string     `json:"population_id"`
	HasDiseases   bool       `json:"has_diseases"`
	OutbreakCount int        `json:"outbreak_count"`
	Outbreaks     []Snapshot `json:"outbreaks"`
}

// Status reports the current outbreaks for a population without any
// mutation.
func (e *Engine) Status(populationID string) StatusReport {
	e.mu.RLock()
	defer e.mu.RUnlock()

	active := e.outbreaks[populationID]
	report := StatusReport{
		PopulationID:  populationID,
		HasDiseases:   len(active) > 0,
		OutbreakCount: len(active),
	}
	for _, o := range active {
		report.Outbreaks = append(report.Outbreaks, o.snapshot())
	}
	return report
}

// EndOutbreak removes one outbreak regardless of its stage. Used when
// an external force (quest resolution, divine intervention) cures a
// population outright.
func (e *Engine) EndOutbreak(populationID string, t Type) error {
	if _, ok := ProfileFor(t); !ok {
		return sim.Invalidf("disease_type", t, "unknown disease")
	}

	unlock := e.locks.Lock(populationID)
	defer unlock()

	e.mu.Lock()
	active := e.outbreaks[populationID]
	for i, o := range active {
		if o.DiseaseType == t {
			e.outbreaks[populationID] = append(active[:i], active[i+1:]...)
			if len(e.outbreaks[populationID]) == 0 {
				delete(e.outbreaks, populationID)
			}
			e.mu.Unlock()
			e.notifier.Publish(notify.New("disease_outbreak_ended", populationID, notify.PriorityInfo, map[string]any{
				"disease_type": string(t),
				"ended_by":     "explicit",
			}))
			return nil
		}
	}
	e.mu.Unlock()
	return sim.NotFound("outbreak", populationID+"/"+string(t))
}

var stageQuestTemplates = map[Stage][]string{
	StageEmerging:  {"investigation", "gathering"},
	StageSpreading: {"delivery", "protection"},
	StagePeak:      {"evacuation", "extermination"},
	StageDeclining: {"rebuilding", "memorial"},
}

// QuestOpportunities synthesizes the quest set for the population's
// current outbreak stages. Pure function of current state.
func (e *Engine) QuestOpportunities(populationID string) []quest.Opportunity {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var ops []quest.Opportunity
	for _, o := range e.outbreaks[populationID] {
		for _, tpl := range stageQuestTemplates[o.Stage] {
			if op, ok := e.quests.Instantiate(tpl, o.profile().Name, "disease_outbreak", populationID); ok {
				ops = append(ops, op)
			}
		}
	}
	return ops
}

// PopulationEffects derives the effect multipliers a population
// currently suffers from its outbreaks. basePopulation zero resolves to
// the documented floors without dividing.
func (e *Engine) PopulationEffects(populationID string, basePopulation int) sim.EffectBundle {
	e.mu.RLock()
	defer e.mu.RUnlock()

	active := e.outbreaks[populationID]
	if len(active) == 0 {
		return sim.NeutralEffects()
	}
	if basePopulation == 0 {
		return sim.EffectBundle{
			Productivity:      0.0,
			Morale:            0.0,
			GrowthRate:        0.0,
			MigrationPressure: 1.0,
			DiseaseResistance: 1.0,
		}
	}

	totalInfected := 0
	totalDeaths := 0
	for _, o := range active {
		totalInfected += o.InfectedCount
		totalDeaths += o.TotalDeaths
	}
	ir := float64(totalInfected) / float64(basePopulation)
	dr := float64(totalDeaths) / float64(basePopulation)

	b := sim.EffectBundle{
		Productivity:      math.Max(0.1, 1.0-ir*0.8-dr*0.5),
		Morale:            math.Max(0.1, 1.0-ir*0.6-dr*0.9),
		GrowthRate:        math.Max(0.0, 1.0-ir*0.4-dr*1.2),
		MigrationPressure: math.Min(1.0, ir*0.7+dr*0.8),
		DiseaseResistance: 1.0,
	}

	// Lethal peak-stage outbreaks spark panic flight.
	for _, o := range active {
		if o.Stage == StagePeak && o.profile().MortalityRate > 0.3 {
			b.MigrationPressure = math.Min(1.0, b.MigrationPressure+0.3)
		}
	}
	return b.Clamped()
}

// MaybeIntroduceRandom rolls for a spontaneous outbreak given the
// population's conditions. Poor crowding/hygiene/healthcare raise the
// chance, larger populations attract disease. Returns nil when no
// outbreak started.
func (e *Engine) MaybeIntroduceRandom(populationID string, populationSize int, factors sim.EnvironmentalFactors) (*Snapshot, error) {
	if populationSize <= 0 {
		return nil, nil
	}
	if err := factors.Validate(); err != nil {
		return nil, err
	}
	f := factors.Normalized()

	const baseChance = 0.001
	modifier := 1.0
	if f.Crowding > 1.0 {
		modifier *= f.Crowding
	}
	if f.Hygiene > 1.0 {
		modifier *= f.Hygiene
	}
	if f.Healthcare < 1.0 {
		modifier *= 2.0 - f.Healthcare
	}
	popMod := math.Log10(math.Max(10, float64(populationSize))) / 4.0

	if e.rng.Float64() >= baseChance*modifier*popMod {
		return nil, nil
	}

	types := Types()
	t := types[e.rng.Intn(len(types))]
	initial := int(float64(populationSize) * (0.001 + e.rng.Float64()*0.009))
	if initial < 1 {
		initial = 1
	}
	snap, err := e.Introduce(populationID, t, initial, factors)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (e *Engine) offerQuests(populationID string, o *Outbreak) {
	for _, tpl := range stageQuestTemplates[o.Stage] {
		if op, ok := e.quests.Instantiate(tpl, o.profile().Name, "disease_outbreak", populationID); ok {
			e.questSink.Offer(op)
		}
	}
}

func stagePriority(s Stage) notify.Priority {
	switch s {
	case StagePeak:
		return notify.PriorityCritical
	case StageSpreading:
		return notify.PriorityWarning
	default:
		return notify.PriorityInfo
	}
}
