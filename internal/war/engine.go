package war

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/impactsim/internal/notify"
	"github.com/talgya/impactsim/internal/quest"
	"github.com/talgya/impactsim/internal/sim"
)

// Engine owns all war scenarios, settlement war statuses, refugee
// populations, and reconstruction projects. Nothing here reads or
// writes another engine's store; coupling to the outside happens only
// through DailyImpact and the effect bundle.
type Engine struct {
	mu        sync.RWMutex
	scenarios map[string]*Scenario
	statuses  map[string]Status
	byMember  map[string]string // settlement id -> active scenario id
	refugees  map[string]*RefugeePopulation
	projects  map[string]*ReconstructionProject
	history   []HistoryRecord

	locks sim.KeyedLocks

	rng       sim.Rand
	quests    *quest.Generator
	questSink quest.Sink
	notifier  notify.Sink
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects the source for siege breach rolls.
func WithRand(r sim.Rand) Option { return func(e *Engine) { e.rng = r } }

// WithQuestSink routes war quest opportunities.
func WithQuestSink(s quest.Sink) Option { return func(e *Engine) { e.questSink = s } }

// WithNotifier routes war notifications.
func WithNotifier(s notify.Sink) Option { return func(e *Engine) { e.notifier = s } }

// NewEngine constructs a war engine with no-op collaborators by default.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		scenarios: make(map[string]*Scenario),
		statuses:  make(map[string]Status),
		byMember:  make(map[string]string),
		refugees:  make(map[string]*RefugeePopulation),
		projects:  make(map[string]*ReconstructionProject),
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

// CreateScenario starts a war over the given settlements. The single
// intensity scalar in [0,1] derives every daily rate; duration is the
// planned length in days. Member settlements escalate to active_war.
func (e *Engine) CreateScenario(name string, settlements []string, intensity float64, durationDays int) (Scenario, error) {
	if len(settlements) == 0 {
		return Scenario{}, sim.Invalidf("settlements", settlements, "at least one settlement required")
	}
	if intensity < 0 || intensity > 1 {
		return Scenario{}, sim.Invalidf("intensity", intensity, "must be in [0, 1]")
	}
	if durationDays < 1 {
		return Scenario{}, sim.Invalidf("duration_days", durationDays, "must be >= 1")
	}

	s := &Scenario{
		ID:           uuid.NewString(),
		Name:         name,
		Settlements:  append([]string(nil), settlements...),
		Intensity:    intensity,
		DurationDays: durationDays,
		Rates:        ratesFor(intensity),
		Active:       true,
		DaysElapsed:  make(map[string]int),
		StartedAt:    e.now(),
	}

	e.mu.Lock()
	for _, id := range settlements {
		if existing, ok := e.byMember[id]; ok {
			e.mu.Unlock()
			return Scenario{}, sim.Invalidf("settlements", id, "already in active scenario %s", existing)
		}
	}
	e.scenarios[s.ID] = s
	for _, id := range settlements {
		e.byMember[id] = s.ID
		e.statuses[id] = escalate(e.statuses[id], StatusActiveWar)
	}
	snap := s.snapshot()
	e.mu.Unlock()

	slog.Info("war scenario created",
		"scenario", s.ID,
		"name", name,
		"settlements", len(settlements),
		"intensity", intensity,
	)
	e.notifier.Publish(notify.New("war_started", s.ID, notify.PriorityCritical, map[string]any{
		"name":        name,
		"settlements": settlements,
		"intensity":   intensity,
	}))
	return snap, nil
}

// InitiateSiege attaches siege data to an active scenario and escalates
// the besieged settlement. One siege per scenario.
func (e *Engine) InitiateSiege(scenarioID, settlementID string, attackerStrength, defenderStrength float64) error {
	if attackerStrength < 0 || defenderStrength < 0 {
		return sim.Invalidf("strength", attackerStrength, "must be >= 0")
	}

	e.mu.Lock()
	s, ok := e.scenarios[scenarioID]
	if !ok {
		e.mu.Unlock()
		return sim.NotFound("war scenario", scenarioID)
	}
	if !s.Active {
		e.mu.Unlock()
		return sim.Invalidf("scenario", scenarioID, "scenario already ended")
	}
	if !s.contains(settlementID) {
		e.mu.Unlock()
		return sim.Invalidf("settlement_id", settlementID, "not part of scenario %s", scenarioID)
	}
	if s.Siege != nil {
		e.mu.Unlock()
		return sim.Invalidf("scenario", scenarioID, "siege already underway at %s", s.Siege.SettlementID)
	}

	s.Siege = &SiegeData{
		SettlementID:     settlementID,
		Stage:            SiegeApproaching,
		AttackerStrength: attackerStrength,
		DefenderStrength: defenderStrength,
		StartedAt:        e.now(),
	}
	e.statuses[settlementID] = escalate(e.statuses[settlementID], StatusSiege)
	e.mu.Unlock()

	slog.Info("siege initiated", "scenario", scenarioID, "settlement", settlementID)
	e.notifier.Publish(notify.New("siege_initiated", settlementID, notify.PriorityCritical, map[string]any{
		"scenario_id": scenarioID,
		"attacker":    attackerStrength,
		"defender":    defenderStrength,
	}))
	e.offerQuest("escort", settlementID, "war_impact")
	return nil
}

// siege stage casualty multipliers.
var siegeSeverity = map[SiegeStage]float64{
	SiegeApproaching: 0.5,
	SiegeBesieged:    1.0,
	SiegeUnderAttack: 2.0,
	SiegeBreached:    3.0,
	SiegeCaptured:    0.5,
	SiegeLiberated:   0.0,
}

// ProcessDailyEffects advances one settlement through one day of war.
// Settlements outside any active scenario report a neutral day. The
// returned PopulationChange is never positive and never exceeds the
// current population; applying it is the caller's job.
func (e *Engine) ProcessDailyEffects(settlementID string, currentPopulation int) (DailyImpact, error) {
	if currentPopulation < 0 {
		return DailyImpact{}, sim.Invalidf("current_population", currentPopulation, "must be >= 0")
	}

	unlock := e.locks.Lock(settlementID)
	defer unlock()

	e.mu.Lock()
	impact := DailyImpact{SettlementID: settlementID, Status: e.statuses[settlementID]}
	if impact.Status == "" {
		impact.Status = StatusPeace
	}

	scenarioID, ok := e.byMember[settlementID]
	if !ok {
		e.mu.Unlock()
		return impact, nil
	}
	s := e.scenarios[scenarioID]
	if !s.Active {
		e.mu.Unlock()
		return impact, nil
	}

	s.DaysElapsed[settlementID]++
	rates := s.Rates

	var notices []notify.Notification
	var questTypes []string

	if s.Siege != nil && s.Siege.SettlementID == settlementID {
		siege := s.Siege
		if !siege.Stage.terminal() {
			siege.DaysElapsed++
			prev := siege.Stage
			switch {
			case siege.DaysElapsed >= 14:
				siege.Stage = SiegeUnderAttack
			case siege.DaysElapsed >= 3:
				siege.Stage = SiegeBesieged
			}
			if siege.Stage != prev {
				impact.Events = append(impact.Events, fmt.Sprintf("siege of %s escalates to %s", settlementID, siege.Stage))
				notices = append(notices, notify.New("siege_stage_change", settlementID, notify.PriorityWarning, map[string]any{
					"from": string(prev), "to": string(siege.Stage),
				}))
			}

			// Assault phase: daily breach roll, tilted by the strength
			// balance.
			if siege.Stage == SiegeUnderAttack {
				chance := rates.BreachChance
				if siege.DefenderStrength > 0 {
					chance *= sim.Clamp(siege.AttackerStrength/siege.DefenderStrength, 0.25, 4.0)
				}
				if e.rng.Float64() < chance {
					siege.Stage = SiegeBreached
					impact.Events = append(impact.Events, fmt.Sprintf("the walls of %s are breached", settlementID))
					notices = append(notices, notify.New("siege_breached", settlementID, notify.PriorityCritical, nil))
					questTypes = append(questTypes, "rescue")
				}
			}
		} else if siege.Stage == SiegeBreached {
			// The day after a breach the settlement falls.
			siege.Stage = SiegeCaptured
			e.statuses[settlementID] = escalate(e.statuses[settlementID], StatusOccupation)
			impact.Events = append(impact.Events, fmt.Sprintf("%s has been captured", settlementID))
			notices = append(notices, notify.New("settlement_captured", settlementID, notify.PriorityCritical, nil))
		}

		impact.SiegeStage = siege.Stage
		severity := siegeSeverity[siege.Stage]

		casualties := int(float64(currentPopulation) * rates.Mortality * severity)
		if casualties > currentPopulation {
			casualties = currentPopulation
		}
		impact.PopulationChange = -casualties
		impact.MoraleChange = -sim.ClampUnit(rates.MoraleImpact * severity)
		impact.EconomicImpact = sim.ClampUnit(rates.EconomicDisruption * math.Min(severity, 1.0))

		// Flight is only possible before the encirclement closes.
		if siege.Stage == SiegeApproaching {
			impact.RefugeesGenerated = int(float64(currentPopulation) * rates.RefugeeGeneration * 2.0)
		}
		if !siege.Stage.terminal() {
			impact.MilitaryRecruited = int(float64(currentPopulation) * rates.Recruitment)
		}
	} else {
		casualties := int(float64(currentPopulation) * rates.Mortality)
		if casualties > currentPopulation {
			casualties = currentPopulation
		}
		impact.PopulationChange = -casualties
		impact.MoraleChange = -sim.ClampUnit(rates.MoraleImpact * 0.5)
		impact.EconomicImpact = sim.ClampUnit(rates.EconomicDisruption * 0.5)
		impact.RefugeesGenerated = int(float64(currentPopulation) * rates.RefugeeGeneration)
		impact.MilitaryRecruited = int(float64(currentPopulation) * rates.Recruitment)
	}
	impact.Status = e.statuses[settlementID]

	if impact.RefugeesGenerated > 0 {
		r := &RefugeePopulation{
			ID:               uuid.NewString(),
			OriginSettlement: settlementID,
			Count:            impact.RefugeesGenerated,
			ScenarioID:       s.ID,
			CreatedAt:        e.now(),
		}
		e.refugees[r.ID] = r
		impact.Events = append(impact.Events, fmt.Sprintf("%d refugees flee %s", r.Count, settlementID))
		questTypes = append(questTypes, "escort")
	}
	e.mu.Unlock()

	for _, n := range notices {
		e.notifier.Publish(n)
	}
	for _, qt := range questTypes {
		e.offerQuest(qt, settlementID, "war_impact")
	}
	return impact, nil
}

// EndScenario finishes a war. Member settlements transition to
// reconstruction, the record joins the immutable history, and further
// daily processing is a no-op for this scenario.
func (e *Engine) EndScenario(scenarioID, outcome string) error {
	e.mu.Lock()
	s, ok := e.scenarios[scenarioID]
	if !ok {
		e.mu.Unlock()
		return sim.NotFound("war scenario", scenarioID)
	}
	if !s.Active {
		e.mu.Unlock()
		return sim.Invalidf("scenario", scenarioID, "scenario already ended")
	}

	s.Active = false
	s.Outcome = outcome
	endedAt := e.now()
	s.EndedAt = &endedAt

	if s.Siege != nil && !s.Siege.Stage.terminal() && outcome == "defender_victory" {
		s.Siege.Stage = SiegeLiberated
	}

	for _, id := range s.Settlements {
		delete(e.byMember, id)
		e.statuses[id] = StatusReconstruction
	}
	e.history = append(e.history, HistoryRecord{
		ScenarioID:  s.ID,
		Name:        s.Name,
		Outcome:     outcome,
		Settlements: append([]string(nil), s.Settlements...),
		EndedAt:     endedAt,
	})
	settlements := append([]string(nil), s.Settlements...)
	e.mu.Unlock()

	slog.Info("war scenario ended", "scenario", scenarioID, "outcome", outcome)
	e.notifier.Publish(notify.New("war_ended", scenarioID, notify.PriorityInfo, map[string]any{
		"outcome":     outcome,
		"settlements": settlements,
	}))
	for _, id := range settlements {
		e.offerQuest("rebuilding", id, "war_impact")
	}
	return nil
}

// conflict name pool for spontaneous wars.
var conflictNames = []string{
	"Border Dispute",
	"War of Succession",
	"Raiders' Campaign",
	"Trade War",
	"Peasant Uprising",
}

// MaybeStartWar rolls for a spontaneous conflict among the candidate
// settlements. Settlements already enlisted in an active scenario are
// skipped. Returns nil when no war started.
func (e *Engine) MaybeStartWar(candidates []string) (*Scenario, error) {
	e.mu.RLock()
	var free []string
	for _, id := range candidates {
		if _, busy := e.byMember[id]; !busy {
			free = append(free, id)
		}
	}
	e.mu.RUnlock()
	if len(free) == 0 {
		return nil, nil
	}

	const baseChance = 0.002
	if e.rng.Float64() >= baseChance*float64(len(free)) {
		return nil, nil
	}

	members := []string{free[e.rng.Intn(len(free))]}
	if len(free) > 1 && e.rng.Float64() < 0.5 {
		second := free[e.rng.Intn(len(free))]
		if second != members[0] {
			members = append(members, second)
		}
	}

	name := conflictNames[e.rng.Intn(len(conflictNames))]
	intensity := 0.2 + e.rng.Float64()*0.8
	duration := 30 + e.rng.Intn(150)

	s, err := e.CreateScenario(name, members, intensity, duration)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ExpireDueScenarios ends every active scenario whose planned duration
// has elapsed for at least one member settlement. Outcomes follow the
// siege result when there is one; otherwise the dice decide. Returns
// the ended scenarios.
func (e *Engine) ExpireDueScenarios() []Scenario {
	e.mu.RLock()
	var due []*Scenario
	for _, s := range e.scenarios {
		if !s.Active {
			continue
		}
		for _, elapsed := range s.DaysElapsed {
			if elapsed >= s.DurationDays {
				due = append(due, s)
				break
			}
		}
	}
	outcomes := make(map[string]string, len(due))
	for _, s := range due {
		if s.Siege != nil && (s.Siege.Stage == SiegeCaptured || s.Siege.Stage == SiegeBreached) {
			outcomes[s.ID] = "attacker_victory"
		} else {
			picks := []string{"attacker_victory", "defender_victory", "stalemate"}
			outcomes[s.ID] = picks[e.rng.Intn(len(picks))]
		}
	}
	e.mu.RUnlock()

	var ended []Scenario
	for _, s := range due {
		if err := e.EndScenario(s.ID, outcomes[s.ID]); err != nil {
			continue
		}
		if snap, err := e.ScenarioStatus(s.ID); err == nil {
			ended = append(ended, snap)
		}
	}
	return ended
}

// GenerateRefugees records a displaced group explicitly, outside the
// daily flow (forced marches, evacuations ordered by rulers).
func (e *Engine) GenerateRefugees(settlementID string, count int) (RefugeePopulation, error) {
	if count < 1 {
		return RefugeePopulation{}, sim.Invalidf("count", count, "must be >= 1")
	}
	r := &RefugeePopulation{
		ID:               uuid.NewString(),
		OriginSettlement: settlementID,
		Count:            count,
		CreatedAt:        e.now(),
	}
	e.mu.Lock()
	e.refugees[r.ID] = r
	e.mu.Unlock()
	return *r, nil
}

// CreateReconstructionProject registers a rebuilding effort. All
// phase-dependent metrics are computed here, once, from the funding
// requirement.
func (e *Engine) CreateReconstructionProject(settlementID string, kind ProjectKind, fundingRequired float64) (ReconstructionProject, error) {
	if !projectKinds[kind] {
		return ReconstructionProject{}, sim.Invalidf("kind", kind, "unknown project kind")
	}
	if fundingRequired <= 0 {
		return ReconstructionProject{}, sim.Invalidf("funding_required", fundingRequired, "must be > 0")
	}

	phase := phaseForFunding(fundingRequired)
	profile := phaseProfiles[phase]
	p := &ReconstructionProject{
		ID:               uuid.NewString(),
		SettlementID:     settlementID,
		Kind:             kind,
		Phase:            phase,
		FundingRequired:  fundingRequired,
		Employment:       int(fundingRequired / 100.0 * profile.employmentPerHundredGold),
		CapacityRestored: profile.capacityRestored,
		EconomicBoost:    sim.ClampUnit(fundingRequired / 1000.0 * profile.boostPerThousandGold),
		CreatedAt:        e.now(),
	}

	e.mu.Lock()
	e.projects[p.ID] = p
	e.mu.Unlock()

	slog.Info("reconstruction project created",
		"settlement", settlementID,
		"kind", kind,
		"phase", phase,
		"funding", fundingRequired,
	)
	return *p, nil
}

// ScenarioStatus returns a snapshot of one scenario.
func (e *Engine) ScenarioStatus(scenarioID string) (Scenario, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.scenarios[scenarioID]
	if !ok {
		return Scenario{}, sim.NotFound("war scenario", scenarioID)
	}
	return s.snapshot(), nil
}

// ActiveScenarios lists snapshots of every active war.
func (e *Engine) ActiveScenarios() []Scenario {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []Scenario
	for _, s := range e.scenarios {
		if s.Active {
			out = append(out, s.snapshot())
		}
	}
	return out
}

// SettlementStatus returns a settlement's war posture.
func (e *Engine) SettlementStatus(settlementID string) Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if st, ok := e.statuses[settlementID]; ok {
		return st
	}
	return StatusPeace
}

// RefugeePopulations lists all recorded refugee groups.
func (e *Engine) RefugeePopulations() []RefugeePopulation {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]RefugeePopulation, 0, len(e.refugees))
	for _, r := range e.refugees {
		out = append(out, *r)
	}
	return out
}

// ReconstructionProjects lists all projects.
func (e *Engine) ReconstructionProjects() []ReconstructionProject {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]ReconstructionProject, 0, len(e.projects))
	for _, p := range e.projects {
		out = append(out, *p)
	}
	return out
}

// History returns the ended-war records, oldest first.
func (e *Engine) History() []HistoryRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]HistoryRecord(nil), e.history...)
}

// war status effect table.
var statusEffects = map[Status]sim.EffectBundle{
	StatusPeace:          {Productivity: 1.0, Morale: 1.0, GrowthRate: 1.0, MigrationPressure: 0.0, DiseaseResistance: 1.0},
	StatusTensions:       {Productivity: 0.95, Morale: 0.9, GrowthRate: 0.95, MigrationPressure: 0.05, DiseaseResistance: 1.0},
	StatusSkirmishes:     {Productivity: 0.85, Morale: 0.8, GrowthRate: 0.9, MigrationPressure: 0.1, DiseaseResistance: 1.0},
	StatusActiveWar:      {Productivity: 0.7, Morale: 0.6, GrowthRate: 0.7, MigrationPressure: 0.3, DiseaseResistance: 0.9},
	StatusSiege:          {Productivity: 0.4, Morale: 0.3, GrowthRate: 0.2, MigrationPressure: 0.6, DiseaseResistance: 0.7},
	StatusOccupation:     {Productivity: 0.6, Morale: 0.4, GrowthRate: 0.5, MigrationPressure: 0.5, DiseaseResistance: 0.9},
	StatusReconstruction: {Productivity: 0.8, Morale: 0.7, GrowthRate: 1.1, MigrationPressure: 0.2, DiseaseResistance: 1.0},
}

// PopulationEffects maps a settlement's war posture to its effect
// bundle.
func (e *Engine) PopulationEffects(settlementID string) sim.EffectBundle {
	b, ok := statusEffects[e.SettlementStatus(settlementID)]
	if !ok {
		return sim.NeutralEffects()
	}
	return b.Clamped()
}

func (e *Engine) offerQuest(templateType, settlementID, source string) {
	if op, ok := e.quests.Instantiate(templateType, settlementID, source, settlementID); ok {
		e.questSink.Offer(op)
	}
}
