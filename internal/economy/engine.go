package economy

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/impactsim/internal/notify"
	"github.com/talgya/impactsim/internal/sim"
)

// Engine owns all economic state, trade routes, and events. Per-
// settlement mutations serialize through keyed locks; reads return
// snapshots.
type Engine struct {
	mu     sync.RWMutex
	states map[string]*State
	routes map[string]*TradeRoute
	events map[string]*Event

	locks sim.KeyedLocks

	rng      sim.Rand
	notifier notify.Sink
	now      func() time.Time
	log      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used for daily drift.
func WithRand(r sim.Rand) Option { return func(e *Engine) { e.rng = r } }

// WithNotifier sets the notification sink.
func WithNotifier(s notify.Sink) Option { return func(e *Engine) { e.notifier = s } }

// WithClock overrides the time source.
func WithClock(fn func() time.Time) Option { return func(e *Engine) { e.now = fn } }

// NewEngine creates an economy engine with neutral defaults.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		states:   make(map[string]*State),
		routes:   make(map[string]*TradeRoute),
		events:   make(map[string]*Event),
		rng:      sim.NewRand(time.Now().UnixNano()),
		notifier: notify.NopSink{},
		now:      time.Now,
		log:      slog.Default().With("system", "economy"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// state returns the settlement's record, creating a default one if
// missing. Caller holds the settlement keyed lock.
func (e *Engine) state(settlementID string) *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.states[settlementID]
	if !ok {
		s = newState(settlementID, e.now())
		e.states[settlementID] = s
	}
	return s
}

// State reports a settlement's economy. A settlement with no record
// yet reports a neutral default without creating one.
func (e *Engine) State(settlementID string) Snapshot {
	e.mu.RLock()
	s, ok := e.states[settlementID]
	if !ok {
		e.mu.RUnlock()
		return newState(settlementID, e.now()).snapshot()
	}
	snap := s.snapshot()
	e.mu.RUnlock()
	return snap
}

// UpdateResourceAvailability shifts one resource's scarcity and quality
// and recomputes its price. Deltas are clamped to [-1, 1].
func (e *Engine) UpdateResourceAvailability(settlementID, resourceType string, scarcityDelta, qualityDelta float64) (ResourceAvailability, error) {
	rt, err := ParseResourceType(resourceType)
	if err != nil {
		return ResourceAvailability{}, err
	}
	if scarcityDelta < -1 || scarcityDelta > 1 {
		return ResourceAvailability{}, sim.Invalidf("scarcity_change", fmt.Sprintf("%.2f", scarcityDelta), "must be in [-1, 1]")
	}
	if qualityDelta < -1 || qualityDelta > 1 {
		return ResourceAvailability{}, sim.Invalidf("quality_change", fmt.Sprintf("%.2f", qualityDelta), "must be in [-1, 1]")
	}

	unlock := e.locks.Lock(settlementID)
	defer unlock()

	s := e.state(settlementID)

	e.mu.Lock()
	r := s.Resources[rt]
	r.ScarcityLevel = sim.ClampUnit(r.ScarcityLevel + scarcityDelta)
	r.QualityModifier = sim.Clamp(r.QualityModifier+qualityDelta, 0.1, 2.0)
	r.PriceModifier = priceModifierFor(r.ScarcityLevel)
	s.LastUpdated = e.now()
	updated := *r
	e.mu.Unlock()

	if updated.ScarcityLevel >= 0.8 {
		e.notifier.Publish(notify.New("resource_shortage", settlementID, notify.PriorityWarning, map[string]any{
			"resource": string(rt),
			"scarcity": updated.ScarcityLevel,
			"category": updated.AbundanceCategory(),
		}))
	}
	return updated, nil
}

// CreateTradeRoute establishes a route between two settlements. Volume,
// travel time, and prosperity bonus derive from distance and cargo.
func (e *Engine) CreateTradeRoute(origin, destination string, goods []string, distance float64, safety string) (TradeRoute, error) {
	if origin == "" || destination == "" {
		return TradeRoute{}, sim.Invalidf("settlement_id", origin+"/"+destination, "origin and destination required")
	}
	if origin == destination {
		return TradeRoute{}, sim.Invalidf("destination_settlement", destination, "route cannot loop back to origin")
	}
	if distance <= 0 {
		return TradeRoute{}, sim.Invalidf("distance", fmt.Sprintf("%.1f", distance), "must be positive")
	}
	sf, err := ParseRouteSafety(safety)
	if err != nil {
		return TradeRoute{}, err
	}
	if len(goods) == 0 {
		return TradeRoute{}, sim.Invalidf("primary_goods", "", "at least one good required")
	}
	parsed := make([]ResourceType, 0, len(goods))
	for _, g := range goods {
		rt, err := ParseResourceType(g)
		if err != nil {
			return TradeRoute{}, err
		}
		parsed = append(parsed, rt)
	}

	// Lock both endpoints in a stable order.
	first, second := origin, destination
	if second < first {
		first, second = second, first
	}
	unlockA := e.locks.Lock(first)
	defer unlockA()
	unlockB := e.locks.Lock(second)
	defer unlockB()

	now := e.now()
	route := &TradeRoute{
		ID:              uuid.NewString(),
		Origin:          origin,
		Destination:     destination,
		Goods:           parsed,
		Distance:        distance,
		Safety:          sf,
		VolumeModifier:  sim.Clamp(1.5-distance/1000.0, 0.5, 1.5),
		TravelTimeDays:  sim.FloorInt(int(distance/30.0)) + 1,
		ProsperityBonus: 0.05 + 0.01*float64(len(parsed)),
		Active:          true,
		LastUpdated:     now,
	}
	route.MigrationInfluence = route.ProsperityBonus * 0.5

	origState := e.state(origin)
	destState := e.state(destination)

	e.mu.Lock()
	e.routes[route.ID] = route
	for _, pair := range []struct {
		s       *State
		partner string
	}{{origState, destination}, {destState, origin}} {
		pair.s.Routes = append(pair.s.Routes, route.ID)
		if !contains(pair.s.TradePartners, pair.partner) {
			pair.s.TradePartners = append(pair.s.TradePartners, pair.partner)
		}
		pair.s.TradeVolume += route.VolumeModifier
		pair.s.LastUpdated = now
	}
	e.mu.Unlock()

	e.log.Info("trade route created",
		"route_id", route.ID,
		"origin", origin,
		"destination", destination,
		"distance", distance,
		"safety", string(sf))
	e.notifier.Publish(notify.New("trade_route_created", origin, notify.PriorityInfo, map[string]any{
		"route_id":    route.ID,
		"destination": destination,
		"goods":       goods,
	}))
	return *route, nil
}

// UpdateTradeRouteSafety changes a route's safety level. A blocked
// route stays registered but contributes nothing until conditions
// improve.
func (e *Engine) UpdateTradeRouteSafety(routeID, safety string) (TradeRoute, error) {
	sf, err := ParseRouteSafety(safety)
	if err != nil {
		return TradeRoute{}, err
	}

	e.mu.RLock()
	route, ok := e.routes[routeID]
	e.mu.RUnlock()
	if !ok {
		return TradeRoute{}, sim.NotFound("trade_route", routeID)
	}

	first, second := route.Origin, route.Destination
	if second < first {
		first, second = second, first
	}
	unlockA := e.locks.Lock(first)
	defer unlockA()
	unlockB := e.locks.Lock(second)
	defer unlockB()

	e.mu.Lock()
	prev := route.Safety
	route.Safety = sf
	route.LastUpdated = e.now()
	updated := *route
	e.mu.Unlock()

	if sf == SafetyBlocked && prev != SafetyBlocked {
		for _, sid := range []string{route.Origin, route.Destination} {
			e.notifier.Publish(notify.New("trade_route_blocked", sid, notify.PriorityWarning, map[string]any{
				"route_id": route.ID,
			}))
		}
	}
	return updated, nil
}

// Route looks up a trade route by id.
func (e *Engine) Route(routeID string) (TradeRoute, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	route, ok := e.routes[routeID]
	if !ok {
		return TradeRoute{}, sim.NotFound("trade_route", routeID)
	}
	return *route, nil
}

// EventSpec describes an economic event to create.
type EventSpec struct {
	Type        string
	Name        string
	Description string
	Settlements []string
	Duration    int // days

	PopulationGrowthModifier  float64
	MigrationPressureModifier float64
	DiseaseResistanceModifier float64

	ProsperityChange     float64
	ResourceEffects      map[string]float64
	CompletionProsperity float64
	CompletionResources  map[string]float64
}

// CreateEvent starts a timed economic event. Resource effects apply
// immediately; prosperity change spreads over the duration; completion
// effects wait for expiry.
func (e *Engine) CreateEvent(spec EventSpec) (Event, error) {
	if spec.Type == "" {
		return Event{}, sim.Invalidf("event_type", "", "required")
	}
	if len(spec.Settlements) == 0 {
		return Event{}, sim.Invalidf("affected_settlements", "", "at least one settlement required")
	}
	if spec.Duration <= 0 {
		return Event{}, sim.Invalidf("duration_days", fmt.Sprintf("%d", spec.Duration), "must be positive")
	}
	resourceFx, err := parseResourceDeltas(spec.ResourceEffects)
	if err != nil {
		return Event{}, err
	}
	completionFx, err := parseResourceDeltas(spec.CompletionResources)
	if err != nil {
		return Event{}, err
	}

	ev := &Event{
		ID:           uuid.NewString(),
		Type:         spec.Type,
		Name:         spec.Name,
		Description:  spec.Description,
		Settlements:  append([]string(nil), spec.Settlements...),
		DurationDays: spec.Duration,

		PopulationGrowthModifier:  defaultModifier(spec.PopulationGrowthModifier),
		MigrationPressureModifier: defaultModifier(spec.MigrationPressureModifier),
		DiseaseResistanceModifier: defaultModifier(spec.DiseaseResistanceModifier),

		ProsperityChange:     spec.ProsperityChange,
		ResourceEffects:      resourceFx,
		CompletionProsperity: spec.CompletionProsperity,
		CompletionResources:  completionFx,

		Active:    true,
		Elapsed:   make(map[string]int, len(spec.Settlements)),
		StartDate: e.now(),
	}

	for _, sid := range ev.Settlements {
		unlock := e.locks.Lock(sid)
		s := e.state(sid)
		e.mu.Lock()
		s.ActiveEvents = append(s.ActiveEvents, ev.ID)
		for rt, delta := range ev.ResourceEffects {
			r := s.Resources[rt]
			r.ScarcityLevel = sim.ClampUnit(r.ScarcityLevel + delta)
			r.PriceModifier = priceModifierFor(r.ScarcityLevel)
		}
		s.LastUpdated = ev.StartDate
		e.mu.Unlock()
		unlock()
	}

	e.mu.Lock()
	e.events[ev.ID] = ev
	e.mu.Unlock()

	for _, sid := range ev.Settlements {
		e.notifier.Publish(notify.New("economic_event_started", sid, notify.PriorityInfo, map[string]any{
			"event_id":   ev.ID,
			"event_type": ev.Type,
			"name":       ev.Name,
			"duration":   ev.DurationDays,
		}))
	}

	e.log.Info("economic event created",
		"event_id", ev.ID,
		"event_type", ev.Type,
		"settlements", len(ev.Settlements),
		"duration_days", ev.DurationDays)
	return *ev, nil
}

// DayReport summarizes one settlement's economic day.
type DayReport struct {
	SettlementID     string   `json:"settlement_id"`
	ProsperityChange float64  `json:"prosperity_change"`
	ProsperityLevel  float64  `json:"prosperity_level"`
	EconomicStatus   Status   `json:"economic_status"`
	TradeBonus       float64  `json:"trade_bonus"`
	ExpiredEvents    []string `json:"expired_events,omitempty"`
}

// ProgressDay advances one settlement's economy by one day: random
// drift, trade route contributions, active event effects, and event
// expiry. Prosperity stays within [-1, 1].
func (e *Engine) ProgressDay(settlementID string) (DayReport, error) {
	if settlementID == "" {
		return DayReport{}, sim.Invalidf("settlement_id", "", "required")
	}

	unlock := e.locks.Lock(settlementID)
	defer unlock()

	s := e.state(settlementID)
	drift := e.rng.Float64()*0.02 - 0.01

	e.mu.Lock()

	tradeBonus := 0.0
	for _, id := range s.Routes {
		if route, ok := e.routes[id]; ok {
			tradeBonus += route.EffectiveTradeBonus()
		}
	}

	eventChange := 0.0
	var expired []string
	remaining := s.ActiveEvents[:0]
	for _, id := range s.ActiveEvents {
		ev, ok := e.events[id]
		if !ok || !ev.Active {
			continue
		}
		eventChange += ev.ProsperityChange / float64(ev.DurationDays)
		ev.Elapsed[settlementID]++
		if ev.Elapsed[settlementID] >= ev.DurationDays {
			e.expireEventLocked(ev, s)
			expired = append(expired, ev.ID)
			continue
		}
		remaining = append(remaining, id)
	}
	s.ActiveEvents = remaining

	change := drift + tradeBonus*0.01 + eventChange
	s.ProsperityLevel = sim.ClampSigned(s.ProsperityLevel + change)
	s.ProsperityTrend = s.ProsperityTrend*0.9 + change*0.1
	s.WealthPerCapita = max(0.0, s.WealthPerCapita*(1.0+s.ProsperityLevel*0.001))
	s.LastUpdated = e.now()

	report := DayReport{
		SettlementID:     settlementID,
		ProsperityChange: change,
		ProsperityLevel:  s.ProsperityLevel,
		EconomicStatus:   StatusFor(s.ProsperityLevel),
		TradeBonus:       tradeBonus,
		ExpiredEvents:    expired,
	}
	e.mu.Unlock()

	for _, id := range expired {
		e.notifier.Publish(notify.New("economic_event_ended", settlementID, notify.PriorityInfo, map[string]any{
			"event_id": id,
		}))
	}
	return report, nil
}

// expireEventLocked deactivates an event and applies its completion
// effects exactly once, no matter how many settlements it touched.
// Caller holds e.mu and the triggering settlement's keyed lock.
func (e *Engine) expireEventLocked(ev *Event, trigger *State) {
	ev.Active = false
	if ev.Completed {
		return
	}
	ev.Completed = true

	for _, sid := range ev.Settlements {
		s := trigger
		if sid != trigger.SettlementID {
			other, ok := e.states[sid]
			if !ok {
				continue
			}
			s = other
		}
		s.ProsperityLevel = sim.ClampSigned(s.ProsperityLevel + ev.CompletionProsperity)
		for rt, delta := range ev.CompletionResources {
			r := s.Resources[rt]
			r.ScarcityLevel = sim.ClampUnit(r.ScarcityLevel + delta)
			r.PriceModifier = priceModifierFor(r.ScarcityLevel)
		}
		if sid != trigger.SettlementID {
			s.ActiveEvents = remove(s.ActiveEvents, ev.ID)
		}
	}

	e.log.Info("economic event expired", "event_id", ev.ID, "event_type", ev.Type)
}

// ActiveEvents lists a settlement's running events.
func (e *Engine) ActiveEvents(settlementID string) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, ok := e.states[settlementID]
	if !ok {
		return nil
	}
	out := make([]Event, 0, len(s.ActiveEvents))
	for _, id := range s.ActiveEvents {
		if ev, ok := e.events[id]; ok && ev.Active {
			out = append(out, *ev)
		}
	}
	return out
}

// PopulationEffects derives population-facing modifiers from a
// settlement's economy: prosperity lifts productivity and growth,
// medicine and food scarcity erode disease resistance, and a strong
// economy pulls migration pressure down.
func (e *Engine) PopulationEffects(settlementID string) sim.EffectBundle {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, ok := e.states[settlementID]
	if !ok {
		return sim.NeutralEffects()
	}

	p := s.ProsperityLevel
	healthScarcity := (s.Resources[ResourceMedicine].ScarcityLevel + s.Resources[ResourceFood].ScarcityLevel) / 2

	growth := 1.0 + p*0.3
	resistance := 1.0 + p*0.2 - healthScarcity*0.3
	for _, id := range s.ActiveEvents {
		if ev, ok := e.events[id]; ok && ev.Active {
			growth *= ev.PopulationGrowthModifier
			resistance *= ev.DiseaseResistanceModifier
		}
	}

	attractiveness := p*0.5 + float64(len(s.Routes))*0.05

	return sim.EffectBundle{
		Productivity:      1.0 + p*0.3,
		Morale:            1.0 + p*0.2,
		GrowthRate:        growth,
		MigrationPressure: sim.ClampUnit(-attractiveness),
		DiseaseResistance: resistance,
	}.Clamped()
}

// Overview aggregates every known settlement's economy.
type Overview struct {
	Settlements       int            `json:"settlements"`
	AverageProsperity float64        `json:"average_prosperity"`
	StatusCounts      map[Status]int `json:"status_counts"`
	ActiveRoutes      int            `json:"active_trade_routes"`
	BlockedRoutes     int            `json:"blocked_trade_routes"`
	ActiveEvents      int            `json:"active_events"`
}

// Summary reports the world economy at a glance.
func (e *Engine) Summary() Overview {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ov := Overview{StatusCounts: make(map[Status]int)}
	total := 0.0
	ids := make([]string, 0, len(e.states))
	for id := range e.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		s := e.states[id]
		ov.Settlements++
		total += s.ProsperityLevel
		ov.StatusCounts[StatusFor(s.ProsperityLevel)]++
	}
	if ov.Settlements > 0 {
		ov.AverageProsperity = total / float64(ov.Settlements)
	}
	for _, r := range e.routes {
		if !r.Active {
			continue
		}
		if r.Safety == SafetyBlocked {
			ov.BlockedRoutes++
		} else {
			ov.ActiveRoutes++
		}
	}
	for _, ev := range e.events {
		if ev.Active {
			ov.ActiveEvents++
		}
	}
	return ov
}

func parseResourceDeltas(in map[string]float64) (map[ResourceType]float64, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[ResourceType]float64, len(in))
	for k, v := range in {
		rt, err := ParseResourceType(k)
		if err != nil {
			return nil, err
		}
		out[rt] = v
	}
	return out, nil
}

func defaultModifier(v float64) float64 {
	if v == 0 {
		return 1.0
	}
	return v
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
