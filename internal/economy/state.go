package economy

// EngineState is the serializable form of the engine's store.
type EngineState struct {
	States []State      `json:"states"`
	Routes []TradeRoute `json:"routes"`
	Events []Event      `json:"events"`
}

// ExportState copies the store for persistence.
func (e *Engine) ExportState() EngineState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var st EngineState
	for _, s := range e.states {
		copied := *s
		copied.Routes = append([]string(nil), s.Routes...)
		copied.TradePartners = append([]string(nil), s.TradePartners...)
		copied.ActiveEvents = append([]string(nil), s.ActiveEvents...)
		copied.Resources = make(map[ResourceType]*ResourceAvailability, len(s.Resources))
		for rt, r := range s.Resources {
			res := *r
			copied.Resources[rt] = &res
		}
		st.States = append(st.States, copied)
	}
	for _, r := range e.routes {
		route := *r
		route.Goods = append([]ResourceType(nil), r.Goods...)
		st.Routes = append(st.Routes, route)
	}
	for _, ev := range e.events {
		event := *ev
		event.Settlements = append([]string(nil), ev.Settlements...)
		event.Elapsed = make(map[string]int, len(ev.Elapsed))
		for k, v := range ev.Elapsed {
			event.Elapsed[k] = v
		}
		st.Events = append(st.Events, event)
	}
	return st
}

// ImportState replaces the store with a previously exported one.
// Settlements restored without a full resource map get the missing
// entries backfilled at neutral scarcity.
func (e *Engine) ImportState(st EngineState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.states = make(map[string]*State, len(st.States))
	for i := range st.States {
		s := st.States[i]
		if s.Resources == nil {
			s.Resources = make(map[ResourceType]*ResourceAvailability)
		}
		for _, rt := range ResourceTypes() {
			if _, ok := s.Resources[rt]; !ok {
				s.Resources[rt] = &ResourceAvailability{
					Type:            rt,
					ScarcityLevel:   0.3,
					QualityModifier: 1.0,
					PriceModifier:   priceModifierFor(0.3),
				}
			}
		}
		e.states[s.SettlementID] = &s
	}

	e.routes = make(map[string]*TradeRoute, len(st.Routes))
	for i := range st.Routes {
		r := st.Routes[i]
		e.routes[r.ID] = &r
	}

	e.events = make(map[string]*Event, len(st.Events))
	for i := range st.Events {
		ev := st.Events[i]
		if ev.Elapsed == nil {
			ev.Elapsed = make(map[string]int)
		}
		e.events[ev.ID] = &ev
	}
}
