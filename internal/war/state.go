package war

// EngineState is the serializable form of the engine's store. Every
// contained type already carries JSON tags, so the export is a plain
// deep copy.
type EngineState struct {
	Scenarios []Scenario              `json:"scenarios"`
	Statuses  map[string]Status       `json:"statuses"`
	Refugees  []RefugeePopulation     `json:"refugees"`
	Projects  []ReconstructionProject `json:"projects"`
	History   []HistoryRecord         `json:"history"`
}

// ExportState copies the store for persistence.
func (e *Engine) ExportState() EngineState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := EngineState{
		Statuses: make(map[string]Status, len(e.statuses)),
		History:  append([]HistoryRecord(nil), e.history...),
	}
	for _, s := range e.scenarios {
		st.Scenarios = append(st.Scenarios, s.snapshot())
	}
	for id, s := range e.statuses {
		st.Statuses[id] = s
	}
	for _, r := range e.refugees {
		st.Refugees = append(st.Refugees, *r)
	}
	for _, p := range e.projects {
		st.Projects = append(st.Projects, *p)
	}
	return st
}

// ImportState replaces the store with a previously exported one and
// rebuilds the settlement-to-scenario index from active scenarios.
func (e *Engine) ImportState(st EngineState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.scenarios = make(map[string]*Scenario, len(st.Scenarios))
	e.byMember = make(map[string]string)
	for i := range st.Scenarios {
		s := st.Scenarios[i].snapshot()
		if s.DaysElapsed == nil {
			s.DaysElapsed = make(map[string]int)
		}
		e.scenarios[s.ID] = &s
		if s.Active {
			for _, id := range s.Settlements {
				e.byMember[id] = s.ID
			}
		}
	}

	e.statuses = make(map[string]Status, len(st.Statuses))
	for id, s := range st.Statuses {
		e.statuses[id] = s
	}

	e.refugees = make(map[string]*RefugeePopulation, len(st.Refugees))
	for i := range st.Refugees {
		r := st.Refugees[i]
		e.refugees[r.ID] = &r
	}

	e.projects = make(map[string]*ReconstructionProject, len(st.Projects))
	for i := range st.Projects {
		p := st.Projects[i]
		e.projects[p.ID] = &p
	}

	e.history = append([]HistoryRecord(nil), st.History...)
}
