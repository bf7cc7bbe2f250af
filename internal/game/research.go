package game

import "fmt"

// StartResearch makes techID the active project, replacing any project in
// progress. The first month must be affordable.
func (e *Engine) StartResearch(s *State, techID string) error {
	t, ok := e.catalog.tech(techID)
	if !ok {
		return reject(ReasonUnknownTech, fmt.Sprintf("no tech with id %q", techID))
	}
	if s.Research.HasCompleted(t.ID) {
		return reject(ReasonTechLocked, fmt.Sprintf("%s is already researched", t.Name))
	}
	for _, req := range t.Requires {
		if !s.Research.HasCompleted(req) {
			return reject(ReasonTechLocked, fmt.Sprintf("%s requires %s", t.Name, req))
		}
	}
	if s.Economy.Funds < t.CostPerTurn {
		return reject(ReasonInsufficientFunds, fmt.Sprintf("%s costs %s per turn", t.Name, formatMoney(t.CostPerTurn)))
	}
	s.Research.ActiveID = t.ID
	s.Research.Progress = 0
	e.logf(s, LogResearch, fmt.Sprintf("Research started: %s.", t.Name))
	return nil
}

// progressResearch funds one month of the active project. A project the
// treasury cannot pay for stalls without progress.
func (e *Engine) progressResearch(s *State) string {
	r := &s.Research
	if r.ActiveID == "" {
		return ""
	}
	t, ok := e.catalog.tech(r.ActiveID)
	if !ok {
		r.ActiveID = ""
		r.Progress = 0
		return ""
	}
	if s.Economy.Funds < t.CostPerTurn {
		return ""
	}
	s.Economy.Funds -= t.CostPerTurn
	r.Progress = clampInt(r.Progress+t.progressPerTurn(), 0, 100)
	if r.Progress < 100 {
		return ""
	}

	r.Completed = append(r.Completed, t.ID)
	r.ActiveID = ""
	r.Progress = 0
	applyEffects(s, t.Effects)
	s.Modifiers.InfluenceGainMult += t.Modifiers.InfluenceGainMult
	s.Modifiers.IntelRiskReduction += t.Modifiers.IntelRiskReduction
	e.logf(s, LogResearch, fmt.Sprintf("Research completed: %s.", t.Name))
	return t.ID
}
