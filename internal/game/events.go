package game

import "fmt"

// eventChance is the monthly probability that any event fires.
const eventChance = 0.55

// Candidates lists the catalog events eligible for s right now: well formed,
// conditions satisfied and off cooldown.
func (e *Engine) Candidates(s *State) []EventDef {
	out := []EventDef{}
	for _, ev := range e.catalog.Events {
		if ev.ID == "" || len(ev.Choices) == 0 {
			continue
		}
		if !ev.Conditions.match(s) {
			continue
		}
		if last, ok := s.EventHistory[ev.ID]; ok && s.Turn-last < ev.cooldown() {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func (e *Engine) pickEvent(s *State) (EventDef, bool) {
	candidates := e.Candidates(s)
	if len(candidates) == 0 {
		return EventDef{}, false
	}
	var total float64
	for _, ev := range candidates {
		total += ev.weight()
	}
	roll := e.rng.Float64() * total
	for _, ev := range candidates {
		roll -= ev.weight()
		if roll <= 0 {
			return ev, true
		}
	}
	return candidates[len(candidates)-1], true
}

// queueEvent may select one event and make it pending. It never replaces an
// event that is already pending.
func (e *Engine) queueEvent(s *State) *PendingEvent {
	if s.PendingEvent != nil {
		return nil
	}
	if e.rng.Float64() > eventChance {
		return nil
	}
	ev, ok := e.pickEvent(s)
	if !ok {
		return nil
	}
	s.PendingEvent = snapshotEvent(ev)
	if s.EventHistory == nil {
		s.EventHistory = map[string]int{}
	}
	s.EventHistory[ev.ID] = s.Turn
	return s.PendingEvent
}

func snapshotEvent(ev EventDef) *PendingEvent {
	p := &PendingEvent{
		ID:      ev.ID,
		Type:    ev.Type,
		Title:   ev.Title,
		Speaker: ev.Speaker,
		Text:    ev.Text,
		Choices: make([]Choice, len(ev.Choices)),
	}
	if p.Type == "" {
		p.Type = defaultEventType
	}
	if p.Title == "" {
		p.Title = defaultEventTitle
	}
	if p.Speaker == "" {
		p.Speaker = defaultEventSpeaker
	}
	copy(p.Choices, ev.Choices)
	return p
}

// ResolvePendingEvent applies the chosen option of the pending event, clears
// it and evaluates endings.
func (e *Engine) ResolvePendingEvent(s *State, choiceIndex int) error {
	pending := s.PendingEvent
	if pending == nil {
		return reject(ReasonNoPendingEvent, "no event is pending")
	}
	if choiceIndex < 0 || choiceIndex >= len(pending.Choices) {
		return reject(ReasonInvalidChoice, fmt.Sprintf("choice %d out of range [0,%d)", choiceIndex, len(pending.Choices)))
	}
	choice := pending.Choices[choiceIndex]
	applyEffects(s, choice.Effects)
	e.logf(s, LogDecision, fmt.Sprintf("Decision applied: %s (%s).", choice.Label, pending.ID))
	s.PendingEvent = nil
	e.checkEndings(s)
	return nil
}
