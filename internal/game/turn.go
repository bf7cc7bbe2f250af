package game

// New-game defaults.
const (
	startFunds      int64 = 12_500_000
	startBaseIncome int64 = 500_000

	dominanceStabilityFloor = 65
	dominancePowerFloor     = 1200
)

// NewState creates the state for a new campaign, seeding missions from the
// catalog.
func (e *Engine) NewState(name, nation string) *State {
	now := e.nowMillis()
	infra := make(map[string]int64, len(defaultSectors))
	for _, sector := range defaultSectors {
		infra[sector] = 0
	}
	influence := defaultInfluence()
	s := &State{
		Meta:           Meta{Version: StateVersion, CreatedAt: now, UpdatedAt: now},
		Player:         Player{Name: name, Nation: nation},
		Calendar:       Calendar{Year: startYear, Month: 1},
		Economy:        Economy{Funds: startFunds, BaseIncome: startBaseIncome},
		Military:       Military{Army: 500, Navy: 80, Airforce: 60},
		Infrastructure: infra,
		World: World{
			Stability:  62,
			Popularity: 55,
			Pressure:   28,
			Morale:     58,
			Tech:       10,
			Threat:     18,
			Dominance:  influence.Dominance(),
			Influence:  influence,
			Wars:       []War{},
			AtWarWith:  []string{},
			Diplomacy:  map[string]int{},
		},
		Missions:     missionsFromTemplates(e.catalog.Missions),
		EventHistory: map[string]int{},
		Research:     Research{Completed: []string{}},
		Log: []LogEntry{
			{T: now, Type: LogStart, Text: "Protocol activated. You have assumed temporary command of the country."},
		},
	}
	return s
}

// TurnResult describes what one NextTurn call did. When Advanced is false the
// state was not touched and Phase says why.
type TurnResult struct {
	Advanced          bool          `json:"advanced"`
	Phase             Phase         `json:"phase"`
	Income            int64         `json:"income"`
	Upkeep            Upkeep        `json:"upkeep"`
	Wars              []WarReport   `json:"wars,omitempty"`
	Event             *PendingEvent `json:"event,omitempty"`
	CompletedMission  string        `json:"completedMission,omitempty"`
	CompletedResearch string        `json:"completedResearch,omitempty"`
	DominanceGain     int           `json:"dominanceGain"`
}

// NextTurn advances s by one month. It only works in the idle phase: a pending
// decision must be resolved first, and a finished game never advances again.
func (e *Engine) NextTurn(s *State) TurnResult {
	if phase := PhaseOf(s); phase != PhaseIdle {
		return TurnResult{Phase: phase}
	}
	res := TurnResult{Advanced: true}

	res.Income = CalcIncome(s)
	res.Upkeep = CalcUpkeep(s)
	s.Economy.Funds += res.Income - res.Upkeep.Total

	w := &s.World
	w.Stability = clampInt(w.Stability+e.randInt(-2, 2), 0, 100)
	w.Popularity = clampInt(w.Popularity+e.randInt(-2, 2), 0, 100)
	w.Pressure = clampInt(w.Pressure+e.randInt(-2, 2), 0, 100)
	w.Morale = clampInt(w.Morale+e.randInt(-2, 2), 0, 100)

	res.Wars = e.resolveWars(s)
	res.Event = e.queueEvent(s)
	if m := e.progressMissions(s); m != nil {
		res.CompletedMission = m.ID
	}
	res.CompletedResearch = e.progressResearch(s)

	s.Calendar.Month++
	if s.Calendar.Month > 12 {
		s.Calendar.Month = 1
		s.Calendar.Year++
	}

	if w.Stability >= dominanceStabilityFloor && s.Military.Power() >= dominancePowerFloor {
		before := w.Dominance
		if g := e.randInt(0, 2); g > 0 {
			shiftAllRegions(w, g)
		}
		res.DominanceGain = w.Dominance - before
	}

	s.Meta.UpdatedAt = e.nowMillis()
	s.Turn++
	e.checkEndings(s)
	res.Phase = PhaseOf(s)
	return res
}

// checkEndings sets the sticky terminal flags. Each flag is logged and
// recorded only on the transition that sets it.
func (e *Engine) checkEndings(s *State) {
	if s.Economy.Funds <= 0 && !s.Flags.GameOver {
		s.Flags.GameOver = true
		e.logf(s, LogGameOver, "Total bankruptcy. The government has collapsed.")
		e.recordEnding(s, EndingCollapse, "the treasury ran dry")
	}
	if s.World.Dominance >= 100 && !s.Flags.Victory {
		s.Flags.Victory = true
		e.logf(s, LogVictory, "Global dominance achieved. The world is unified under the Protocol.")
		e.recordEnding(s, EndingVictory, "global dominance reached 100%")
	}
}

func (e *Engine) recordEnding(s *State, kind, reason string) {
	if s.Ending != nil {
		return
	}
	s.Ending = &Ending{Type: kind, Reason: reason, At: e.nowMillis()}
}
