package game

// Catalog is the immutable content an Engine is built with. Callers must not
// mutate it after handing it to New.
type Catalog struct {
	Nations  []string          `yaml:"nations" json:"nations"`
	Missions []MissionTemplate `yaml:"missions" json:"missions"`
	Events   []EventDef        `yaml:"events" json:"events"`
	Tech     []TechDef         `yaml:"tech" json:"tech"`
}

type MissionTemplate struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Reward      int64  `yaml:"reward" json:"reward"`
}

type EventDef struct {
	ID         string     `yaml:"id" json:"id"`
	Type       string     `yaml:"type" json:"type"`
	Title      string     `yaml:"title" json:"title"`
	Speaker    string     `yaml:"speaker" json:"speaker"`
	Text       string     `yaml:"text" json:"text"`
	Conditions Conditions `yaml:"conditions" json:"conditions"`
	Cooldown   int        `yaml:"cooldown" json:"cooldown"`
	Weight     float64    `yaml:"weight" json:"weight"`
	Choices    []Choice   `yaml:"choices" json:"choices"`
}

const (
	defaultCooldown = 6
	defaultWeight   = 1.0

	defaultEventType    = "event"
	defaultEventTitle   = "OFFICIAL COMMUNICATION"
	defaultEventSpeaker = "Operations Center • Provisional Government"
)

func (ev EventDef) cooldown() int {
	if ev.Cooldown <= 0 {
		return defaultCooldown
	}
	return ev.Cooldown
}

func (ev EventDef) weight() float64 {
	if ev.Weight <= 0 {
		return defaultWeight
	}
	return ev.Weight
}

type Choice struct {
	Label   string  `yaml:"label" json:"label"`
	Hint    string  `yaml:"hint" json:"hint"`
	Effects Effects `yaml:"effects" json:"effects"`
}

// Conditions gate an event. A nil field is ignored; every set field must hold.
// All comparisons are strict.
type Conditions struct {
	TurnBelow       *int   `yaml:"turnBelow" json:"turnBelow,omitempty"`
	TurnAbove       *int   `yaml:"turnAbove" json:"turnAbove,omitempty"`
	StabilityBelow  *int   `yaml:"stabilityBelow" json:"stabilityBelow,omitempty"`
	StabilityAbove  *int   `yaml:"stabilityAbove" json:"stabilityAbove,omitempty"`
	PopularityBelow *int   `yaml:"popularityBelow" json:"popularityBelow,omitempty"`
	PopularityAbove *int   `yaml:"popularityAbove" json:"popularityAbove,omitempty"`
	PressureBelow   *int   `yaml:"pressureBelow" json:"pressureBelow,omitempty"`
	PressureAbove   *int   `yaml:"pressureAbove" json:"pressureAbove,omitempty"`
	MoraleBelow     *int   `yaml:"moraleBelow" json:"moraleBelow,omitempty"`
	MoraleAbove     *int   `yaml:"moraleAbove" json:"moraleAbove,omitempty"`
	FundsBelow      *int64 `yaml:"fundsBelow" json:"fundsBelow,omitempty"`
	FundsAbove      *int64 `yaml:"fundsAbove" json:"fundsAbove,omitempty"`
	TechBelow       *int   `yaml:"techBelow" json:"techBelow,omitempty"`
	TechAbove       *int   `yaml:"techAbove" json:"techAbove,omitempty"`
	DominanceBelow  *int   `yaml:"dominanceBelow" json:"dominanceBelow,omitempty"`
	DominanceAbove  *int   `yaml:"dominanceAbove" json:"dominanceAbove,omitempty"`
	ThreatBelow     *int   `yaml:"threatBelow" json:"threatBelow,omitempty"`
	ThreatAbove     *int   `yaml:"threatAbove" json:"threatAbove,omitempty"`
	ArmyBelow       *int   `yaml:"armyBelow" json:"armyBelow,omitempty"`
	ArmyAbove       *int   `yaml:"armyAbove" json:"armyAbove,omitempty"`
	AtWar           *bool  `yaml:"atWar" json:"atWar,omitempty"`
}

// Effects are additive deltas. Zero fields are no-ops, so copying an Effects
// value never aliases catalog data.
type Effects struct {
	Funds      int64 `yaml:"funds" json:"funds,omitempty"`
	BaseIncome int64 `yaml:"baseIncome" json:"baseIncome,omitempty"`
	Debt       int64 `yaml:"debt" json:"debt,omitempty"`
	Stability  int   `yaml:"stability" json:"stability,omitempty"`
	Popularity int   `yaml:"popularity" json:"popularity,omitempty"`
	Pressure   int   `yaml:"pressure" json:"pressure,omitempty"`
	Morale     int   `yaml:"morale" json:"morale,omitempty"`
	Tech       int   `yaml:"tech" json:"tech,omitempty"`
	Threat     int   `yaml:"threat" json:"threat,omitempty"`
	Dominance  int   `yaml:"dominance" json:"dominance,omitempty"`
	Army       int   `yaml:"army" json:"army,omitempty"`
	Navy       int   `yaml:"navy" json:"navy,omitempty"`
	Airforce   int   `yaml:"airforce" json:"airforce,omitempty"`
}

// TechDef is one node of the research tree.
type TechDef struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Category    string    `yaml:"category" json:"category"`
	Tier        int       `yaml:"tier" json:"tier"`
	Desc        string    `yaml:"desc" json:"desc"`
	Turns       int       `yaml:"turns" json:"turns"`
	CostPerTurn int64     `yaml:"costPerTurn" json:"costPerTurn"`
	Requires    []string  `yaml:"requires" json:"requires"`
	Effects     Effects   `yaml:"effects" json:"effects"`
	Modifiers   Modifiers `yaml:"modifiers" json:"modifiers"`
}

// progressPerTurn is the percentage one funded turn adds.
func (t TechDef) progressPerTurn() int {
	if t.Turns <= 0 {
		return 100
	}
	p := int(roundHalfUp(100 / float64(t.Turns)))
	if p < 1 {
		p = 1
	}
	return p
}

func (c *Catalog) tech(id string) (TechDef, bool) {
	for _, t := range c.Tech {
		if t.ID == id {
			return t, true
		}
	}
	return TechDef{}, false
}

func (c Conditions) match(s *State) bool {
	w := s.World
	below := func(limit *int, v int) bool { return limit == nil || v < *limit }
	above := func(limit *int, v int) bool { return limit == nil || v > *limit }

	if !below(c.TurnBelow, s.Turn) || !above(c.TurnAbove, s.Turn) {
		return false
	}
	if !below(c.StabilityBelow, w.Stability) || !above(c.StabilityAbove, w.Stability) {
		return false
	}
	if !below(c.PopularityBelow, w.Popularity) || !above(c.PopularityAbove, w.Popularity) {
		return false
	}
	if !below(c.PressureBelow, w.Pressure) || !above(c.PressureAbove, w.Pressure) {
		return false
	}
	if !below(c.MoraleBelow, w.Morale) || !above(c.MoraleAbove, w.Morale) {
		return false
	}
	if c.FundsBelow != nil && !(s.Economy.Funds < *c.FundsBelow) {
		return false
	}
	if c.FundsAbove != nil && !(s.Economy.Funds > *c.FundsAbove) {
		return false
	}
	if !below(c.TechBelow, w.Tech) || !above(c.TechAbove, w.Tech) {
		return false
	}
	if !below(c.DominanceBelow, w.Dominance) || !above(c.DominanceAbove, w.Dominance) {
		return false
	}
	if !below(c.ThreatBelow, w.Threat) || !above(c.ThreatAbove, w.Threat) {
		return false
	}
	if !below(c.ArmyBelow, s.Military.Army) || !above(c.ArmyAbove, s.Military.Army) {
		return false
	}
	if c.AtWar != nil && *c.AtWar != (len(w.Wars) > 0) {
		return false
	}
	return true
}

// applyEffects adds fx to s: economy unbounded, military floored at 0, world
// metrics clamped. A dominance delta is added to the stored dominance and
// applied to every region as well.
func applyEffects(s *State, fx Effects) {
	s.Economy.Funds += fx.Funds
	s.Economy.BaseIncome += fx.BaseIncome
	s.Economy.Debt += fx.Debt

	w := &s.World
	w.Stability = clampInt(w.Stability+fx.Stability, 0, 100)
	w.Popularity = clampInt(w.Popularity+fx.Popularity, 0, 100)
	w.Pressure = clampInt(w.Pressure+fx.Pressure, 0, 100)
	w.Morale = clampInt(w.Morale+fx.Morale, 0, 100)
	w.Tech = clampInt(w.Tech+fx.Tech, 0, 100)
	w.Threat = clampInt(w.Threat+fx.Threat, 0, 100)
	if fx.Dominance != 0 {
		shiftAllRegions(w, fx.Dominance)
	}

	s.Military.Army = max(0, s.Military.Army+fx.Army)
	s.Military.Navy = max(0, s.Military.Navy+fx.Navy)
	s.Military.Airforce = max(0, s.Military.Airforce+fx.Airforce)
}

func shiftAllRegions(w *World, delta int) {
	for _, r := range Regions {
		w.Influence.Add(r, delta)
	}
	w.Dominance = clampInt(w.Dominance+delta, 0, 100)
}
