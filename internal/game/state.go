// Package game is the World Protocol turn engine: the state model and every
// rule that mutates it. It performs no I/O; callers load, normalize, mutate and
// persist a State through the commands exposed by Engine.
package game

const (
	StateVersion = "1.1.0"

	startYear = 2030
)

// Sector names used by the income formula and new-game defaults.
const (
	SectorTransport = "transport"
	SectorHealth    = "health"
	SectorEducation = "education"
	SectorScience   = "science"
	SectorSpace     = "space"
)

var defaultSectors = []string{SectorTransport, SectorHealth, SectorEducation, SectorScience, SectorSpace}

// Log entry types.
const (
	LogStart          = "start"
	LogWar            = "war"
	LogWarReport      = "war_report"
	LogWarEnd         = "war_end"
	LogMission        = "mission"
	LogReward         = "reward"
	LogDecision       = "decision"
	LogGameOver       = "gameover"
	LogVictory        = "victory"
	LogMap            = "map"
	LogIntel          = "intel"
	LogResearch       = "research"
	LogInfrastructure = "infrastructure"
	LogMilitary       = "military"
)

// Ending types recorded on the first terminal transition.
const (
	EndingVictory  = "victory"
	EndingCollapse = "collapse"
)

type State struct {
	Meta           Meta             `json:"meta"`
	Player         Player           `json:"player"`
	Calendar       Calendar         `json:"calendar"`
	Turn           int              `json:"turn"`
	Economy        Economy          `json:"economy"`
	Military       Military         `json:"military"`
	Infrastructure map[string]int64 `json:"infrastructure"`
	World          World            `json:"world"`
	Missions       []Mission        `json:"missions"`
	PendingEvent   *PendingEvent    `json:"pendingEvent"`
	EventHistory   map[string]int   `json:"eventHistory"`
	Log            []LogEntry       `json:"log"`
	Flags          Flags            `json:"flags"`
	Research       Research         `json:"research"`
	Modifiers      Modifiers        `json:"modifiers"`
	Ending         *Ending          `json:"ending,omitempty"`
}

type Meta struct {
	Version   string `json:"version"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

type Player struct {
	Name   string `json:"name"`
	Nation string `json:"nation"`
}

type Calendar struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type Economy struct {
	Funds      int64 `json:"funds"`
	BaseIncome int64 `json:"baseIncome"`
	Debt       int64 `json:"debt"`
}

type Military struct {
	Army     int `json:"army"`
	Navy     int `json:"navy"`
	Airforce int `json:"airforce"`
}

// Power is the weighted strength used for passive dominance growth.
func (m Military) Power() int {
	return m.Army + m.Navy*4 + m.Airforce*5
}

type World struct {
	Stability  int            `json:"stability"`
	Popularity int            `json:"popularity"`
	Pressure   int            `json:"pressure"`
	Morale     int            `json:"morale"`
	Tech       int            `json:"tech"`
	Threat     int            `json:"threat"`
	Dominance  int            `json:"dominance"`
	Influence  Influence      `json:"influence"`
	Wars       []War          `json:"wars"`
	AtWarWith  []string       `json:"atWarWith"`
	Diplomacy  map[string]int `json:"diplomacy"`
}

type War struct {
	ID         string     `json:"id"`
	Target     string     `json:"target"`
	StartTurn  int        `json:"startTurn"`
	Progress   int        `json:"progress"`
	Intensity  float64    `json:"intensity"`
	EnemyPower int        `json:"enemyPower"`
	Commitment Commitment `json:"commitment"`
	LastReport string     `json:"lastReport"`
}

// Commitment is the share of each branch allocated to one war.
type Commitment struct {
	Army     float64 `json:"army"`
	Navy     float64 `json:"navy"`
	Airforce float64 `json:"airforce"`
}

type Mission struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Reward      int64  `json:"reward"`
	Completed   bool   `json:"completed"`
	Claimed     bool   `json:"claimed"`
}

// PendingEvent is a by-value snapshot of a catalog event awaiting a decision.
type PendingEvent struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Title   string   `json:"title"`
	Speaker string   `json:"speaker"`
	Text    string   `json:"text"`
	Choices []Choice `json:"choices"`
}

type LogEntry struct {
	T    int64  `json:"t"`
	Type string `json:"type"`
	Text string `json:"text"`
}

type Flags struct {
	GameOver bool `json:"gameOver"`
	Victory  bool `json:"victory"`
}

type Research struct {
	ActiveID  string   `json:"activeId"`
	Progress  int      `json:"progress"`
	Completed []string `json:"completed"`
}

// HasCompleted reports whether tech id is already researched.
func (r Research) HasCompleted(id string) bool {
	for _, c := range r.Completed {
		if c == id {
			return true
		}
	}
	return false
}

// Modifiers are permanent bonuses granted by completed research.
type Modifiers struct {
	InfluenceGainMult  float64 `yaml:"influenceGainMult" json:"influenceGainMult"`
	IntelRiskReduction float64 `yaml:"intelRiskReduction" json:"intelRiskReduction"`
}

type Ending struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
	At     int64  `json:"at"`
}

// Phase is the orchestrator state derived from a State.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhasePendingDecision Phase = "pending_decision"
	PhaseGameOver        Phase = "game_over"
	PhaseVictory         Phase = "victory"
)

// PhaseOf reports which orchestrator state s is in. Terminal flags win over a
// pending decision.
func PhaseOf(s *State) Phase {
	switch {
	case s.Flags.GameOver:
		return PhaseGameOver
	case s.Flags.Victory:
		return PhaseVictory
	case s.PendingEvent != nil:
		return PhasePendingDecision
	default:
		return PhaseIdle
	}
}

func (s *State) findWar(id string) *War {
	for i := range s.World.Wars {
		if s.World.Wars[i].ID == id {
			return &s.World.Wars[i]
		}
	}
	return nil
}

func (s *State) hasWarWith(target string) bool {
	for _, w := range s.World.Wars {
		if w.Target == target {
			return true
		}
	}
	return false
}

func (s *State) findMission(id string) *Mission {
	for i := range s.Missions {
		if s.Missions[i].ID == id {
			return &s.Missions[i]
		}
	}
	return nil
}

func (s *State) syncAtWarWith() {
	targets := make([]string, 0, len(s.World.Wars))
	seen := map[string]bool{}
	for _, w := range s.World.Wars {
		if seen[w.Target] {
			continue
		}
		seen[w.Target] = true
		targets = append(targets, w.Target)
	}
	s.World.AtWarWith = targets
}
