package game

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

const (
	minIntensity     = 0.30
	maxIntensity     = 0.95
	initialIntensity = 0.55

	minCommitment = 0.1
	maxCommitment = 1.0
)

// DefaultCommitment is the branch allocation of a freshly declared war.
var DefaultCommitment = Commitment{Army: 0.55, Navy: 0.45, Airforce: 0.50}

func (c Commitment) clamped() Commitment {
	return Commitment{
		Army:     clampFloat(c.Army, minCommitment, maxCommitment),
		Navy:     clampFloat(c.Navy, minCommitment, maxCommitment),
		Airforce: clampFloat(c.Airforce, minCommitment, maxCommitment),
	}
}

// CommitmentPatch carries the branches to change; nil branches keep their
// current value.
type CommitmentPatch struct {
	Army     *float64 `json:"army,omitempty"`
	Navy     *float64 `json:"navy,omitempty"`
	Airforce *float64 `json:"airforce,omitempty"`
}

// EstimateEnemyPower derives a reproducible baseline in [900,1799] from the
// UTF-16 code units of the target name.
func EstimateEnemyPower(target string) int {
	score := 0
	for _, u := range utf16.Encode([]rune(target)) {
		score += int(u)
	}
	return 900 + score%900
}

func (e *Engine) newWar(s *State, target string) War {
	return War{
		ID:         e.newID("war_"),
		Target:     target,
		StartTurn:  s.Turn,
		Intensity:  initialIntensity,
		EnemyPower: EstimateEnemyPower(target),
		Commitment: DefaultCommitment,
	}
}

// StartWar declares war on target, charging stability and pressure up front.
func (e *Engine) StartWar(s *State, target string) (*War, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, reject(ReasonInvalidTarget, "war target is empty")
	}
	if s.hasWarWith(target) {
		return nil, reject(ReasonAlready, fmt.Sprintf("already at war with %s", target))
	}

	s.World.Wars = append(s.World.Wars, e.newWar(s, target))
	s.syncAtWarWith()
	s.World.Stability = clampInt(s.World.Stability-3, 0, 100)
	s.World.Pressure = clampInt(s.World.Pressure+4, 0, 100)
	e.logf(s, LogWar, fmt.Sprintf("War declared against %s.", target))

	war := s.World.Wars[len(s.World.Wars)-1]
	return &war, nil
}

// SetWarCommitment clamps each provided branch to [0.1, 1.0].
func (e *Engine) SetWarCommitment(s *State, warID string, patch CommitmentPatch) error {
	war := s.findWar(warID)
	if war == nil {
		return reject(ReasonUnknownWar, fmt.Sprintf("no war with id %q", warID))
	}
	c := war.Commitment
	if patch.Army != nil {
		c.Army = *patch.Army
	}
	if patch.Navy != nil {
		c.Navy = *patch.Navy
	}
	if patch.Airforce != nil {
		c.Airforce = *patch.Airforce
	}
	war.Commitment = c.clamped()
	return nil
}

// OurPower is the committed strength of s in a war with commitment c.
func OurPower(s *State, c Commitment) int {
	m := s.Military
	w := s.World
	p := float64(m.Army)*1.0*c.Army +
		float64(m.Navy)*6.0*c.Navy +
		float64(m.Airforce)*8.0*c.Airforce
	moraleMul := 0.70 + float64(w.Morale)/200
	techMul := 0.80 + float64(w.Tech)/200
	pressureMul := 1.05 - float64(w.Pressure)/220
	return int(roundHalfUp(p * moraleMul * techMul * pressureMul))
}

// WarReport summarises one war's monthly resolution.
type WarReport struct {
	WarID    string `json:"warId"`
	Target   string `json:"target"`
	Delta    int    `json:"delta"`
	Progress int    `json:"progress"`
	Text     string `json:"text"`
	Ended    bool   `json:"ended"`
	Victory  bool   `json:"victory"`
	OpsCost  int64  `json:"opsCost"`
	ArmyLoss int    `json:"armyLoss"`
	NavyLoss int    `json:"navyLoss"`
	AirLoss  int    `json:"airLoss"`
}

// resolveWars runs one month of every war active when it is called. Finished
// wars are removed only after the whole batch has been processed.
func (e *Engine) resolveWars(s *State) []WarReport {
	w := &s.World
	if len(w.Wars) == 0 {
		return nil
	}

	reports := make([]WarReport, 0, len(w.Wars))
	texts := make([]string, 0, len(w.Wars))
	ended := map[string]bool{}

	for i := range w.Wars {
		war := &w.Wars[i]
		r := e.resolveWar(s, war)
		if r.Ended {
			ended[war.ID] = true
		}
		reports = append(reports, r)
		texts = append(texts, r.Text)
	}

	e.logf(s, LogWarReport, strings.Join(texts, " "))

	if len(ended) > 0 {
		kept := w.Wars[:0]
		for _, war := range w.Wars {
			if !ended[war.ID] {
				kept = append(kept, war)
			}
		}
		w.Wars = kept
		s.syncAtWarWith()
	}
	return reports
}

func (e *Engine) resolveWar(s *State, war *War) WarReport {
	w := &s.World
	mil := &s.Military

	war.EnemyPower = int(roundHalfUp(float64(war.EnemyPower) * (0.985 + e.rng.Float64()*0.045)))
	if war.EnemyPower < 1 {
		war.EnemyPower = 1
	}
	war.Intensity = clampFloat(war.Intensity+(e.rng.Float64()-0.5)*0.06, minIntensity, maxIntensity)

	ours := OurPower(s, war.Commitment)
	enemy := int(roundHalfUp(float64(war.EnemyPower) * (0.85 + float64(w.Threat)/160)))

	swingBase := float64(ours-enemy) / 120
	swing := roundHalfUp(swingBase + float64(e.randInt(-2, 2)))
	delta := int(roundHalfUp(swing * (0.55 + war.Intensity)))
	war.Progress = clampInt(war.Progress+delta, -100, 100)

	lossFactor := 0.0025 + war.Intensity*0.004
	armyLoss := casualties(mil.Army, war.Commitment.Army, lossFactor)
	navyLoss := casualties(mil.Navy, war.Commitment.Navy, lossFactor*0.35)
	airLoss := casualties(mil.Airforce, war.Commitment.Airforce, lossFactor*0.28)
	mil.Army -= armyLoss
	mil.Navy -= navyLoss
	mil.Airforce -= airLoss

	opsCost := int64(roundHalfUp(float64(ours) * 1.1 * (0.55 + war.Intensity)))
	s.Economy.Funds -= opsCost

	w.Morale = clampInt(w.Morale-int(roundHalfUp(float64(armyLoss)/40))+e.randInt(-1, 1), 0, 100)
	w.Stability = clampInt(w.Stability-int(roundHalfUp(float64(opsCost)/350_000))+e.randInt(-1, 1), 0, 100)
	w.Pressure = clampInt(w.Pressure+int(roundHalfUp(war.Intensity*2))+e.randInt(-1, 1), 0, 100)

	text := fmt.Sprintf("Conflict against %s: %s", war.Target, frontTier(delta))
	war.LastReport = text

	r := WarReport{
		WarID:    war.ID,
		Target:   war.Target,
		Delta:    delta,
		Progress: war.Progress,
		Text:     text,
		OpsCost:  opsCost,
		ArmyLoss: armyLoss,
		NavyLoss: navyLoss,
		AirLoss:  airLoss,
	}

	region := NationRegion(war.Target)
	switch {
	case war.Progress >= 100:
		gain := e.randInt(6, 12)
		w.Influence.Add(region, gain)
		w.Dominance = w.Influence.Dominance()
		w.Pressure = clampInt(w.Pressure-e.randInt(2, 6), 0, 100)
		w.Morale = clampInt(w.Morale+e.randInt(4, 10), 0, 100)
		e.logf(s, LogWarEnd, fmt.Sprintf("Victory against %s. +%d%% influence in %s.", war.Target, gain, region))
		r.Ended, r.Victory = true, true
	case war.Progress <= -100:
		loss := e.randInt(6, 12)
		w.Influence.Add(region, -loss)
		w.Dominance = w.Influence.Dominance()
		w.Stability = clampInt(w.Stability-e.randInt(8, 16), 0, 100)
		w.Popularity = clampInt(w.Popularity-e.randInt(6, 14), 0, 100)
		e.logf(s, LogWarEnd, fmt.Sprintf("Defeat against %s. -%d%% influence in %s.", war.Target, loss, region))
		r.Ended = true
	}
	return r
}

// casualties is the loss for one branch, never negative and never above stock.
func casualties(stock int, share, factor float64) int {
	loss := int(roundHalfUp(float64(stock) * share * factor))
	return clampInt(loss, 0, stock)
}

func frontTier(delta int) string {
	switch {
	case delta >= 3:
		return "significant advance."
	case delta > 0:
		return "light advance."
	case delta == 0:
		return "front stabilized."
	case delta > -3:
		return "light retreat."
	default:
		return "significant retreat."
	}
}
