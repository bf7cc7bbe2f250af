package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// legacyShape returns the defaults older saves were read against. Decoding on
// top of it means a missing JSON field keeps its legacy default instead of the
// Go zero value.
func legacyShape() *State {
	return &State{
		Meta:     Meta{Version: StateVersion},
		Player:   Player{Name: "Commander", Nation: "—"},
		Calendar: Calendar{Year: startYear, Month: 1},
		World: World{
			Stability:  50,
			Popularity: 50,
			Pressure:   30,
			Morale:     50,
			Tech:       10,
			Threat:     20,
			Dominance:  0,
			Influence:  defaultInfluence(),
		},
	}
}

// DecodeState parses a persisted blob. The result still needs Normalize.
func DecodeState(data []byte) (*State, error) {
	s := legacyShape()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return s, nil
}

// Normalize backfills and clamps s in place so every invariant of the state
// model holds, migrating the legacy atWarWith list into wars. Valid fields are
// left alone and a second call changes nothing.
func (e *Engine) Normalize(s *State) *State {
	if s == nil {
		return nil
	}
	now := e.nowMillis()
	if s.Meta.Version == "" {
		s.Meta.Version = StateVersion
	}
	if s.Meta.CreatedAt == 0 {
		s.Meta.CreatedAt = now
	}
	if s.Meta.UpdatedAt == 0 {
		s.Meta.UpdatedAt = s.Meta.CreatedAt
	}

	if s.Calendar.Year <= 0 {
		s.Calendar.Year = startYear
	}
	s.Calendar.Month = clampInt(s.Calendar.Month, 1, 12)
	if s.Turn < 0 {
		s.Turn = 0
	}

	s.Military.Army = max(0, s.Military.Army)
	s.Military.Navy = max(0, s.Military.Navy)
	s.Military.Airforce = max(0, s.Military.Airforce)

	if s.Infrastructure == nil {
		s.Infrastructure = map[string]int64{}
		for _, sector := range defaultSectors {
			s.Infrastructure[sector] = 0
		}
	}
	for k, v := range s.Infrastructure {
		if v < 0 {
			s.Infrastructure[k] = 0
		}
	}

	normalizeWorld(s)
	e.normalizeWars(s)

	for i := range s.Missions {
		if s.Missions[i].Claimed {
			s.Missions[i].Completed = true
		}
		if s.Missions[i].Reward < 0 {
			s.Missions[i].Reward = 0
		}
	}
	if s.Missions == nil {
		s.Missions = []Mission{}
	}
	if s.EventHistory == nil {
		s.EventHistory = map[string]int{}
	}
	if s.Log == nil {
		s.Log = []LogEntry{}
	}
	if s.Research.Completed == nil {
		s.Research.Completed = []string{}
	}
	s.Research.Progress = clampInt(s.Research.Progress, 0, 100)
	return s
}

func normalizeWorld(s *State) {
	w := &s.World
	w.Stability = clampInt(w.Stability, 0, 100)
	w.Popularity = clampInt(w.Popularity, 0, 100)
	w.Pressure = clampInt(w.Pressure, 0, 100)
	w.Morale = clampInt(w.Morale, 0, 100)
	w.Tech = clampInt(w.Tech, 0, 100)
	w.Threat = clampInt(w.Threat, 0, 100)
	w.Dominance = clampInt(w.Dominance, 0, 100)
	w.Influence.clamp()
	if w.Diplomacy == nil {
		w.Diplomacy = map[string]int{}
	}
	for k, v := range w.Diplomacy {
		w.Diplomacy[k] = clampInt(v, 0, 100)
	}
}

func (e *Engine) normalizeWars(s *State) {
	w := &s.World
	if len(w.Wars) == 0 && len(w.AtWarWith) > 0 {
		for _, target := range w.AtWarWith {
			target = strings.TrimSpace(target)
			if target == "" || s.hasWarWith(target) {
				continue
			}
			w.Wars = append(w.Wars, e.newWar(s, target))
		}
	}

	wars := make([]War, 0, len(w.Wars))
	seen := map[string]bool{}
	for _, war := range w.Wars {
		if war.Target == "" || seen[war.Target] {
			continue
		}
		seen[war.Target] = true
		if war.ID == "" {
			war.ID = e.newID("war_")
		}
		war.Progress = clampInt(war.Progress, -100, 100)
		if war.Intensity == 0 {
			war.Intensity = initialIntensity
		}
		war.Intensity = clampFloat(war.Intensity, minIntensity, maxIntensity)
		if war.EnemyPower <= 0 {
			war.EnemyPower = EstimateEnemyPower(war.Target)
		}
		if war.Commitment == (Commitment{}) {
			war.Commitment = DefaultCommitment
		}
		war.Commitment = war.Commitment.clamped()
		wars = append(wars, war)
	}
	w.Wars = wars
	s.syncAtWarWith()
}
