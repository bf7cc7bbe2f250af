package game

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

const (
	missionStabilityFloor = 70
	missionChance         = 0.25
)

// missionsFromTemplates seeds a new game's missions from the catalog.
func missionsFromTemplates(templates []MissionTemplate) []Mission {
	out := make([]Mission, 0, len(templates))
	for i, t := range templates {
		m := Mission{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Reward:      max(0, t.Reward),
		}
		if m.ID == "" {
			m.ID = fmt.Sprintf("m%d", i+1)
		}
		if m.Title == "" {
			m.Title = "Mission"
		}
		out = append(out, m)
	}
	return out
}

func (e *Engine) progressMissions(s *State) *Mission {
	if s.World.Stability < missionStabilityFloor {
		return nil
	}
	pending := make([]int, 0, len(s.Missions))
	for i, m := range s.Missions {
		if !m.Completed {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	if e.rng.Float64() >= missionChance {
		return nil
	}
	m := &s.Missions[pending[e.rng.Intn(len(pending))]]
	m.Completed = true
	e.logf(s, LogMission, fmt.Sprintf("Mission completed: %s.", m.Title))
	return m
}

// ClaimMissionReward pays a completed mission's reward exactly once.
func (e *Engine) ClaimMissionReward(s *State, missionID string) error {
	m := s.findMission(missionID)
	switch {
	case m == nil:
		return reject(ReasonUnknownMission, fmt.Sprintf("no mission with id %q", missionID))
	case !m.Completed:
		return reject(ReasonNotCompleted, fmt.Sprintf("mission %q is not completed", missionID))
	case m.Claimed:
		return reject(ReasonAlreadyClaimed, fmt.Sprintf("mission %q was already claimed", missionID))
	}
	m.Claimed = true
	s.Economy.Funds += m.Reward
	e.logf(s, LogReward, fmt.Sprintf("Reward received: +%s (%s).", formatMoney(m.Reward), m.Title))
	return nil
}

func formatMoney(v int64) string {
	return "$" + humanize.Comma(v)
}
