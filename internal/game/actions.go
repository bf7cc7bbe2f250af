package game

import (
	"fmt"
	"math"
)

// Spending actions. Each one is refused with insufficient_funds whenever the
// treasury cannot cover the cost, which includes every negative-funds state.

const (
	investRefundRate     = 0.7
	demobilizeRefundRate = 0.8

	influenceCampaignCost int64 = 250_000
	intelOperationCost    int64 = 420_000
	intelExposurePressure       = 6
)

// Branch names a military branch.
type Branch string

const (
	BranchArmy     Branch = "army"
	BranchNavy     Branch = "navy"
	BranchAirforce Branch = "airforce"
)

var recruitCost = map[Branch]int64{
	BranchArmy:     1_000,
	BranchNavy:     5_000,
	BranchAirforce: 7_000,
}

func (m *Military) branch(b Branch) *int {
	switch b {
	case BranchArmy:
		return &m.Army
	case BranchNavy:
		return &m.Navy
	case BranchAirforce:
		return &m.Airforce
	}
	return nil
}

// Invest changes a sector's recurring monthly investment. A positive delta is
// paid up front; a negative delta withdraws up to the invested amount and
// refunds 70% of it.
func (e *Engine) Invest(s *State, sector string, delta int64) error {
	current, ok := s.Infrastructure[sector]
	if !ok {
		return reject(ReasonUnknownSector, fmt.Sprintf("no infrastructure sector %q", sector))
	}
	switch {
	case delta == 0:
		return reject(ReasonInvalidAmount, "investment delta is zero")
	case delta > 0:
		if s.Economy.Funds < delta {
			return reject(ReasonInsufficientFunds, fmt.Sprintf("investment needs %s", formatMoney(delta)))
		}
		s.Economy.Funds -= delta
		s.Infrastructure[sector] = current + delta
		e.logf(s, LogInfrastructure, fmt.Sprintf("Investment in %s raised by %s.", sector, formatMoney(delta)))
	default:
		value := min(-delta, current)
		refund := int64(roundHalfUp(float64(value) * investRefundRate))
		s.Infrastructure[sector] = current - value
		s.Economy.Funds += refund
		e.logf(s, LogInfrastructure, fmt.Sprintf("Investment in %s cut by %s (refund %s).", sector, formatMoney(value), formatMoney(refund)))
	}
	return nil
}

// Recruit adds units to a branch, or demobilises them for an 80% refund when
// delta is negative.
func (e *Engine) Recruit(s *State, branch Branch, delta int) error {
	stock := s.Military.branch(branch)
	if stock == nil {
		return reject(ReasonUnknownBranch, fmt.Sprintf("no military branch %q", branch))
	}
	unit := recruitCost[branch]
	switch {
	case delta == 0:
		return reject(ReasonInvalidAmount, "unit delta is zero")
	case delta > 0:
		cost := unit * int64(delta)
		if s.Economy.Funds < cost {
			return reject(ReasonInsufficientFunds, fmt.Sprintf("recruiting %d %s needs %s", delta, branch, formatMoney(cost)))
		}
		s.Economy.Funds -= cost
		*stock += delta
		e.logf(s, LogMilitary, fmt.Sprintf("Recruited %d %s units for %s.", delta, branch, formatMoney(cost)))
	default:
		n := min(-delta, *stock)
		refund := int64(roundHalfUp(float64(unit*int64(n)) * demobilizeRefundRate))
		*stock -= n
		s.Economy.Funds += refund
		e.logf(s, LogMilitary, fmt.Sprintf("Demobilised %d %s units (refund %s).", n, branch, formatMoney(refund)))
	}
	return nil
}

// InfluenceResult reports the outcome of an influence operation.
type InfluenceResult struct {
	Region  Region `json:"region"`
	Gain    int    `json:"gain"`
	Cost    int64  `json:"cost"`
	Exposed bool   `json:"exposed"`
}

// RunInfluenceCampaign buys 2–5 points of influence in region.
func (e *Engine) RunInfluenceCampaign(s *State, region Region) (InfluenceResult, error) {
	if _, ok := regionWeights[region]; !ok {
		return InfluenceResult{}, reject(ReasonUnknownRegion, fmt.Sprintf("no region %q", region))
	}
	if s.Economy.Funds < influenceCampaignCost {
		return InfluenceResult{}, reject(ReasonInsufficientFunds, "influence campaign needs "+formatMoney(influenceCampaignCost))
	}
	s.Economy.Funds -= influenceCampaignCost
	gain := e.influenceGain(s, e.randInt(2, 5))
	s.World.Influence.Add(region, gain)
	s.World.Dominance = s.World.Influence.Dominance()
	e.logf(s, LogMap, fmt.Sprintf("Influence campaign in %s. +%d%% (cost %s).", region, gain, formatMoney(influenceCampaignCost)))
	return InfluenceResult{Region: region, Gain: gain, Cost: influenceCampaignCost}, nil
}

// RunIntelOperation buys 3–8 points of influence in region at the risk of
// exposure, which raises international pressure.
func (e *Engine) RunIntelOperation(s *State, region Region) (InfluenceResult, error) {
	if _, ok := regionWeights[region]; !ok {
		return InfluenceResult{}, reject(ReasonUnknownRegion, fmt.Sprintf("no region %q", region))
	}
	if s.Economy.Funds < intelOperationCost {
		return InfluenceResult{}, reject(ReasonInsufficientFunds, "intelligence operation needs "+formatMoney(intelOperationCost))
	}
	s.Economy.Funds -= intelOperationCost
	gain := e.influenceGain(s, e.randInt(3, 8))
	s.World.Influence.Add(region, gain)
	s.World.Dominance = s.World.Influence.Dominance()

	threshold := math.Max(0.10, 0.35-s.Modifiers.IntelRiskReduction)
	exposed := e.rng.Float64() < threshold
	if exposed {
		s.World.Pressure = clampInt(s.World.Pressure+intelExposurePressure, 0, 100)
		e.logf(s, LogIntel, "Intelligence operation exposed. International pressure rose.")
	}
	e.logf(s, LogIntel, fmt.Sprintf("Intelligence operation in %s. +%d%% (cost %s).", region, gain, formatMoney(intelOperationCost)))
	return InfluenceResult{Region: region, Gain: gain, Cost: intelOperationCost, Exposed: exposed}, nil
}

func (e *Engine) influenceGain(s *State, base int) int {
	return int(roundHalfUp(float64(base) * (1 + s.Modifiers.InfluenceGainMult)))
}
