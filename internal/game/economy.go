package game

// Upkeep is the recurring monthly cost of a state.
type Upkeep struct {
	Military       int64 `json:"militaryUpkeep"`
	Infrastructure int64 `json:"infraUpkeep"`
	Total          int64 `json:"total"`
}

// Per-unit monthly upkeep.
const (
	armyUpkeep     = 120
	navyUpkeep     = 600
	airforceUpkeep = 750
)

// CalcIncome is the monthly income before upkeep. Stability scales it between
// 0.75x and 1.25x.
func CalcIncome(s *State) int64 {
	inf := s.Infrastructure
	boost := roundHalfUp((float64(inf[SectorTransport])*0.03 +
		float64(inf[SectorEducation])*0.02 +
		float64(inf[SectorScience])*0.04) / 10_000)
	stabMul := 0.75 + float64(s.World.Stability)/200
	return int64(roundHalfUp((float64(s.Economy.BaseIncome) + boost) * stabMul))
}

// CalcUpkeep sums military and infrastructure costs. Each sector's investment
// is charged again every month.
func CalcUpkeep(s *State) Upkeep {
	m := s.Military
	mil := int64(m.Army)*armyUpkeep + int64(m.Navy)*navyUpkeep + int64(m.Airforce)*airforceUpkeep
	var infra int64
	for _, v := range s.Infrastructure {
		infra += v
	}
	return Upkeep{Military: mil, Infrastructure: infra, Total: mil + infra}
}
