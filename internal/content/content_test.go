package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"world-protocol/internal/game"
)

func writePack(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadBaseCatalog(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	require.Contains(t, cat.Nations, "Brazil")
	require.Len(t, cat.Missions, 5)
	require.Len(t, cat.Events, 10)
	require.Len(t, cat.Tech, 6)

	ids := map[string]bool{}
	for _, tech := range cat.Tech {
		ids[tech.ID] = true
	}
	for _, tech := range cat.Tech {
		require.Positive(t, tech.Turns, tech.ID)
		for _, req := range tech.Requires {
			require.True(t, ids[req], "%s requires unknown tech %s", tech.ID, req)
		}
	}
	for _, ev := range cat.Events {
		require.NotEmpty(t, ev.Choices, ev.ID)
	}
}

func TestBaseCatalogDecodesNestedFields(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	var strike, bonds game.EventDef
	for _, ev := range cat.Events {
		switch ev.ID {
		case "general_strike":
			strike = ev
		case "war_bonds":
			bonds = ev
		}
	}
	require.NotNil(t, strike.Conditions.StabilityBelow)
	require.Equal(t, 60, *strike.Conditions.StabilityBelow)
	require.Equal(t, 8, strike.Cooldown)
	require.InDelta(t, 1.2, strike.Weight, 1e-9)
	require.Equal(t, int64(-600000), strike.Choices[0].Effects.Funds)

	require.NotNil(t, bonds.Conditions.AtWar)
	require.True(t, *bonds.Conditions.AtWar)

	var satellites game.TechDef
	for _, tech := range cat.Tech {
		if tech.ID == "satellite_network" {
			satellites = tech
		}
	}
	require.InDelta(t, 0.1, satellites.Modifiers.IntelRiskReduction, 1e-9)
	require.Equal(t, []string{"logistics_grid"}, satellites.Requires)
}

func TestParseBareEventList(t *testing.T) {
	m, err := Parse([]byte(`[{"id": "flood", "conditions": {"turnAbove": 2}, "choices": [{"label": "Evacuate", "effects": {"funds": -5000, "stability": 2}}]}]`))
	require.NoError(t, err)
	require.Len(t, m.Events, 1)

	ev := m.Events[0]
	require.Equal(t, "flood", ev.ID)
	require.Equal(t, 2, *ev.Conditions.TurnAbove)
	require.Equal(t, game.Effects{Funds: -5000, Stability: 2}, ev.Choices[0].Effects)
}

func TestParseEmptyDocument(t *testing.T) {
	m, err := Parse(nil)
	require.NoError(t, err)
	require.Empty(t, m.Events)
}

func TestLoadMergesPacksAndSkipsBrokenOnes(t *testing.T) {
	dir := t.TempDir()
	manifest := writePack(t, dir, "dlc.yaml", `
nations: [Brazil, Atlantis, ""]
missions:
  - id: m1
    title: Duplicate of a base mission
  - title: Unnamed bonus mission
    reward: 10
events:
  - id: general_strike
    text: Overrides must not replace the base event.
    choices: [{label: ok}]
  - id: atlantis_rises
    text: An island surfaces.
    choices: [{label: Claim it, effects: {dominance: 2}}]
`)
	events := writePack(t, dir, "events.json", `[{"id": "tsunami", "choices": [{"label": "Rebuild"}]}, {"choices": [{"label": "No id"}]}]`)
	broken := writePack(t, dir, "broken.yaml", "events: [unclosed")
	missing := filepath.Join(dir, "nope.yaml")

	cat, err := Load(manifest, broken, missing, events)
	require.NoError(t, err)

	require.Contains(t, cat.Nations, "Atlantis")
	require.NotContains(t, cat.Nations, "")
	count := 0
	for _, n := range cat.Nations {
		if n == "Brazil" {
			count++
		}
	}
	require.Equal(t, 1, count)

	require.Len(t, cat.Missions, 6)
	require.Equal(t, "Restore order in the capital", cat.Missions[0].Title)
	require.Empty(t, cat.Missions[5].ID)

	require.Len(t, cat.Events, 12)
	for _, ev := range cat.Events {
		if ev.ID == "general_strike" {
			require.NotEqual(t, "Overrides must not replace the base event.", ev.Text)
		}
	}
	require.Equal(t, "tsunami", cat.Events[len(cat.Events)-1].ID)
}

func TestBaseCatalogStartsAGame(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	e := game.New(cat, constRand{})
	s := e.NewState("Ada", cat.Nations[0])
	require.Len(t, s.Missions, len(cat.Missions))
	require.NoError(t, e.StartResearch(s, "logistics_grid"))
}

type constRand struct{}

func (constRand) Intn(n int) int { return n / 2 }

func (constRand) Float64() float64 { return 0.5 }
