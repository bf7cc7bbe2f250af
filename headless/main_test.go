package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDriver(t *testing.T, dataDir string) (*driver, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	d, err := setup(context.Background(), options{seed: 7, name: "Ada", nation: "Brazil", dataDir: dataDir, slot: "1"}, &out)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.repo.Close() })
	return d, &out
}

func TestExecCommands(t *testing.T) {
	d, out := newTestDriver(t, "")

	require.False(t, d.exec("war Argentina"))
	require.Contains(t, out.String(), "War declared against Argentina.")

	out.Reset()
	require.False(t, d.exec("war Argentina"))
	require.Contains(t, out.String(), "Rejected: already")

	out.Reset()
	require.False(t, d.exec("choose first"))
	require.Contains(t, out.String(), "choose needs a choice number")

	out.Reset()
	require.False(t, d.exec("choose 0"))
	require.Contains(t, out.String(), "Rejected: no_pending_event")

	out.Reset()
	require.False(t, d.exec("claim m1"))
	require.Contains(t, out.String(), "Rejected: not_completed")

	out.Reset()
	require.False(t, d.exec("dance"))
	require.Equal(t, usage+"\n", out.String())

	require.False(t, d.exec("   "))
	require.True(t, d.exec("QUIT"))
}

func TestFinishedCampaignRefusesCommands(t *testing.T) {
	d, out := newTestDriver(t, "")
	d.state.Flags.Victory = true

	for _, line := range []string{"war Argentina", "claim m1", "choose 0"} {
		out.Reset()
		require.False(t, d.exec(line))
		require.Equal(t, "Rejected: game_over\n", out.String(), line)
	}
	require.Empty(t, d.state.World.Wars)

	turn := d.state.Turn
	out.Reset()
	d.exec("turn")
	require.Equal(t, turn, d.state.Turn)
	require.Contains(t, out.String(), "Turn not advanced (victory).")
}

func TestStatusRendering(t *testing.T) {
	d, out := newTestDriver(t, "")
	d.exec("status")

	first := strings.SplitN(out.String(), "\n", 2)[0]
	require.Equal(t, "Ada of Brazil, 2030-01 (turn 0, idle)", first)
	require.Contains(t, out.String(), "Funds: $12,500,000")
}

func TestAutoplayStopsWithinBudget(t *testing.T) {
	d, out := newTestDriver(t, "")
	d.autoplay(24)

	require.LessOrEqual(t, d.state.Turn, 24)
	require.Positive(t, d.state.Turn)
	require.Contains(t, out.String(), "Ada of Brazil")
	for _, m := range d.state.Missions {
		if m.Completed {
			require.True(t, m.Claimed, m.ID)
		}
	}
}

func TestResumeFromFileSlot(t *testing.T) {
	dir := t.TempDir()
	d, _ := newTestDriver(t, dir)
	d.exec("turn")
	turn := d.state.Turn
	require.Equal(t, 1, turn)

	resumed, _ := newTestDriver(t, dir)
	require.Equal(t, turn, resumed.state.Turn)
	require.Equal(t, d.state.Economy.Funds, resumed.state.Economy.Funds)
}

func TestSplitPaths(t *testing.T) {
	require.Equal(t, []string{"a.yaml", "b.json"}, splitPaths(" a.yaml,, b.json "))
	require.Empty(t, splitPaths(""))
}
