// Command headless plays a campaign from the terminal, either interactively
// on stdin or automatically for a fixed number of turns.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"world-protocol/internal/content"
	"world-protocol/internal/game"
	"world-protocol/internal/random"
	"world-protocol/internal/store"
)

const usage = "Unknown command. Available: turn, status, war <target>, choose <n>, claim <id>, quit"

func main() {
	seedFlag := flag.Int64("seed", 0, "seed for rng (0 draws one)")
	turns := flag.Int("turns", 0, "turns to play in -auto mode")
	auto := flag.Bool("auto", false, "play -turns turns without reading stdin")
	name := flag.String("name", "Commander", "player name for a new campaign")
	nation := flag.String("nation", "Brazil", "nation for a new campaign")
	packs := flag.String("content", "", "comma separated content packs")
	dataDir := flag.String("data", "", "save directory (empty keeps saves in memory)")
	slotFlag := flag.String("slot", "1", "save slot to resume or create")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	d, err := setup(context.Background(), options{
		seed:    *seedFlag,
		name:    *name,
		nation:  *nation,
		packs:   splitPaths(*packs),
		dataDir: *dataDir,
		slot:    *slotFlag,
	}, os.Stdout)
	if err != nil {
		logger.Error("headless setup failed", "err", err)
		os.Exit(1)
	}
	defer d.repo.Close()

	if *auto {
		d.autoplay(*turns)
		return
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		if d.exec(line) {
			return
		}
	}
}

type options struct {
	seed    int64
	name    string
	nation  string
	packs   []string
	dataDir string
	slot    string
}

type driver struct {
	ctx    context.Context
	engine *game.Engine
	repo   store.Repository
	slot   store.Slot
	state  *game.State
	out    io.Writer
	seen   int
}

func setup(ctx context.Context, opts options, out io.Writer) (*driver, error) {
	catalog, err := content.Load(opts.packs...)
	if err != nil {
		return nil, err
	}
	rng, seed, err := random.Source(opts.seed)
	if err != nil {
		return nil, err
	}
	slot, err := store.ParseSlot(opts.slot)
	if err != nil {
		return nil, err
	}

	var repo store.Repository
	if opts.dataDir == "" {
		repo = store.NewMemoryRepository()
	} else if repo, err = store.NewFileRepository(opts.dataDir); err != nil {
		return nil, err
	}

	d := &driver{ctx: ctx, engine: game.New(catalog, rng), repo: repo, slot: slot, out: out}
	blob, err := repo.Load(ctx, slot)
	switch {
	case err == nil:
		st, err := game.DecodeState(blob)
		if err != nil {
			return nil, fmt.Errorf("resume %s: %w", slot, err)
		}
		d.state = d.engine.Normalize(st)
		slog.Info("campaign resumed", "slot", int(slot), "turn", d.state.Turn, "seed", seed)
	case errors.Is(err, store.ErrSlotEmpty):
		d.state = d.engine.NewState(opts.name, opts.nation)
		slog.Info("campaign started", "slot", int(slot), "nation", opts.nation, "seed", seed)
	default:
		return nil, err
	}
	d.seen = len(d.state.Log)
	return d, d.save()
}

// exec runs one command line and reports whether the driver should stop.
func (d *driver) exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, arg := strings.ToLower(fields[0]), strings.Join(fields[1:], " ")

	var err error
	switch cmd {
	case "war", "choose", "claim":
		if phase := game.PhaseOf(d.state); phase == game.PhaseGameOver || phase == game.PhaseVictory {
			fmt.Fprintf(d.out, "Rejected: %s\n", game.ErrGameOver)
			return false
		}
	}
	switch cmd {
	case "turn", "advance":
		res := d.engine.NextTurn(d.state)
		if !res.Advanced {
			fmt.Fprintf(d.out, "Turn not advanced (%s).\n", res.Phase)
		}
	case "status":
		d.renderStatus()
		return false
	case "war":
		_, err = d.engine.StartWar(d.state, arg)
	case "choose":
		n, convErr := strconv.Atoi(arg)
		if convErr != nil {
			fmt.Fprintln(d.out, "choose needs a choice number")
			return false
		}
		err = d.engine.ResolvePendingEvent(d.state, n)
	case "claim":
		err = d.engine.ClaimMissionReward(d.state, arg)
	case "quit", "exit":
		return true
	default:
		fmt.Fprintln(d.out, usage)
		return false
	}

	if err != nil {
		fmt.Fprintf(d.out, "Rejected: %s\n", err)
		return false
	}
	d.flushLog()
	if err := d.save(); err != nil {
		slog.Error("save failed", "slot", int(d.slot), "err", err)
	}
	return false
}

// autoplay advances up to turns months, taking the first choice of every
// event and claiming rewards as soon as missions complete.
func (d *driver) autoplay(turns int) {
	for i := 0; i < turns; i++ {
		switch game.PhaseOf(d.state) {
		case game.PhaseGameOver, game.PhaseVictory:
			d.renderStatus()
			return
		case game.PhasePendingDecision:
			d.exec("choose 0")
		}
		d.exec("turn")
		for _, m := range d.state.Missions {
			if m.Completed && !m.Claimed {
				d.exec("claim " + m.ID)
			}
		}
	}
	d.renderStatus()
}

func (d *driver) save() error {
	blob, err := json.Marshal(d.state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return d.repo.Save(d.ctx, d.slot, blob)
}

func (d *driver) flushLog() {
	for _, entry := range d.state.Log[d.seen:] {
		fmt.Fprintf(d.out, "[%s] %s\n", entry.Type, entry.Text)
	}
	d.seen = len(d.state.Log)
}

func (d *driver) renderStatus() {
	s := d.state
	fmt.Fprintf(d.out, "%s of %s, %04d-%02d (turn %d, %s)\n",
		s.Player.Name, s.Player.Nation, s.Calendar.Year, s.Calendar.Month, s.Turn, game.PhaseOf(s))
	fmt.Fprintf(d.out, "Funds: $%s  Income: $%s\n", humanize.Comma(s.Economy.Funds), humanize.Comma(game.CalcIncome(s)))
	fmt.Fprintf(d.out, "Stability %d  Popularity %d  Pressure %d  Dominance %d\n",
		s.World.Stability, s.World.Popularity, s.World.Pressure, s.World.Dominance)
	for _, w := range s.World.Wars {
		fmt.Fprintf(d.out, "- war %s vs %s: progress %d\n", w.ID, w.Target, w.Progress)
	}
	if p := s.PendingEvent; p != nil {
		fmt.Fprintf(d.out, "Pending: %s\n", p.Title)
		for i, c := range p.Choices {
			fmt.Fprintf(d.out, "  %d) %s\n", i, c.Label)
		}
	}
	for _, m := range s.Missions {
		if m.Completed && !m.Claimed {
			fmt.Fprintf(d.out, "Mission %s ready to claim (%s)\n", m.ID, m.Title)
		}
	}
}

func splitPaths(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
