// Package content loads the game catalog: the embedded base manifest plus any
// number of content packs from disk.
package content

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"world-protocol/internal/game"
)

//go:embed base.yaml
var baseManifest []byte

// Manifest is the on-disk shape of a content pack. JSON packs decode too,
// since YAML is a superset of JSON.
type Manifest struct {
	Nations  []string               `yaml:"nations"`
	Missions []game.MissionTemplate `yaml:"missions"`
	Events   []game.EventDef        `yaml:"events"`
	Tech     []game.TechDef         `yaml:"tech"`
}

// Parse decodes one pack. A top-level sequence is read as a bare list of
// events; anything else must be a manifest.
func Parse(data []byte) (Manifest, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Manifest{}, fmt.Errorf("parse pack: %w", err)
	}
	if len(root.Content) == 0 {
		return Manifest{}, nil
	}
	var m Manifest
	doc := root.Content[0]
	if doc.Kind == yaml.SequenceNode {
		if err := doc.Decode(&m.Events); err != nil {
			return Manifest{}, fmt.Errorf("parse event list: %w", err)
		}
		return m, nil
	}
	if err := doc.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}

// ReadFile reads and parses the pack at path.
func ReadFile(path string) (Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	m, err := Parse(b)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Load builds the catalog from the base manifest followed by each pack in
// paths. Packs that are missing or fail to parse are skipped with a warning;
// only a broken base manifest is an error. Nations, missions, events and tech
// are de-duplicated by identifier, first definition wins.
func Load(paths ...string) (game.Catalog, error) {
	base, err := Parse(baseManifest)
	if err != nil {
		return game.Catalog{}, fmt.Errorf("base content: %w", err)
	}
	packs := []Manifest{base}
	for _, p := range paths {
		m, err := ReadFile(p)
		if err != nil {
			slog.Warn("content pack skipped", "path", p, "error", err)
			continue
		}
		slog.Debug("content pack loaded", "path", p, "events", len(m.Events), "missions", len(m.Missions), "tech", len(m.Tech))
		packs = append(packs, m)
	}
	return Merge(packs...), nil
}

// Merge concatenates packs in order and drops duplicates. Nations and events
// without an identifier are dropped; missions without one are kept so the
// engine can number them.
func Merge(packs ...Manifest) game.Catalog {
	cat := game.Catalog{
		Nations:  []string{},
		Missions: []game.MissionTemplate{},
		Events:   []game.EventDef{},
		Tech:     []game.TechDef{},
	}
	nations := map[string]bool{}
	missions := map[string]bool{}
	events := map[string]bool{}
	tech := map[string]bool{}

	for _, p := range packs {
		for _, n := range p.Nations {
			if n == "" || nations[n] {
				continue
			}
			nations[n] = true
			cat.Nations = append(cat.Nations, n)
		}
		for _, m := range p.Missions {
			if m.ID != "" {
				if missions[m.ID] {
					continue
				}
				missions[m.ID] = true
			}
			cat.Missions = append(cat.Missions, m)
		}
		for _, ev := range p.Events {
			if ev.ID == "" || events[ev.ID] {
				continue
			}
			events[ev.ID] = true
			cat.Events = append(cat.Events, ev)
		}
		for _, t := range p.Tech {
			if t.ID == "" || tech[t.ID] {
				continue
			}
			tech[t.ID] = true
			cat.Tech = append(cat.Tech, t)
		}
	}
	return cat
}
