package game

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

type Region string

const (
	RegionAmericas Region = "americas"
	RegionEurope   Region = "europe"
	RegionAfrica   Region = "africa"
	RegionAsia     Region = "asia"
	RegionOceania  Region = "oceania"
)

// Regions lists the fixed regions in display order.
var Regions = []Region{RegionAmericas, RegionEurope, RegionAfrica, RegionAsia, RegionOceania}

var regionWeights = map[Region]float64{
	RegionAmericas: 1.1,
	RegionEurope:   1.0,
	RegionAfrica:   0.9,
	RegionAsia:     1.2,
	RegionOceania:  0.6,
}

// ParseRegion accepts a region key in any case.
func ParseRegion(raw string) (Region, bool) {
	r := Region(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := regionWeights[r]
	return r, ok
}

type Influence struct {
	Americas int `json:"americas"`
	Europe   int `json:"europe"`
	Africa   int `json:"africa"`
	Asia     int `json:"asia"`
	Oceania  int `json:"oceania"`
}

func defaultInfluence() Influence {
	return Influence{Americas: 5, Europe: 3, Africa: 2, Asia: 3, Oceania: 1}
}

// UnmarshalJSON treats regions missing from a present influence object as 0,
// so legacy defaults only apply when the whole object is absent or null.
func (in *Influence) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	type plain Influence
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*in = Influence(p)
	return nil
}

func (in *Influence) ptr(r Region) *int {
	switch r {
	case RegionAmericas:
		return &in.Americas
	case RegionEurope:
		return &in.Europe
	case RegionAfrica:
		return &in.Africa
	case RegionAsia:
		return &in.Asia
	case RegionOceania:
		return &in.Oceania
	}
	return nil
}

func (in Influence) Get(r Region) int {
	if p := in.ptr(r); p != nil {
		return *p
	}
	return 0
}

// Add shifts one region by delta, clamped to [0,100].
func (in *Influence) Add(r Region, delta int) {
	if p := in.ptr(r); p != nil {
		*p = clampInt(*p+delta, 0, 100)
	}
}

func (in *Influence) clamp() {
	for _, r := range Regions {
		in.Add(r, 0)
	}
}

// Dominance is the weighted regional average, rounded and clamped.
func (in Influence) Dominance() int {
	var sum, wsum float64
	for _, r := range Regions {
		w := regionWeights[r]
		sum += float64(in.Get(r)) * w
		wsum += w
	}
	return clampInt(int(roundHalfUp(sum/wsum)), 0, 100)
}

var nationRegion = map[string]Region{
	"Brazil":         RegionAmericas,
	"Brasil":         RegionAmericas,
	"United States":  RegionAmericas,
	"Estados Unidos": RegionAmericas,
	"Mexico":         RegionAmericas,
	"México":         RegionAmericas,
	"Canada":         RegionAmericas,
	"Canadá":         RegionAmericas,
	"Argentina":      RegionAmericas,
	"Russia":         RegionEurope,
	"Rússia":         RegionEurope,
	"Ukraine":        RegionEurope,
	"Ucrânia":        RegionEurope,
	"Europe":         RegionEurope,
	"Europa":         RegionEurope,
	"United Kingdom": RegionEurope,
	"Reino Unido":    RegionEurope,
	"France":         RegionEurope,
	"França":         RegionEurope,
	"Germany":        RegionEurope,
	"Alemanha":       RegionEurope,
	"China":          RegionAsia,
	"Japan":          RegionAsia,
	"Japão":          RegionAsia,
	"India":          RegionAsia,
	"Índia":          RegionAsia,
	"South Korea":    RegionAsia,
	"Coreia do Sul":  RegionAsia,
	"Middle East":    RegionAsia,
	"Oriente Médio":  RegionAsia,
	"Africa":         RegionAfrica,
	"África":         RegionAfrica,
	"Nigeria":        RegionAfrica,
	"Nigéria":        RegionAfrica,
	"South Africa":   RegionAfrica,
	"África do Sul":  RegionAfrica,
	"Australia":      RegionOceania,
	"Austrália":      RegionOceania,
	"Oceania":        RegionOceania,
}

var regionKeywords = []struct {
	region Region
	words  []string
}{
	{RegionAsia, []string{"china", "jap", "india", "core", "korea", "asia", "orient", "middle east"}},
	{RegionEurope, []string{"europ", "fran", "alem", "german", "russ", "uk", "reino", "kingdom", "ucr", "ukr"}},
	{RegionAfrica, []string{"afri", "niger", "sul"}},
	{RegionOceania, []string{"austr", "ocea", "zealand"}},
}

// NationRegion infers the region a nation belongs to: exact table first, then
// keyword match, defaulting to the Americas.
func NationRegion(nation string) Region {
	if nation == "" {
		return RegionAmericas
	}
	if r, ok := nationRegion[nation]; ok {
		return r
	}
	t := strings.ToLower(nation)
	for _, k := range regionKeywords {
		for _, w := range k.words {
			if strings.Contains(t, w) {
				return k.region
			}
		}
	}
	return RegionAmericas
}

func clampInt(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

func clampFloat(v, low, high float64) float64 {
	return math.Max(low, math.Min(high, v))
}

// roundHalfUp rounds .5 toward +Inf for negative and positive values alike.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
