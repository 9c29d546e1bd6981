package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Bounds for numeric settings.
const (
	MinDisplayPerCall = 1
	MaxDisplayPerCall = 100
	MinMaxLoops       = 1
	MaxMaxLoops       = 10
)

// Setting field names, shared by the persisted overrides, the environment
// layer and the admin commands.
const (
	FieldSearchKeywords   = "search_keywords"
	FieldIncludeKeywords  = "include_keywords"
	FieldExcludeKeywords  = "exclude_keywords"
	FieldDisplayPerCall   = "display_per_call"
	FieldMaxLoops         = "max_loops"
	FieldMinSendThreshold = "min_send_threshold"
	FieldForceHours       = "force_hours"
)

// Fields lists every setting field in display order.
var Fields = []string{
	FieldSearchKeywords,
	FieldIncludeKeywords,
	FieldExcludeKeywords,
	FieldDisplayPerCall,
	FieldMaxLoops,
	FieldMinSendThreshold,
	FieldForceHours,
}

// Settings is the fully resolved configuration of one run.
type Settings struct {
	SearchKeywords   []string `json:"search_keywords"`
	IncludeKeywords  []string `json:"include_keywords"`
	ExcludeKeywords  []string `json:"exclude_keywords"`
	DisplayPerCall   int      `json:"display_per_call"`
	MaxLoops         int      `json:"max_loops"`
	MinSendThreshold int      `json:"min_send_threshold"`
	ForceHours       []int    `json:"force_hours"`
}

// IsForceHour reports whether hour is one of the configured force hours.
func (s Settings) IsForceHour(hour int) bool {
	return slices.Contains(s.ForceHours, hour)
}

// Partial is one layer of the settings chain. Empty slices and nil pointers
// mean "not set here".
type Partial struct {
	SearchKeywords   []string `yaml:"search_keywords"`
	IncludeKeywords  []string `yaml:"include_keywords"`
	ExcludeKeywords  []string `yaml:"exclude_keywords"`
	DisplayPerCall   *int     `yaml:"display_per_call"`
	MaxLoops         *int     `yaml:"max_loops"`
	MinSendThreshold *int     `yaml:"min_send_threshold"`
	ForceHours       []int    `yaml:"force_hours"`
}

// Defaults returns the built-in last layer of the settings chain.
func Defaults() Partial {
	display, loops, threshold := 100, 5, 5
	return Partial{
		SearchKeywords:   []string{"news"},
		DisplayPerCall:   &display,
		MaxLoops:         &loops,
		MinSendThreshold: &threshold,
		ForceHours:       []int{0, 8, 12, 18},
	}
}

// Merge combines sources into a single Partial. Earlier sources win per field.
func Merge(sources ...Partial) Partial {
	var out Partial
	for _, src := range sources {
		if len(out.SearchKeywords) == 0 {
			out.SearchKeywords = src.SearchKeywords
		}
		if len(out.IncludeKeywords) == 0 {
			out.IncludeKeywords = src.IncludeKeywords
		}
		if len(out.ExcludeKeywords) == 0 {
			out.ExcludeKeywords = src.ExcludeKeywords
		}
		if out.DisplayPerCall == nil {
			out.DisplayPerCall = src.DisplayPerCall
		}
		if out.MaxLoops == nil {
			out.MaxLoops = src.MaxLoops
		}
		if out.MinSendThreshold == nil {
			out.MinSendThreshold = src.MinSendThreshold
		}
		if len(out.ForceHours) == 0 {
			out.ForceHours = src.ForceHours
		}
	}
	return out
}

// Resolve merges sources in priority order, falls back to Defaults for
// anything left unset, and clamps the result to valid bounds.
func Resolve(sources ...Partial) Settings {
	p := Merge(append(slices.Clone(sources), Defaults())...)
	return Settings{
		SearchKeywords:   cleanList(p.SearchKeywords),
		IncludeKeywords:  cleanList(p.IncludeKeywords),
		ExcludeKeywords:  cleanList(p.ExcludeKeywords),
		DisplayPerCall:   clamp(*p.DisplayPerCall, MinDisplayPerCall, MaxDisplayPerCall),
		MaxLoops:         clamp(*p.MaxLoops, MinMaxLoops, MaxMaxLoops),
		MinSendThreshold: max(0, *p.MinSendThreshold),
		ForceHours:       cleanHours(p.ForceHours),
	}
}

// DecodeRecord parses a consolidated settings record. JSON is accepted as
// well as YAML.
func DecodeRecord(raw string) (Partial, error) {
	var p Partial
	if err := yaml.Unmarshal([]byte(raw), &p); err != nil {
		return Partial{}, fmt.Errorf("decode settings record: %w", err)
	}
	return p, nil
}

// LoadSettingsFile reads a YAML settings file.
func LoadSettingsFile(path string) (Partial, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return Partial{}, fmt.Errorf("read settings file: %w", err)
	}
	p, err := DecodeRecord(string(data))
	if err != nil {
		return Partial{}, fmt.Errorf("settings file %s: %w", path, err)
	}
	return p, nil
}

// EnvSettings builds a Partial from upper-cased field names looked up with
// getenv.
func EnvSettings(getenv func(string) string) (Partial, error) {
	var p Partial
	for _, field := range Fields {
		raw := getenv(strings.ToUpper(field))
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if err := SetField(&p, field, raw); err != nil {
			return Partial{}, fmt.Errorf("env %s: %w", strings.ToUpper(field), err)
		}
	}
	return p, nil
}

// SetField parses a single discrete value into p.
// Lists are comma separated.
func SetField(p *Partial, field, raw string) error {
	switch field {
	case FieldSearchKeywords:
		p.SearchKeywords = splitList(raw)
	case FieldIncludeKeywords:
		p.IncludeKeywords = splitList(raw)
	case FieldExcludeKeywords:
		p.ExcludeKeywords = splitList(raw)
	case FieldDisplayPerCall, FieldMaxLoops, FieldMinSendThreshold:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s must be an integer, got %q", field, raw)
		}
		switch field {
		case FieldDisplayPerCall:
			p.DisplayPerCall = &n
		case FieldMaxLoops:
			p.MaxLoops = &n
		default:
			p.MinSendThreshold = &n
		}
	case FieldForceHours:
		var hours []int
		for _, s := range splitList(raw) {
			h, err := strconv.Atoi(s)
			if err != nil || h < 0 || h > 23 {
				return fmt.Errorf("force hour %q must be between 0 and 23", s)
			}
			hours = append(hours, h)
		}
		p.ForceHours = hours
	default:
		return fmt.Errorf("unknown setting %q", field)
	}
	return nil
}

// FormatField renders a resolved field the way SetField accepts it.
func (s Settings) FormatField(field string) string {
	switch field {
	case FieldSearchKeywords:
		return strings.Join(s.SearchKeywords, ", ")
	case FieldIncludeKeywords:
		return strings.Join(s.IncludeKeywords, ", ")
	case FieldExcludeKeywords:
		return strings.Join(s.ExcludeKeywords, ", ")
	case FieldDisplayPerCall:
		return strconv.Itoa(s.DisplayPerCall)
	case FieldMaxLoops:
		return strconv.Itoa(s.MaxLoops)
	case FieldMinSendThreshold:
		return strconv.Itoa(s.MinSendThreshold)
	case FieldForceHours:
		parts := make([]string, len(s.ForceHours))
		for i, h := range s.ForceHours {
			parts[i] = strconv.Itoa(h)
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func cleanHours(in []int) []int {
	var out []int
	for _, h := range in {
		if h >= 0 && h <= 23 && !slices.Contains(out, h) {
			out = append(out, h)
		}
	}
	slices.Sort(out)
	return out
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
