package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/xplshn/gpyc/pkg/cli"
	"modernc.org/libqbe"
)

type Feature int

const (
	FeatDirectBool Feature = iota
	FeatDirectFloat
	FeatDirectStr
	FeatCount
)

type Warning int

const (
	WarnLargeConstant Warning = iota
	WarnNaNConstant
	WarnUndefinedGlobal
	WarnPedantic
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

// DefaultLargeConstant is the element count above which a collection constant
// is reported by -Wlarge-constant. Deduplicating collections compares every
// element with every other one.
const DefaultLargeConstant = 4096

type Config struct {
	Features      map[Feature]Info
	Warnings      map[Warning]Info
	FeatureMap    map[string]Feature
	WarningMap    map[string]Warning
	GOOS          string
	GOARCH        string
	BackendTarget string
	WordSize      int
	WordType      string
	LongSize      int // width of a C long, 4 on LLP64 targets
	LargeConstant int
	Verbose       bool
}

func NewConfig() *Config {
	cfg := &Config{
		Features:      make(map[Feature]Info),
		Warnings:      make(map[Warning]Info),
		FeatureMap:    make(map[string]Feature),
		WarningMap:    make(map[string]Warning),
		WordSize:      8,
		WordType:      "l",
		LongSize:      8,
		LargeConstant: DefaultLargeConstant,
	}

	features := map[Feature]Info{
		FeatDirectBool:  {"direct-bool", false, "Build bool constants from the runtime singletons instead of a blob."},
		FeatDirectFloat: {"direct-float", false, "Build float constants from a double literal instead of a blob."},
		FeatDirectStr:   {"direct-str", false, "Build str constants from a data string instead of a blob."},
	}

	warnings := map[Warning]Info{
		WarnLargeConstant:   {"large-constant", true, "Warn about collection constants whose deduplication is quadratic in size."},
		WarnNaNConstant:     {"nan-constant", false, "Warn when a not-a-number float is pooled."},
		WarnUndefinedGlobal: {"undefined-global", false, "Warn about names that resolve to module globals the unit never defines."},
		WarnPedantic:        {"pedantic", false, "Issue all warnings."},
		WarnExtra:           {"extra", true, "Enable extra miscellaneous warnings."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

// SetTarget configures the word and C long sizes for a QBE target.
func (c *Config) SetTarget(goos, goarch, qbeTarget string) {
	c.GOOS, c.GOARCH = goos, goarch
	if qbeTarget == "" {
		c.BackendTarget = libqbe.DefaultTarget(goos, goarch)
	} else {
		c.BackendTarget = qbeTarget
	}

	switch c.BackendTarget {
	case "amd64_sysv", "amd64_apple", "arm64", "arm64_apple", "rv64":
		c.WordSize, c.WordType = 8, "l"
	case "arm", "rv32":
		c.WordSize, c.WordType = 4, "w"
	default:
		fmt.Fprintf(os.Stderr, "gpyc: warning: unrecognized or unsupported QBE target '%s'.\n", c.BackendTarget)
		fmt.Fprintf(os.Stderr, "gpyc: warning: defaulting to 64-bit properties. Compilation may fail.\n")
		c.WordSize, c.WordType = 8, "l"
	}

	c.LongSize = c.WordSize
	if goos == "windows" {
		c.LongSize = 4
	}
}

// SmallIntFits reports whether v can be built directly from a C long on the
// target, without going through a blob.
func (c *Config) SmallIntFits(v int64) bool {
	if c.LongSize >= 8 {
		return true
	}
	return v >= math.MinInt32 && v <= math.MaxInt32
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool {
	return c.Warnings[wt].Enabled || (wt != WarnPedantic && c.Warnings[WarnPedantic].Enabled)
}

// ApplyFlag handles one -W<name>, -Wno-<name>, -F<name> or -Fno-<name> flag.
func (c *Config) ApplyFlag(flag string) error {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	var isWarning bool

	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
	default:
		return fmt.Errorf("unrecognized flag '%s'", flag)
	}
	if isNo {
		name = strings.TrimPrefix(name, "no-")
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			if i != WarnPedantic {
				c.SetWarning(i, enable)
			}
		}
		return nil
	}

	if isWarning {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enable)
			return nil
		}
		return fmt.Errorf("unknown warning '%s'", name)
	}
	if f, ok := c.FeatureMap[name]; ok {
		c.SetFeature(f, enable)
		return nil
	}
	return fmt.Errorf("unknown feature '%s'", name)
}

// SetupFlagGroups registers -W and -F flag groups on fs, each entry starting
// from the current state so the help page shows the defaults. The returned
// entries are indexed by Warning and Feature respectively.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) ([]cli.FlagGroupEntry, []cli.FlagGroupEntry) {
	var warningFlags, featureFlags []cli.FlagGroupEntry

	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		pEnable, pDisable := &info.Enabled, new(bool)
		warningFlags = append(warningFlags, cli.FlagGroupEntry{
			Name: info.Name, Prefix: "W", Usage: info.Description, Enabled: pEnable, Disabled: pDisable,
		})
	}

	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		pEnable, pDisable := &info.Enabled, new(bool)
		featureFlags = append(featureFlags, cli.FlagGroupEntry{
			Name: info.Name, Prefix: "F", Usage: info.Description, Enabled: pEnable, Disabled: pDisable,
		})
	}

	fs.AddFlagGroup("Warning Flags", "Enable or disable specific warnings", "warning flag", "Available Warning Flags:", warningFlags)
	fs.AddFlagGroup("Feature Flags", "Enable or disable specific features", "feature flag", "Available Features:", featureFlags)

	return warningFlags, featureFlags
}

// ApplyFlagGroups copies parsed group flags into the config; explicit
// disables win over enables.
func (c *Config) ApplyFlagGroups(warningFlags, featureFlags []cli.FlagGroupEntry) {
	for i, entry := range warningFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetWarning(Warning(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetWarning(Warning(i), false)
		}
	}
	for i, entry := range featureFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetFeature(Feature(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
}
