package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Feature int

const (
	FeatExceptions Feature = iota
	FeatSharedEHStorage
	FeatTypeInfoNames
	FeatVerifyStack
	FeatCount
)

type Warning int

const (
	WarnUnreachableCode Warning = iota
	WarnEmptyFinally
	WarnDeadCatch
	WarnPedantic
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

// RuntimeSyms names the unwinding runtime entry points the generated code
// refers to. They are resolved by name only; the backend never sees their
// definitions.
type RuntimeSyms struct {
	Personality  string `yaml:"personality"`
	ResumeUnwind string `yaml:"resume_unwind"`
	Throw        string `yaml:"throw"`
	ExceptionNew string `yaml:"exception_new"`
}

type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning

	TargetName string
	Triple     string
	WordSize   int
	StackAlign int
	Runtime    RuntimeSyms
	Verbose    bool
}

func NewConfig() *Config {
	cfg := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
	}

	features := map[Feature]Info{
		FeatExceptions:      {"exceptions", true, "Lower try/catch/finally statements (off: reject programs that use them)."},
		FeatSharedEHStorage: {"shared-eh-storage", true, "Reuse one exception storage slot across catch clauses without nested references."},
		FeatTypeInfoNames:   {"typeinfo-names", true, "Embed class names in emitted TypeInfo globals."},
		FeatVerifyStack:     {"verify-stack", true, "Check exception scope stack discipline during generation."},
	}

	warnings := map[Warning]Info{
		WarnUnreachableCode: {"unreachable-code", true, "Warn about statements that will never be executed."},
		WarnEmptyFinally:    {"empty-finally", false, "Warn when a finally clause has an empty body."},
		WarnDeadCatch:       {"dead-catch", true, "Warn when a catch clause is shadowed by an earlier clause of the same or a base class."},
		WarnPedantic:        {"pedantic", false, "Issue all warnings, including the nitpicks."},
		WarnExtra:           {"extra", true, "Warn about suspicious but well-formed constructs (e.g. a throw inside a finally clause)."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	cfg.SetTarget("", "")
	return cfg
}

// defaultRuntime is the glc runtime's unwinding surface. Profiles may
// override every name, e.g. to link against an alternative EH runtime.
var defaultRuntime = RuntimeSyms{
	Personality:  "_gx_eh_personality",
	ResumeUnwind: "_gx_eh_resume_unwind",
	Throw:        "_gx_eh_throw",
	ExceptionNew: "_gx_exception_new",
}

// SetTarget configures the backend for a named target profile.
func (c *Config) SetTarget(goarch, name string) {
	if name == "" {
		switch goarch {
		case "arm64":
			name = "arm64"
		default:
			name = "amd64_sysv"
		}
	}
	c.TargetName = name
	c.Runtime = defaultRuntime

	switch name {
	case "amd64_sysv":
		c.Triple, c.WordSize, c.StackAlign = "x86_64-unknown-linux-gnu", 8, 16
	case "arm64":
		c.Triple, c.WordSize, c.StackAlign = "aarch64-unknown-linux-gnu", 8, 16
	default:
		fmt.Fprintf(os.Stderr, "glc: warning: unrecognized target profile '%s'.\n", name)
		fmt.Fprintf(os.Stderr, "glc: warning: defaulting to 64-bit SysV properties. Generated IR may not link.\n")
		c.Triple, c.WordSize, c.StackAlign = "x86_64-unknown-linux-gnu", 8, 16
	}
}

// profileFile mirrors the YAML layout of a target profile.
type profileFile struct {
	Name       string      `yaml:"name"`
	Triple     string      `yaml:"triple"`
	WordSize   int         `yaml:"word_size"`
	StackAlign int         `yaml:"stack_align"`
	Runtime    RuntimeSyms `yaml:"runtime"`
}

// LoadProfile reads a target profile from a YAML file, overriding the
// built-in target table.
func (c *Config) LoadProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading target profile: %w", err)
	}
	var p profileFile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parsing target profile %s: %w", path, err)
	}
	if p.WordSize != 4 && p.WordSize != 8 {
		return fmt.Errorf("target profile %s: unsupported word size %d", path, p.WordSize)
	}
	if p.Name != "" {
		c.TargetName = p.Name
	}
	if p.Triple != "" {
		c.Triple = p.Triple
	}
	c.WordSize = p.WordSize
	if p.StackAlign != 0 {
		c.StackAlign = p.StackAlign
	}
	if p.Runtime.Personality != "" {
		c.Runtime.Personality = p.Runtime.Personality
	}
	if p.Runtime.ResumeUnwind != "" {
		c.Runtime.ResumeUnwind = p.Runtime.ResumeUnwind
	}
	if p.Runtime.Throw != "" {
		c.Runtime.Throw = p.Runtime.Throw
	}
	if p.Runtime.ExceptionNew != "" {
		c.Runtime.ExceptionNew = p.Runtime.ExceptionNew
	}
	return nil
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

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

func (c *Config) applyFlag(flag string) {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	var isWarning bool

	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
	default:
		name = trimmed
		isWarning = true
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			if i != WarnPedantic {
				c.SetWarning(i, enable)
			}
		}
		return
	}

	if isWarning {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enable)
		}
	} else {
		if f, ok := c.FeatureMap[name]; ok {
			c.SetFeature(f, enable)
		}
	}
}

// ProcessFlags applies -W / -F style flags; -Wall and -Wno-all are applied
// before the individual toggles so they can be overridden.
func (c *Config) ProcessFlags(flags []string) {
	for _, f := range flags {
		if f == "Wall" || f == "Wno-all" {
			c.applyFlag("-" + f)
		}
	}
	for _, f := range flags {
		if f != "Wall" && f != "Wno-all" {
			c.applyFlag("-" + f)
		}
	}
}
