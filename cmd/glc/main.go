package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/xplshn/glc/pkg/cli"
	"github.com/xplshn/glc/pkg/codegen"
	"github.com/xplshn/glc/pkg/config"
	"github.com/xplshn/glc/pkg/parser"
	"github.com/xplshn/glc/pkg/token"
	"github.com/xplshn/glc/pkg/util"
)

func main() {
	app := cli.NewApp("glc")
	app.Synopsis = "[options] <program.yaml>"
	app.Description = "A code generation backend that lowers program descriptions to LLVM IR, including full try/catch/finally exception lowering."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/glc>"
	app.Since = 2025

	var (
		outFile  string
		target   string
		profile  string
		pedantic bool
		verbose  bool
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "", "Place the emitted IR into <file> (default: stdout).", "file")
	fs.String(&target, "target", "t", "", "Set the target ABI profile (amd64_sysv, arm64).", "target")
	fs.String(&profile, "target-profile", "p", "", "Load a target profile from a YAML file.", "file")
	fs.Bool(&pedantic, "pedantic", "", false, "Issue all warnings, including the nitpicks.")
	fs.Bool(&verbose, "verbose", "v", false, "Log code generation progress to stderr.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		if len(inputFiles) != 1 {
			util.Error(token.NoPos, "expected exactly one program description, got %d", len(inputFiles))
		}

		res, err := parser.ParseFile(inputFiles[0])
		if err != nil {
			util.Error(token.NoPos, "%s: %v", inputFiles[0], err)
		}

		// Explicit -t wins over the file's target hint.
		if target == "" {
			target = res.Target
		}
		cfg.SetTarget(runtime.GOARCH, target)
		if profile != "" {
			if err := cfg.LoadProfile(profile); err != nil {
				util.Error(token.NoPos, "%v", err)
			}
		}

		if pedantic {
			cfg.SetWarning(config.WarnPedantic, true)
		}
		for i, entry := range warningFlags {
			if entry.Enabled != nil && *entry.Enabled {
				cfg.SetWarning(config.Warning(i), true)
			}
			if entry.Disabled != nil && *entry.Disabled {
				cfg.SetWarning(config.Warning(i), false)
			}
		}
		for i, entry := range featureFlags {
			if entry.Enabled != nil && *entry.Enabled {
				cfg.SetFeature(config.Feature(i), true)
			}
			if entry.Disabled != nil && *entry.Disabled {
				cfg.SetFeature(config.Feature(i), false)
			}
		}
		cfg.Verbose = verbose

		mod := codegen.NewContext(cfg).Generate(res.Program)

		if outFile == "" || outFile == "-" {
			fmt.Print(mod.String())
			return nil
		}
		if err := os.WriteFile(outFile, []byte(mod.String()), 0644); err != nil {
			util.Error(token.NoPos, "could not write '%s': %v", outFile, err)
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
