// gtest lowers every fixture under tests/ in-process and compares the
// emitted LLVM IR against a golden .ll file. A fixture without a golden gets
// one written on the first run; every run after that compares against it.
// Run with -update after an intentional output change to regenerate the
// goldens.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/glc/pkg/codegen"
	"github.com/xplshn/glc/pkg/config"
	"github.com/xplshn/glc/pkg/parser"
)

var (
	testFiles = flag.String("test-files", "tests/*.yaml", "Glob pattern(s) for fixtures to test (space-separated).")
	skipFiles = flag.String("skip-files", "", "Fixtures to skip (space-separated).")
	target    = flag.String("target", "", "Target ABI profile to lower for (default: host).")
	update    = flag.Bool("update", false, "Rewrite golden .ll files instead of comparing.")
	verbose   = flag.Bool("v", false, "Enable verbose logging.")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

type fixtureResult struct {
	File    string
	Status  string // PASS, FAIL, SKIP, ERROR, CREATED, UPDATED
	Message string
	Diff    string
}

func main() {
	flag.Parse()
	log.SetFlags(0)

	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No fixtures found matching the pattern(s).")
		return
	}

	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		abs, _ := filepath.Abs(f)
		skipList[abs] = true
	}

	var results []*fixtureResult
	for _, file := range files {
		if skipList[file] {
			results = append(results, &fixtureResult{File: file, Status: "SKIP", Message: "Explicitly skipped"})
			continue
		}
		results = append(results, testFixture(file))
	}

	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })
	failed := printSummary(results)
	if failed {
		os.Exit(1)
	}
}

func goldenPath(fixture string) string {
	return strings.TrimSuffix(fixture, filepath.Ext(fixture)) + ".ll"
}

// lowerFixture runs the whole pipeline on one fixture and returns the
// textual IR.
func lowerFixture(file string) (string, error) {
	res, err := parser.ParseFile(file)
	if err != nil {
		return "", err
	}
	cfg := config.NewConfig()
	tgt := *target
	if tgt == "" {
		tgt = res.Target
	}
	cfg.SetTarget(runtime.GOARCH, tgt)
	cfg.Verbose = *verbose
	return codegen.NewContext(cfg).Generate(res.Program).String(), nil
}

func testFixture(file string) *fixtureResult {
	irText, err := lowerFixture(file)
	if err != nil {
		return &fixtureResult{File: file, Status: "ERROR", Message: fmt.Sprintf("lowering failed: %v", err)}
	}

	golden := goldenPath(file)
	if *update {
		if err := os.WriteFile(golden, []byte(irText), 0644); err != nil {
			return &fixtureResult{File: file, Status: "ERROR", Message: fmt.Sprintf("could not write golden file: %v", err)}
		}
		return &fixtureResult{File: file, Status: "UPDATED", Message: fmt.Sprintf("golden file written to %s", golden)}
	}

	goldenData, err := os.ReadFile(golden)
	if os.IsNotExist(err) {
		if err := os.WriteFile(golden, []byte(irText), 0644); err != nil {
			return &fixtureResult{File: file, Status: "ERROR", Message: fmt.Sprintf("could not write golden file: %v", err)}
		}
		return &fixtureResult{File: file, Status: "CREATED", Message: fmt.Sprintf("golden file created at %s; later runs compare against it", golden)}
	}
	if err != nil {
		return &fixtureResult{File: file, Status: "ERROR", Message: fmt.Sprintf("could not read golden file: %v", err)}
	}

	if xxhash.Sum64String(irText) == xxhash.Sum64(goldenData) && irText == string(goldenData) {
		return &fixtureResult{File: file, Status: "PASS", Message: "emitted IR matches golden file"}
	}
	return &fixtureResult{
		File:    file,
		Status:  "FAIL",
		Message: "emitted IR differs from golden file",
		Diff:    cmp.Diff(string(goldenData), irText),
	}
}

func printSummary(results []*fixtureResult) bool {
	var passed, failed, skipped, errored, created, updated int
	for _, result := range results {
		fmt.Println("----------------------------------------------------------------------")
		fmt.Printf("Testing %s%s%s...\n", cCyan, result.File, cNone)
		switch result.Status {
		case "PASS":
			passed++
			fmt.Printf("  [%sPASS%s] %s\n", cGreen, cNone, result.Message)
		case "CREATED":
			created++
			fmt.Printf("  [%sCREATED%s] %s\n", cGreen, cNone, result.Message)
		case "UPDATED":
			updated++
			fmt.Printf("  [%sUPDATED%s] %s\n", cGreen, cNone, result.Message)
		case "FAIL":
			failed++
			fmt.Printf("  [%sFAIL%s] %s\n", cRed, cNone, result.Message)
			fmt.Println(formatDiff(result.Diff))
		case "SKIP":
			skipped++
			fmt.Printf("  [%sSKIP%s] %s\n", cYellow, cNone, result.Message)
		case "ERROR":
			errored++
			fmt.Printf("  [%sERROR%s] %s\n", cRed, cNone, result.Message)
		}
	}
	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Created, %d Updated, %d Total\n",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, cYellow, skipped, cNone, cRed, errored, cNone, created, updated, len(results))
	return failed > 0 || errored > 0
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(diff, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") {
			builder.WriteString(cRed)
		} else if strings.HasPrefix(trimmed, "+") {
			builder.WriteString(cGreen)
		}
		builder.WriteString("    " + line)
		builder.WriteString(cNone)
		builder.WriteString("\n")
	}
	return builder.String()
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			absFile, err := filepath.Abs(file)
			if err != nil {
				continue
			}
			if !seen[absFile] {
				if info, err := os.Stat(absFile); err == nil && info.Mode().IsRegular() {
					allFiles = append(allFiles, absFile)
					seen[absFile] = true
				}
			}
		}
	}
	return allFiles, nil
}
