package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/sift/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter    string // scenario filter (glob pattern on the file name)
	GoldenDir string // compare snapshots against <dir>/<scenario>.golden
	Update    bool   // regenerate golden files
	Parallel  int    // scenarios run at once
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Cases  int      `json:"cases"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// Text implements TextRenderer.
func (r TestResult) Text() string {
	if r.Total == 0 {
		return "No scenarios found."
	}
	var b strings.Builder
	for _, s := range r.Scenarios {
		if s.Pass {
			fmt.Fprintf(&b, "✓ %s (%d cases)\n", s.Name, s.Cases)
			continue
		}
		fmt.Fprintf(&b, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "  %s\n", strings.ReplaceAll(e, "\n", "\n  "))
		}
	}
	fmt.Fprintf(&b, "\n%d passed, %d failed, %d total", r.Passed, r.Failed, r.Total)
	return b.String()
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run query scenarios",
		Long: `Run YAML query scenarios through the compiler and a seeded in-memory
database, checking each case's expected query, filter, SQL, ids or error.

With --golden each scenario's outcomes are also compared against
<golden-dir>/<scenario>.golden; --update rewrites those files.
Every scenario gets its own database, so --parallel may run several
at once; results are reported in file order.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  sift test ./scenarios
  sift test ./scenarios --filter "shop*"
  sift test ./scenarios --filter "{shop,no_freetext}" --parallel 4
  sift test ./scenarios --golden ./golden --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden file directory")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files (requires --golden)")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 1, "number of scenarios to run at once")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}
	if opts.Update && opts.GoldenDir == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}
	if opts.Parallel < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --parallel %d: must be at least 1", opts.Parallel))
	}

	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, len(files)),
		Total:     len(files),
	}
	var g errgroup.Group
	g.SetLimit(opts.Parallel)
	for i, file := range files {
		g.Go(func() error {
			result.Scenarios[i] = runScenario(opts, file, cmd)
			return nil
		})
	}
	_ = g.Wait()

	for _, sr := range result.Scenarios {
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if err := formatter.Success(result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return &ExitError{
			Code:     ExitFailure,
			Message:  fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.Total),
			Reported: true,
		}
	}
	return nil
}

// findScenarioFiles lists the YAML files directly in dir whose base name
// (without extension) matches filter, sorted by path. filter is a
// doublestar pattern, so {a,b} alternatives work.
func findScenarioFiles(dir, filter string) ([]string, error) {
	if filter != "" && !doublestar.ValidatePattern(filter) {
		return nil, fmt.Errorf("invalid filter pattern %q", filter)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			matched, err := doublestar.Match(filter, strings.TrimSuffix(e.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// runScenario loads and runs one scenario file.
func runScenario(opts *TestOptions, file string, cmd *cobra.Command) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	result, err := harness.RunWithLogger(cmd.Context(), scenario, opts.logger())
	if err != nil {
		return ScenarioResult{
			Name:   scenario.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	sr := ScenarioResult{
		Name:   scenario.Name,
		Pass:   result.Pass,
		Cases:  len(result.Cases),
		Errors: result.Errors,
	}
	if opts.GoldenDir == "" {
		return sr
	}

	if err := checkGolden(opts, scenario.Name, result); err != nil {
		sr.Pass = false
		sr.Errors = append(sr.Errors, err.Error())
	}
	return sr
}

// checkGolden compares the scenario snapshot with its golden file, or
// rewrites the file when updating.
func checkGolden(opts *TestOptions, name string, result *harness.Result) error {
	data, err := harness.NewSnapshot(name, result).Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	path := filepath.Join(opts.GoldenDir, name+".golden")

	if opts.Update {
		if err := os.MkdirAll(opts.GoldenDir, 0755); err != nil {
			return fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write golden file: %w", err)
		}
		return nil
	}

	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(want, data) {
		return fmt.Errorf("golden file mismatch: %s (run with --update to regenerate)", path)
	}
	return nil
}
