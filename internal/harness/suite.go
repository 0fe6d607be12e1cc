package harness

import (
	"fmt"
	"path/filepath"
)

// SuiteResult summarizes a directory of scenario runs.
type SuiteResult struct {
	Total    int
	Passed   int
	Failed   int
	Failures []ScenarioFailure
}

// ScenarioFailure describes one failed scenario.
type ScenarioFailure struct {
	Scenario string // Scenario name, or the file base name if loading failed
	Path     string
	Error    string
}

// RunSuite loads and runs every *.yaml scenario in a directory, in
// lexical path order. A scenario fails by failing to load, aborting
// mid-run, or finishing with failed asserts.
//
// The suite itself errors only when the directory cannot be globbed or
// contains no scenarios.
func RunSuite(dir string) (*SuiteResult, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios found in %s", dir)
	}

	suite := &SuiteResult{}
	for _, path := range paths {
		suite.Total++

		scenario, err := LoadScenario(path)
		if err != nil {
			suite.Failed++
			suite.Failures = append(suite.Failures, ScenarioFailure{
				Scenario: filepath.Base(path),
				Path:     path,
				Error:    fmt.Sprintf("failed to load: %v", err),
			})
			continue
		}

		result, err := Run(scenario)
		if err != nil {
			suite.Failed++
			suite.Failures = append(suite.Failures, ScenarioFailure{
				Scenario: scenario.Name,
				Path:     path,
				Error:    fmt.Sprintf("run aborted: %v", err),
			})
			continue
		}

		if !result.Pass {
			suite.Failed++
			suite.Failures = append(suite.Failures, ScenarioFailure{
				Scenario: scenario.Name,
				Path:     path,
				Error:    fmt.Sprintf("asserts failed: %v", result.Errors),
			})
			continue
		}

		suite.Passed++
	}

	return suite, nil
}
