package preflight_test

import (
	"testing"

	"fcmbench/internal/preflight"
	"fcmbench/internal/testsupport"
)

func TestRunReportsMissingDatasetDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.DatasetDir = cfg.Paths.DatasetDir + "-absent"

	results := preflight.Run(cfg)
	failed := preflight.Failed(results)

	var sawDataset bool
	for _, result := range failed {
		if result.Name == "Dataset directory" {
			sawDataset = true
		}
	}
	if !sawDataset {
		t.Fatalf("expected dataset directory failure, got %+v", failed)
	}
}

func TestRunPassesWithScriptPresent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Experiment.Script = testsupport.WriteScript(t, "#!/bin/sh\nexit 0\n")

	results := preflight.Run(cfg)
	for _, result := range results {
		if result.Name == "Job script" && !result.Passed {
			t.Fatalf("expected job script check to pass: %+v", result)
		}
		if result.Name == "Output free space" && !result.Passed {
			t.Fatalf("expected free space check to pass: %+v", result)
		}
	}
}
