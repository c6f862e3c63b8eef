package aggregate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fcmbench/internal/logging"
	"fcmbench/internal/sweep"
)

// ErrNoArtifacts reports an aggregation walk that matched nothing. Fatal to
// the aggregation step, not to the sweep that preceded it.
var ErrNoArtifacts = errors.New("no artifacts found")

// Summary describes the outcome of one aggregation.
type Summary struct {
	CSVPath string
	Rows    int
	Skipped int
}

// Aggregator scans job artifacts and writes the merged summary CSV.
type Aggregator struct {
	logger *slog.Logger
}

// New constructs an Aggregator.
func New(logger *slog.Logger) *Aggregator {
	return &Aggregator{logger: logging.NewComponentLogger(logger, "aggregate")}
}

// Aggregate walks the job subdirectories for one (experiment, tag) pair and
// writes summary_{tag}.csv next to them. Each valid artifact contributes one
// row; malformed artifacts are skipped with a warning. Returns ErrNoArtifacts
// and writes nothing when no valid artifact exists.
func (a *Aggregator) Aggregate(root, experiment, tag string) (Summary, error) {
	codecRoot := sweep.CodecRoot(root, experiment, tag)

	entries, err := os.ReadDir(codecRoot)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Summary{}, fmt.Errorf("%w: %s", ErrNoArtifacts, codecRoot)
		}
		return Summary{}, fmt.Errorf("read artifact root %q: %w", codecRoot, err)
	}

	var jobDirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			jobDirs = append(jobDirs, entry.Name())
		}
	}
	sort.Strings(jobDirs)

	var header []string
	var rows [][]string
	skipped := 0
	for _, name := range jobDirs {
		record, jobHeader, err := a.readArtifact(filepath.Join(codecRoot, name))
		if err != nil {
			skipped++
			a.logger.Warn("skipping artifact",
				logging.String("job", name),
				logging.Error(err),
			)
			continue
		}
		if header == nil {
			header = jobHeader
		} else if !equalHeaders(header, jobHeader) {
			skipped++
			a.logger.Warn("skipping artifact with mismatched columns",
				logging.String("job", name),
			)
			continue
		}
		rows = append(rows, append([]string{name}, record...))
	}

	if len(rows) == 0 {
		return Summary{Skipped: skipped}, fmt.Errorf("%w: %s", ErrNoArtifacts, codecRoot)
	}

	csvPath := filepath.Join(codecRoot, "summary_"+tag+".csv")
	if err := writeSummary(csvPath, header, rows); err != nil {
		return Summary{Skipped: skipped}, err
	}

	a.logger.Info("wrote summary",
		logging.String("path", csvPath),
		logging.Int("rows", len(rows)),
		logging.Int("skipped", skipped),
	)
	return Summary{CSVPath: csvPath, Rows: len(rows), Skipped: skipped}, nil
}

// readArtifact locates the job's metrics CSV and returns its first data row.
func (a *Aggregator) readArtifact(dir string) ([]string, []string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, nil, err
	}
	if len(matches) == 0 {
		return nil, nil, errors.New("no metrics csv")
	}
	sort.Strings(matches)

	file, err := os.Open(matches[0])
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", filepath.Base(matches[0]), err)
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("%s has no data rows", filepath.Base(matches[0]))
	}
	return records[1], records[0], nil
}

func writeSummary(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(append([]string{"job"}, header...)); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush summary: %w", err)
	}
	return nil
}

func equalHeaders(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(strings.TrimSpace(a[i]), strings.TrimSpace(b[i])) {
			return false
		}
	}
	return true
}
