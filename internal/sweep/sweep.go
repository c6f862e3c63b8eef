package sweep

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrMalformedName reports a bitstream file whose name does not carry a
// parseable QP value. The combination is skipped, never fatal to the sweep.
var ErrMalformedName = errors.New("malformed artifact name")

// Space is the combination space one run enumerates. Read-only after
// construction.
type Space struct {
	Sequences []string
	QPs       []int
}

// Combination is one (sequence, QP) pair. Bitstream is set only in
// file-matched sweeps.
type Combination struct {
	Sequence  string
	QP        string
	Bitstream string
}

// Job is a unit of work: an executable plus its arguments. Immutable once
// constructed and consumed exactly once by a dispatch backend.
type Job struct {
	ScriptPath string
	Args       []string

	Sequence  string
	QP        string
	OutputDir string
	Env       []string
}

// Skip records a combination that could not be enumerated.
type Skip struct {
	File string
	Err  error
}

// EnumerateQP returns every sequence x QP combination, sequences outer,
// QPs inner.
func (s Space) EnumerateQP() []Combination {
	combos := make([]Combination, 0, len(s.Sequences)*len(s.QPs))
	for _, seq := range s.Sequences {
		for _, qp := range s.QPs {
			combos = append(combos, Combination{Sequence: seq, QP: fmt.Sprintf("%d", qp)})
		}
	}
	return combos
}

// MatchBitstreams finds, for each sequence, every bitstream file in dir whose
// name contains the sequence, and derives the QP from the file name. Files
// without a parseable QP are returned as skips rather than failing the sweep.
func (s Space) MatchBitstreams(dir string) ([]Combination, []Skip, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read bitstream directory %q: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".bin" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var combos []Combination
	var skips []Skip
	for _, seq := range s.Sequences {
		// Anchor on the qp marker so a sequence never claims files of a
		// longer sequence sharing its prefix (SeqA vs SeqA2).
		marker := seq + "_" + qpMarker
		for _, name := range names {
			if !strings.Contains(name, marker) {
				continue
			}
			qp, err := ExtractQP(name)
			if err != nil {
				skips = append(skips, Skip{File: name, Err: err})
				continue
			}
			combos = append(combos, Combination{
				Sequence:  seq,
				QP:        qp,
				Bitstream: filepath.Join(dir, name),
			})
		}
	}
	return combos, skips, nil
}

const qpMarker = "qp"
const qpDensityMarker = "_qpdensity"

// ExtractQP pulls the QP value out of a bitstream file name following the
// qp<value>_qpdensity convention, e.g.
// mpeg-tracking-TVD-01_qp12_qpdensity0.bin yields "12".
func ExtractQP(name string) (string, error) {
	end := strings.Index(name, qpDensityMarker)
	if end < 0 {
		return "", fmt.Errorf("%w: %q lacks %s marker", ErrMalformedName, name, qpDensityMarker)
	}
	start := strings.LastIndex(name[:end], qpMarker)
	if start < 0 {
		return "", fmt.Errorf("%w: %q lacks qp prefix before %s", ErrMalformedName, name, qpDensityMarker)
	}
	value := name[start+len(qpMarker) : end]
	if value == "" || !allDigits(value) {
		return "", fmt.Errorf("%w: %q carries non-numeric qp %q", ErrMalformedName, name, value)
	}
	return value, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
