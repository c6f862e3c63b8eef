package main

import (
	"strings"
	"testing"
)

func TestRenderTableStyleFollowsTerminal(t *testing.T) {
	headers := []string{"Sequence", "QP"}
	rows := [][]string{{"SeqA", "8"}, {"SeqB", "12"}}
	aligns := []columnAlignment{alignLeft, alignRight}

	fancy := renderTable(headers, rows, aligns, true)
	if !strings.Contains(fancy, "╭") {
		t.Fatalf("expected rounded borders for terminal output, got:\n%s", fancy)
	}

	plain := renderTable(headers, rows, aligns, false)
	if strings.Contains(plain, "╭") {
		t.Fatalf("expected plain borders for piped output, got:\n%s", plain)
	}
	if !strings.Contains(plain, "SeqA") || !strings.Contains(plain, "12") {
		t.Fatalf("plain table lost content:\n%s", plain)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"A", "B", "C"},
		[][]string{{"only"}},
		nil,
		false,
	)
	if !strings.Contains(out, "only") {
		t.Fatalf("expected row content, got:\n%s", out)
	}
}
