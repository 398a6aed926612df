package main

import (
	"bytes"
	"slices"
	"strings"
	"testing"
)

func TestParseValues(t *testing.T) {
	got, err := parseValues(" 3, 1,,2 ")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []uint32{3, 1, 2}) {
		t.Fatalf("parseValues = %v", got)
	}
	if _, err := parseValues("1,x"); err == nil {
		t.Fatal("expected error for a non-numeric value")
	}
	if _, err := parseValues("4294967296"); err == nil {
		t.Fatal("expected error for a value above uint32")
	}
}

func TestRun(t *testing.T) {
	var out bytes.Buffer
	if err := run(&out, options{values: []uint32{3, 1, 2}, pages: 1}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"values: [1 2 3]",
		"bytes view offset stable: true",
		`contents: "heap"`,
		"escaped view: [-1 0 1]",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	final := lines[len(lines)-1]
	if !strings.Contains(final, "blocks=0") || !strings.Contains(final, "bitmaps=0") {
		t.Errorf("workload leaked: %s", final)
	}
}
