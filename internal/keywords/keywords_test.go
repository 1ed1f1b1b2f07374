package keywords

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestFromText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "counts and ranks",
			content: "the cat sat on the mat the cat ran",
			want:    []string{"cat", "sat", "mat", "ran"},
		},
		{
			name:    "stopwords dropped",
			content: "the and or but in on at to for of with by",
			want:    nil,
		},
		{
			name:    "short words dropped",
			content: "go is ok cat",
			want:    []string{"cat"},
		},
		{
			name:    "punctuation stripped",
			content: "hello, world! hello... (world) [hello]",
			want:    []string{"hello", "world"},
		},
		{
			name:    "hyphenated words collapse",
			content: "well-known pattern",
			want:    []string{"wellknown", "pattern"},
		},
		{
			name:    "digits kept",
			content: "route 66666 route",
			want:    []string{"route", "66666"},
		},
		{
			name:    "empty content",
			content: "",
			want:    nil,
		},
		{
			name:    "top five cap",
			content: "aaa aaa aaa bbb bbb bbb ccc ccc ddd ddd eee fff ggg",
			want:    []string{"aaa", "bbb", "ccc", "ddd", "eee"},
		},
		{
			name:    "ties keep first seen order",
			content: "zebra apple zebra apple mango",
			want:    []string{"zebra", "apple", "mango"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromText(tt.content)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d tags, got %d (%+v)", len(tt.want), len(got), got)
			}
			for i, want := range tt.want {
				if got[i].Tag != want {
					t.Errorf("Tag %d: expected %s, got %s", i, want, got[i].Tag)
				}
			}
		})
	}
}

func TestFromTextConfidences(t *testing.T) {
	got := FromText("the cat sat on the mat the cat ran")
	// Surviving words: cat cat sat mat ran -> total 5.
	want := map[string]string{
		"cat": "40.00%",
		"sat": "20.00%",
		"mat": "20.00%",
		"ran": "20.00%",
	}
	for _, tag := range got {
		if want[tag.Tag] != tag.Confidence {
			t.Errorf("%s: expected %s, got %s", tag.Tag, want[tag.Tag], tag.Confidence)
		}
	}
}

func TestFromTextConfidencesAreDescendingPercentages(t *testing.T) {
	got := FromText("alpha alpha alpha beta beta gamma delta epsilon zeta")
	if len(got) != 5 {
		t.Fatalf("Expected 5 tags, got %d", len(got))
	}
	prev := 101.0
	for _, tag := range got {
		if !strings.HasSuffix(tag.Confidence, "%") {
			t.Fatalf("Expected percentage string, got %q", tag.Confidence)
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(tag.Confidence, "%"), 64)
		if err != nil {
			t.Fatalf("parse confidence %q: %v", tag.Confidence, err)
		}
		if v <= 0 || v > 100 {
			t.Errorf("Confidence out of range: %v", v)
		}
		if v > prev {
			t.Errorf("Confidences not descending: %v after %v", v, prev)
		}
		prev = v
	}
}

func TestAnalyze(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("wooden chair with wooden legs"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := Analyze(path)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 tags, got %d", len(got))
	}
	if got[0].Tag != "wooden" || got[0].Confidence != "50.00%" {
		t.Errorf("Expected wooden at 50.00%%, got %+v", got[0])
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	got, err := Analyze(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if got != nil {
		t.Errorf("Expected nil tags on error, got %+v", got)
	}
}
