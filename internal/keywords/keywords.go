// Package keywords extracts frequency-ranked keyword tags from plain
// text files.
package keywords

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/tagger/internal/catalog"
)

// maxKeywords caps how many tags a single file contributes.
const maxKeywords = 5

const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {},
}

// Analyze reads the text file at path and returns its top keyword tags.
// Each confidence is the word's share of all counted words, rendered as
// a percentage string.
func Analyze(path string) ([]catalog.Tag, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	return FromText(string(raw)), nil
}

// FromText runs the analysis over in-memory content.
func FromText(content string) []catalog.Tag {
	text := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, strings.ToLower(content))

	counts := map[string]int{}
	var order []string
	for _, word := range strings.Fields(text) {
		if _, stop := stopwords[word]; stop {
			continue
		}
		if utf8.RuneCountInString(word) <= 2 || !alphanumeric(word) {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		total = 1
	}

	// Stable sort keeps first-seen order between words with equal
	// counts.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}

	tags := make([]catalog.Tag, 0, len(order))
	for _, word := range order {
		share := float64(counts[word]) / float64(total) * 100
		tags = append(tags, catalog.Tag{Tag: word, Confidence: fmt.Sprintf("%.2f%%", share)})
	}
	return tags
}

func alphanumeric(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
