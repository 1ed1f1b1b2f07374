package classifier

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// LabelPrompt asks a vision model for ranked labels in a strict JSON
// shape the providers can parse.
const LabelPrompt = `You are labeling an image for a media catalog.

Identify the five most descriptive labels for the image, ranked from most
to least confident. Use short lowercase noun phrases.

OUTPUT FORMAT:
Respond with ONLY a JSON array. No prose, no code fences, no keys other
than these:
[{"label": "golden retriever", "confidence": 71.25}]

Confidence is a percentage between 0 and 100.`

// ParseResponse extracts predictions from a vision model response,
// tolerating code fences and surrounding prose around the JSON array.
func ParseResponse(raw string) ([]Prediction, error) {
	s := strings.TrimSpace(raw)
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in model response")
	}

	var parsed []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	preds := make([]Prediction, 0, len(parsed))
	for _, p := range parsed {
		if p.Label == "" {
			continue
		}
		preds = append(preds, Prediction{Label: p.Label, Confidence: p.Confidence})
	}
	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].Confidence > preds[j].Confidence
	})
	if len(preds) > topPredictions {
		preds = preds[:topPredictions]
	}
	return preds, nil
}
