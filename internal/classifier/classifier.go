// Package classifier defines the image classification contract shared
// by the scoring and vision-LLM providers, plus the preprocessing and
// ranking used by score-based models.
package classifier

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
)

// topPredictions caps how many labels a classification contributes.
const topPredictions = 5

// Prediction is one ranked label with its confidence as a percentage.
type Prediction struct {
	Label      string
	Confidence float64
}

// Classifier ranks descriptive labels for the image file at path.
// Implementations return at most five predictions, best first.
type Classifier interface {
	Classify(ctx context.Context, path string) ([]Prediction, error)
}

// ScoreModel produces raw class scores for a preprocessed image tensor.
// The index of each score maps into the label vocabulary.
type ScoreModel interface {
	Scores(ctx context.Context, t *Tensor) ([]float64, error)
}

// Local wraps a score-producing model with the preprocessing and
// softmax ranking expected from a locally served network.
type Local struct {
	model  ScoreModel
	labels []string
}

// NewLocal returns a classifier over model using the given label
// vocabulary. Labels may be nil, in which case positional names are
// generated.
func NewLocal(model ScoreModel, labels []string) *Local {
	return &Local{model: model, labels: labels}
}

// Classify preprocesses the image, scores it, and returns the top
// predictions.
func (l *Local) Classify(ctx context.Context, path string) ([]Prediction, error) {
	t, err := Prepare(path)
	if err != nil {
		return nil, err
	}
	scores, err := l.model.Scores(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("score image: %w", err)
	}
	return Rank(scores, l.labels), nil
}

// Rank turns raw scores into softmax percentages and returns the top
// predictions mapped through labels.
func Rank(scores []float64, labels []string) []Prediction {
	if len(scores) == 0 {
		return nil
	}

	// Shift by the max before exponentiating so large logits cannot
	// overflow.
	max := scores[0]
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	exps := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		exps[i] = math.Exp(s - max)
		sum += exps[i]
	}

	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return exps[idx[a]] > exps[idx[b]]
	})

	n := topPredictions
	if len(idx) < n {
		n = len(idx)
	}
	preds := make([]Prediction, 0, n)
	for _, i := range idx[:n] {
		preds = append(preds, Prediction{
			Label:      labelAt(labels, i),
			Confidence: exps[i] / sum * 100,
		})
	}
	return preds
}

func labelAt(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return fmt.Sprintf("class-%d", i)
}

// LoadLabels reads a newline-separated label vocabulary. Blank lines
// are skipped; the line index is the class index.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels file: %w", err)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels file: %w", err)
	}
	return labels, nil
}
