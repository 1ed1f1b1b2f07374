package tfserving

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/tagger/internal/classifier"
)

// Model is a classification model served by TensorFlow Serving
type Model struct {
	endpoint string
	name     string
	client   *http.Client
}

// New returns a new Model. Empty arguments fall back to the
// TFSERVING_URL and TFSERVING_MODEL environment variables.
func New(endpoint, model string) *Model {
	if endpoint == "" {
		endpoint = os.Getenv("TFSERVING_URL")
	}
	if endpoint == "" {
		endpoint = "http://localhost:8501"
	}
	if model == "" {
		model = os.Getenv("TFSERVING_MODEL")
	}
	if model == "" {
		model = "resnet50"
	}

	return &Model{
		endpoint: strings.TrimRight(endpoint, "/"),
		name:     model,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Scores sends the tensor to the predict endpoint and returns the raw
// scores for the single instance.
func (m *Model) Scores(ctx context.Context, t *classifier.Tensor) ([]float64, error) {
	url := fmt.Sprintf("%s/v1/models/%s:predict", m.endpoint, m.name)

	requestBody, err := json.Marshal(map[string]interface{}{
		"instances": [][][][]float32{instance(t)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Predictions [][]float64 `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Predictions) == 0 {
		return nil, fmt.Errorf("no predictions returned")
	}

	return response.Predictions[0], nil
}

// instance reshapes the flat channel-first tensor into the nested
// arrays the predict endpoint expects.
func instance(t *classifier.Tensor) [][][]float32 {
	plane := t.Height * t.Width
	channels := make([][][]float32, 3)
	for c := 0; c < 3; c++ {
		rows := make([][]float32, t.Height)
		for y := 0; y < t.Height; y++ {
			start := c*plane + y*t.Width
			rows[y] = t.Data[start : start+t.Width]
		}
		channels[c] = rows
	}
	return channels
}
