package classifier

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/veritext/detector-service/internal/models"
)

// Weights parameterize the logistic scorer. They are loaded from a JSON
// artifact so the model can be swapped without a rebuild.
type Weights struct {
	Bias           float64 `json:"bias"`
	Transition     float64 `json:"transition"`
	Uniformity     float64 `json:"uniformity"`
	StandardLength float64 `json:"standard_length"`
	Diversity      float64 `json:"diversity"`
	Informal       float64 `json:"informal"`
	FirstPerson    float64 `json:"first_person"`
}

// Info describes the loaded model artifact.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Path    string `json:"path"`
}

type artifact struct {
	Name    string  `json:"name"`
	Version string  `json:"version"`
	Weights Weights `json:"weights"`
}

// Model is the loaded detector. It is read-only after load and safe for
// concurrent use.
type Model struct {
	weights Weights
	info    Info
}

// DefaultWeights returns the shipped calibration. The thresholds downstream
// (0.50/0.80) are configuration defaults, not derived from these weights.
func DefaultWeights() Weights {
	return Weights{
		Bias:           -1.0,
		Transition:     2.2,
		Uniformity:     1.2,
		StandardLength: 0.8,
		Diversity:      0.6,
		Informal:       -2.0,
		FirstPerson:    -1.2,
	}
}

// New builds a model from explicit weights. Used by tests and by Load.
func New(w Weights, info Info) *Model {
	return &Model{weights: w, info: info}
}

// Load reads a model artifact from disk.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact %s: %w", path, err)
	}
	slog.Info("Model loaded", "path", path, "name", a.Name, "version", a.Version)
	return New(a.Weights, Info{Name: a.Name, Version: a.Version, Path: path}), nil
}

// LoadWithAutoDownload loads a model artifact, downloading it first when the
// file is missing and a URL is configured.
func LoadWithAutoDownload(path, url string) (*Model, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if url == "" {
			return nil, fmt.Errorf("model artifact not found at %s and no download URL provided", path)
		}

		slog.Info("Model artifact not found, downloading", "url", url, "path", path)

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create model directory: %w", err)
		}
		if err := downloadFile(url, path); err != nil {
			return nil, fmt.Errorf("failed to download model artifact: %w", err)
		}

		slog.Info("Model artifact downloaded", "path", path)
	}

	return Load(path)
}

// Score is a pure function of its input given fixed weights: the same text
// always yields the same RawScore, and the two probabilities sum to 1.
func (m *Model) Score(text string) (models.RawScore, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return models.RawScore{}, err
	}
	f := extractFeatures(text, tokens)
	w := m.weights

	z := w.Bias +
		w.Transition*f.Transition +
		w.Uniformity*f.Uniformity +
		w.StandardLength*f.StandardLength +
		w.Diversity*f.Diversity +
		w.Informal*f.Informal +
		w.FirstPerson*f.FirstPerson

	pAI := sigmoid(z)
	return models.RawScore{AI: pAI, Human: 1 - pAI}, nil
}

// Info returns artifact metadata for health and heartbeat payloads.
func (m *Model) Info() Info {
	return m.info
}

func downloadFile(url, path string) error {
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}
