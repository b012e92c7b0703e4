package store

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pvoronin/underwriter/internal/features"
	"github.com/pvoronin/underwriter/internal/model"
	"github.com/pvoronin/underwriter/internal/trainer"
)

const encoderFile = "vehicle_type_encoder.gob"

// ArtifactMetadata is the metadata record written alongside the serialized
// models.
type ArtifactMetadata struct {
	RunID             string                        `json:"run_id"`
	Models            []string                      `json:"models"`
	FeatureNames      []string                      `json:"feature_names"`
	Performance       map[string]model.Performance  `json:"model_performance"`
	FeatureImportance map[string]map[string]float64 `json:"feature_importance"`
	TrainedAt         time.Time                     `json:"trained_at"`
}

// Bundle is everything a predictor needs, as loaded from disk.
type Bundle struct {
	Artifacts   map[model.ModelKey]*trainer.Artifact
	Performance map[model.ModelKey]model.Performance
	Encoder     *features.Encoder
	Metadata    ArtifactMetadata
}

// SaveArtifacts writes one gob file per trained (family, task) pair, the
// fitted encoder, and metadata.json. Returns the run ID assigned to this
// training run.
func SaveArtifacts(dir string, artifacts map[model.ModelKey]*trainer.Artifact,
	performance map[model.ModelKey]model.Performance, enc *features.Encoder) (string, error) {

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &model.PersistenceError{Path: dir, Err: err}
	}

	meta := ArtifactMetadata{
		RunID:             uuid.NewString(),
		FeatureNames:      features.FeatureNames,
		Performance:       make(map[string]model.Performance, len(performance)),
		FeatureImportance: make(map[string]map[string]float64, len(artifacts)),
		TrainedAt:         time.Now().UTC(),
	}

	// Fixed key order so metadata is stable across runs.
	for _, task := range []model.Task{model.TaskClassification, model.TaskRegression} {
		for _, family := range model.Families {
			key := model.ModelKey{Family: family, Task: task}
			a, ok := artifacts[key]
			if !ok {
				continue
			}
			if err := writeGob(filepath.Join(dir, key.String()+".gob"), a); err != nil {
				return "", err
			}
			meta.Models = append(meta.Models, key.String())
			meta.FeatureImportance[key.String()] = a.Importance
			if perf, ok := performance[key]; ok {
				meta.Performance[key.String()] = perf
			}
		}
	}

	if err := writeGob(filepath.Join(dir, encoderFile), enc); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, "metadata.json"), meta); err != nil {
		return "", err
	}
	return meta.RunID, nil
}

// LoadArtifacts reads a model directory written by SaveArtifacts. Missing or
// malformed files surface as PersistenceError; nothing is regenerated.
func LoadArtifacts(dir string) (*Bundle, error) {
	var meta ArtifactMetadata
	if err := readJSON(filepath.Join(dir, "metadata.json"), &meta); err != nil {
		return nil, err
	}

	b := &Bundle{
		Artifacts:   make(map[model.ModelKey]*trainer.Artifact, len(meta.Models)),
		Performance: make(map[model.ModelKey]model.Performance, len(meta.Performance)),
		Metadata:    meta,
	}

	for _, name := range meta.Models {
		var a trainer.Artifact
		if err := readGob(filepath.Join(dir, name+".gob"), &a); err != nil {
			return nil, err
		}
		if a.Key.String() != name {
			return nil, &model.PersistenceError{
				Path: filepath.Join(dir, name+".gob"),
				Err:  fmt.Errorf("artifact key %s does not match file name", a.Key),
			}
		}
		b.Artifacts[a.Key] = &a
	}

	for name, perf := range meta.Performance {
		b.Performance[perf.Model] = perf
		if perf.Model.String() != name {
			return nil, &model.PersistenceError{
				Path: filepath.Join(dir, "metadata.json"),
				Err:  fmt.Errorf("performance entry %s keyed by model %s", name, perf.Model),
			}
		}
	}

	var enc features.Encoder
	if err := readGob(filepath.Join(dir, encoderFile), &enc); err != nil {
		return nil, err
	}
	b.Encoder = &enc
	return b, nil
}

func writeGob(path string, v any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &model.PersistenceError{Path: path, Err: err}
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = &model.PersistenceError{Path: path, Err: closeErr}
		}
	}()

	if err := gob.NewEncoder(f).Encode(v); err != nil {
		return &model.PersistenceError{Path: path, Err: err}
	}
	return nil
}

func readGob(path string, v any) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return &model.PersistenceError{Path: path, Err: err}
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = &model.PersistenceError{Path: path, Err: closeErr}
		}
	}()

	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return &model.PersistenceError{Path: path, Err: err}
	}
	return nil
}
