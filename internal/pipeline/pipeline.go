// Package pipeline drives the full flow: generation or loading, feature
// preparation, training, evaluation and artifact persistence. All progress is
// carried in an explicit State value returned by each stage; there is no
// shared mutable pipeline state.
package pipeline

import (
	"errors"
	"fmt"
	"os"

	"github.com/pvoronin/underwriter/internal/dataset"
	"github.com/pvoronin/underwriter/internal/features"
	"github.com/pvoronin/underwriter/internal/model"
	"github.com/pvoronin/underwriter/internal/predict"
	"github.com/pvoronin/underwriter/internal/store"
	"github.com/pvoronin/underwriter/internal/trainer"
)

// State accumulates the outputs of the pipeline stages.
type State struct {
	Records     []model.Record
	Encoder     *features.Encoder
	Artifacts   map[model.ModelKey]*trainer.Artifact
	Performance map[model.ModelKey]model.Performance

	// Failed records per-family training errors; siblings keep going.
	Failed map[model.ModelKey]error
	// RegressionSkipped is set when claim-positive rows fell below the
	// minimum threshold and the regression stage was skipped wholesale.
	RegressionSkipped bool

	RunID string
}

// Pipeline runs the stages under one configuration.
type Pipeline struct {
	cfg *model.Config
}

// New creates a pipeline with the given configuration.
func New(cfg *model.Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Generate produces a fresh dataset per the data configuration.
func (p *Pipeline) Generate() (*State, error) {
	gen, err := dataset.NewGenerator(p.cfg.Data.Seed)
	if err != nil {
		return nil, err
	}
	records, err := gen.Generate(p.cfg.Data.Samples)
	if err != nil {
		return nil, err
	}
	return &State{Records: records}, nil
}

// Load reads an existing dataset from the data directory.
func (p *Pipeline) Load(path string) (*State, error) {
	records, err := store.LoadDataset(path)
	if err != nil {
		return nil, err
	}
	p.progress("Loaded %d records from %s\n", len(records), path)
	return &State{Records: records}, nil
}

// Train runs preparation, training and evaluation for both tasks and returns
// the augmented state. Per-family failures land in state.Failed; a regression
// set below the minimum threshold sets RegressionSkipped. An error is only
// returned when no model could be trained at all.
func (p *Pipeline) Train(state *State) (*State, error) {
	state.Artifacts = make(map[model.ModelKey]*trainer.Artifact)
	state.Performance = make(map[model.ModelKey]model.Performance)
	state.Failed = make(map[model.ModelKey]error)

	enc := features.NewEncoder(model.VehicleTypes)
	state.Encoder = enc

	p.progress("Preparing classification features (%d records)...\n", len(state.Records))
	classPrep, err := features.Prepare(state.Records, model.TaskClassification, enc, p.cfg.Training.MinRegressionSamples)
	if err != nil {
		return state, err
	}
	classSplit := features.TrainTestSplit(classPrep, p.cfg.Training.TestFraction, p.cfg.Training.SplitSeed)

	p.progress("Training classification models...\n")
	p.collect(state, trainer.TrainAll(model.TaskClassification, classSplit, p.cfg.Concurrency.Workers))

	regPrep, err := features.Prepare(state.Records, model.TaskRegression, enc, p.cfg.Training.MinRegressionSamples)
	switch {
	case err == nil:
		regSplit := features.TrainTestSplit(regPrep, p.cfg.Training.TestFraction, p.cfg.Training.SplitSeed)
		p.progress("Training regression models (%d claim rows)...\n", len(regPrep.Y))
		p.collect(state, trainer.TrainAll(model.TaskRegression, regSplit, p.cfg.Concurrency.Workers))
	case isInsufficientData(err):
		state.RegressionSkipped = true
		p.progress("Skipping regression: %v\n", err)
	default:
		return state, err
	}

	if len(state.Artifacts) == 0 {
		return state, fmt.Errorf("no model trained successfully")
	}
	return state, nil
}

func (p *Pipeline) collect(state *State, outcomes []*trainer.Outcome) {
	for _, o := range outcomes {
		if o.TrainErr != nil {
			state.Failed[o.Key] = o.TrainErr
			p.progress("  %s failed: %v\n", o.Key, o.TrainErr)
			continue
		}
		state.Artifacts[o.Key] = o.Artifact
		state.Performance[o.Key] = o.Performance
		p.progress("  %s trained\n", o.Key)
	}
}

// Persist writes dataset and artifacts per the configuration, returning the
// state with its run ID set.
func (p *Pipeline) Persist(state *State) (*State, error) {
	runID, err := store.SaveArtifacts(p.cfg.Training.ModelDir, state.Artifacts, state.Performance, state.Encoder)
	if err != nil {
		return state, err
	}
	state.RunID = runID
	return state, nil
}

// Predictor builds a predictor over the state's models.
func (p *Pipeline) Predictor(state *State) *predict.Predictor {
	return predict.New(state.Artifacts, state.Performance, state.Encoder)
}

func (p *Pipeline) progress(format string, args ...any) {
	if p.cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

func isInsufficientData(err error) bool {
	var ide *model.InsufficientDataError
	return errors.As(err, &ide)
}
