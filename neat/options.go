package neat

import (
	"github.com/pkg/errors"
)

// MutationType names one of the mutation actions the genome mutator can select, weighted by Options.MutationWeights.
type MutationType string

// The mutation table entries, see spec §4.3.
const (
	MutationNeuronAdd       MutationType = "neuron_add"
	MutationNeuronDelete    MutationType = "neuron_delete"
	MutationNeuronIDDrift   MutationType = "neuron_id_drift"
	MutationNeuronBiasDrift MutationType = "neuron_bias_drift"
	MutationConnAdd         MutationType = "conn_add"
	MutationConnDelete      MutationType = "conn_delete"
	MutationConnIDDrift     MutationType = "conn_id_drift"
	MutationConnWeightDrift MutationType = "conn_weight_drift"
	MutationLRStartDrift    MutationType = "lr_start_drift"
	MutationLREndDrift      MutationType = "lr_end_drift"
)

// DefaultMutationWeights returns the default mutation table weights from spec §4.3.
func DefaultMutationWeights() map[MutationType]float64 {
	return map[MutationType]float64{
		MutationNeuronAdd:       1,
		MutationNeuronDelete:    1,
		MutationNeuronIDDrift:   2,
		MutationNeuronBiasDrift: 3,
		MutationConnAdd:         2,
		MutationConnDelete:      2,
		MutationConnIDDrift:     1,
		MutationConnWeightDrift: 5,
		MutationLRStartDrift:    1,
		MutationLREndDrift:      1,
	}
}

// Options is the global configuration holder for a Novatheus run. The core packages take it as
// an explicit parameter or struct field (crossval.Train, evolution.Driver); NewContext/FromContext
// can additionally carry it in a context.Context.
type Options struct {
	// NeuronMin/NeuronMax bound the chromosome count of any genome (invariant I1).
	NeuronMin int `yaml:"neuron_min"`
	NeuronMax int `yaml:"neuron_max"`
	// FanInMax bounds the incoming weight count of any chromosome (invariant I8).
	FanInMax int `yaml:"fanin_max"`

	// GenWidth is the fixed population size; must be a multiple of 16.
	GenWidth int `yaml:"gen_width"`
	// ConcurrentGenomes is the outer worker pool width (simultaneous genomes under crossval training).
	ConcurrentGenomes int `yaml:"concurrent_genomes"`
	// CrossvalCount is the number of folds (and inner worker pool width) per genome.
	CrossvalCount int `yaml:"crossval_count"`
	// TestFoldSpan is how many consecutive folds form the test set for each network (3 of 10 by default).
	TestFoldSpan int `yaml:"test_fold_span"`

	// MinibatchSize is the fixed sample count per training batch.
	MinibatchSize int `yaml:"minibatch_size"`
	// StandardBatchCount scales the learning-rate decay schedule, see spec §4.6.
	StandardBatchCount int `yaml:"standard_batch_count"`
	// CostBufferLen is the configured rolling-buffer length for per-batch metrics. The network
	// package does not read it; its history buffer is fixed at 100 entries.
	CostBufferLen int `yaml:"cost_buffer_len"`

	// MutationWeights is the weighted mutation table, see spec §4.3.
	MutationWeights map[MutationType]float64 `yaml:"mutation_weights"`

	// LogLevel controls package-level logging verbosity ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level"`
}

// DefaultOptions returns the default Options with every tunable named in spec §4 set to its documented default.
func DefaultOptions() *Options {
	return &Options{
		NeuronMin:          1000,
		NeuronMax:          10000,
		FanInMax:           256,
		GenWidth:           16,
		ConcurrentGenomes:  2,
		CrossvalCount:      10,
		TestFoldSpan:       3,
		MinibatchSize:      100,
		StandardBatchCount: 1260,
		CostBufferLen:      100,
		MutationWeights:    DefaultMutationWeights(),
		LogLevel:           "info",
	}
}

// Validate checks that Options carries a self-consistent configuration. It is called by every
// options loader before the Options value is returned to the caller.
func (o *Options) Validate() error {
	if o.NeuronMin <= 0 || o.NeuronMax <= 0 || o.NeuronMin > o.NeuronMax {
		return errors.Errorf("invalid neuron bounds: [%d, %d]", o.NeuronMin, o.NeuronMax)
	}
	if o.FanInMax <= 0 {
		return errors.Errorf("invalid fan-in max: %d", o.FanInMax)
	}
	if o.GenWidth <= 0 || o.GenWidth%16 != 0 {
		return errors.Errorf("GEN_WIDTH must be a positive multiple of 16, got: %d", o.GenWidth)
	}
	if o.ConcurrentGenomes <= 0 {
		return errors.Errorf("invalid concurrent genomes: %d", o.ConcurrentGenomes)
	}
	if o.CrossvalCount <= 0 || o.TestFoldSpan <= 0 || o.TestFoldSpan >= o.CrossvalCount {
		return errors.Errorf("invalid crossval fold configuration: count=%d, testSpan=%d", o.CrossvalCount, o.TestFoldSpan)
	}
	if o.MinibatchSize <= 0 {
		return errors.Errorf("invalid minibatch size: %d", o.MinibatchSize)
	}
	if o.StandardBatchCount <= 0 {
		return errors.Errorf("invalid standard batch count: %d", o.StandardBatchCount)
	}
	if len(o.MutationWeights) == 0 {
		return errors.New("mutation weights table is empty")
	}
	return nil
}
