// Package dataset reads the IDX-format image/label pairs (the MNIST-class reference dataset, see
// spec §6) into the pre-partitioned, pre-normalised form the crossval and network packages train
// against. The teacher carries no IDX reader of its own, so the decoder is hand-rolled on
// encoding/binary (see DESIGN.md); layout and normalisation follow spec.md exactly.
package dataset

import (
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Sample is one labelled example: Input is the normalised pixel vector, Output is the one-hot-
// style target vector (correct class 0.9, others 0.1), per spec §6.
type Sample struct {
	Input  []float64
	Output []float64
}

// Batch is one fixed-size minibatch, guarded by its own mutex: training shares each batch's
// samples across the CROSSVAL_COUNT concurrently-training fold networks, so the mutex serialises
// access to the batch's scratch rather than protecting any single Network, per spec §5.
type Batch struct {
	Samples []Sample
	mu      sync.Mutex
}

// Lock acquires the batch's mutex for the duration of a fold network's pass over it.
func (b *Batch) Lock() { b.mu.Lock() }

// Unlock releases the batch's mutex.
func (b *Batch) Unlock() { b.mu.Unlock() }

// Section is one of the CROSSVAL_COUNT equally-sized cross-validation partitions.
type Section struct {
	Batches []*Batch
}

// Dataset is the full pre-partitioned, read-only training corpus.
type Dataset struct {
	InputCount  int
	OutputCount int
	Sections    []*Section
}

// idxMagicImages and idxMagicLabels are the canonical IDX file magic numbers for the ubyte image
// and label variants.
const (
	idxMagicImages = 0x00000803
	idxMagicLabels = 0x00000801
)

// Load reads an IDX image file and an IDX label file, normalises pixels to
// 0.1 + (p/255)*0.8 (zero pixels stay 0.0), builds one-hot-style 0.9/0.1 output vectors, and
// partitions the result into crossvalCount equal sections of minibatchSize-sample batches.
// Trailing samples that don't fill a full batch, or a full section, are discarded.
func Load(imagesPath, labelsPath string, outputCount, minibatchSize, crossvalCount int) (*Dataset, error) {
	images, err := os.Open(imagesPath)
	if err != nil {
		return nil, errors.Wrap(err, "dataset: open images file")
	}
	defer images.Close()
	labels, err := os.Open(labelsPath)
	if err != nil {
		return nil, errors.Wrap(err, "dataset: open labels file")
	}
	defer labels.Close()

	pixels, rows, cols, err := readIDXImages(images)
	if err != nil {
		return nil, errors.Wrap(err, "dataset: decode images")
	}
	labelValues, err := readIDXLabels(labels)
	if err != nil {
		return nil, errors.Wrap(err, "dataset: decode labels")
	}
	if len(pixels) != len(labelValues) {
		return nil, errors.Errorf("dataset: image count %d does not match label count %d", len(pixels), len(labelValues))
	}

	inputCount := rows * cols
	samples := make([]Sample, len(pixels))
	for i, p := range pixels {
		samples[i] = Sample{
			Input:  normalizePixels(p),
			Output: oneHot(int(labelValues[i]), outputCount),
		}
	}

	return partition(samples, inputCount, outputCount, minibatchSize, crossvalCount), nil
}

func normalizePixels(raw []byte) []float64 {
	out := make([]float64, len(raw))
	for i, p := range raw {
		if p == 0 {
			out[i] = 0.0
			continue
		}
		out[i] = 0.1 + (float64(p)/255.0)*0.8
	}
	return out
}

func oneHot(class, outputCount int) []float64 {
	out := make([]float64, outputCount)
	for i := range out {
		out[i] = 0.1
	}
	if class >= 0 && class < outputCount {
		out[class] = 0.9
	}
	return out
}

// partition splits samples into crossvalCount equal sections of minibatchSize-sample batches,
// discarding any remainder that doesn't fill a whole batch or a whole section.
func partition(samples []Sample, inputCount, outputCount, minibatchSize, crossvalCount int) *Dataset {
	perSection := (len(samples) / crossvalCount / minibatchSize) * minibatchSize
	ds := &Dataset{InputCount: inputCount, OutputCount: outputCount, Sections: make([]*Section, crossvalCount)}
	cursor := 0
	for s := 0; s < crossvalCount; s++ {
		section := &Section{}
		for off := 0; off+minibatchSize <= perSection; off += minibatchSize {
			batch := &Batch{Samples: append([]Sample(nil), samples[cursor+off:cursor+off+minibatchSize]...)}
			section.Batches = append(section.Batches, batch)
		}
		cursor += perSection
		ds.Sections[s] = section
	}
	return ds
}

func readIDXImages(r io.Reader) ([][]byte, int, int, error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, 0, 0, err
	}
	if header[0] != idxMagicImages {
		return nil, 0, 0, errors.Errorf("unexpected IDX image magic %#x", header[0])
	}
	count, rows, cols := int(header[1]), int(header[2]), int(header[3])
	out := make([][]byte, count)
	stride := rows * cols
	for i := range out {
		buf := make([]byte, stride)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, 0, 0, err
		}
		out[i] = buf
	}
	return out, rows, cols, nil
}

func readIDXLabels(r io.Reader) ([]byte, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, err
	}
	if header[0] != idxMagicLabels {
		return nil, errors.Errorf("unexpected IDX label magic %#x", header[0])
	}
	buf := make([]byte, int(header[1]))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
