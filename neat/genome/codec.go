package genome

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Encode writes g in the little-endian binary layout from spec §6. No pack library in the
// example corpus implements this exact hand-rolled schema, so encoding/binary is used directly
// (see DESIGN.md).
func (g *Genome) Encode(w io.Writer) error {
	if err := writeU32(w, uint32(g.PopulationID)); err != nil {
		return err
	}
	if err := writeU32(w, uint32(g.Generation)); err != nil {
		return err
	}
	if err := writeBool(w, g.Tested); err != nil {
		return err
	}
	if err := writeU32(w, uint32(g.Rank)); err != nil {
		return err
	}
	metrics := []float64{
		g.Metrics.TrainCost, g.Metrics.TrainWeightedCost, g.Metrics.TrainAccuracy,
		g.Metrics.TestCost, g.Metrics.TestWeightedCost, g.Metrics.TestAccuracy,
	}
	for _, m := range metrics {
		if err := writeF32(w, m); err != nil {
			return err
		}
	}
	if err := writeU32(w, uint32(g.InputCount)); err != nil {
		return err
	}
	if err := writeU32(w, uint32(g.OutputCount)); err != nil {
		return err
	}
	if err := writeU32(w, uint32(g.LowestOutputNID)); err != nil {
		return err
	}
	if err := writeF32(w, g.StartLRExponent); err != nil {
		return err
	}
	if err := writeF32(w, g.DeltaLRExponent); err != nil {
		return err
	}
	if err := writeU32(w, uint32(g.Size())); err != nil {
		return err
	}

	for _, id := range g.order {
		c := g.chromosomes[id]
		if err := writeU32(w, uint32(id)); err != nil {
			return err
		}
		if err := writeF32(w, c.Bias); err != nil {
			return err
		}
		if err := writeBool(w, c.IsOutput); err != nil {
			return err
		}
		weightIDs := c.sortedWeightSources()
		if err := writeU32(w, uint32(len(weightIDs))); err != nil {
			return err
		}
		for _, src := range weightIDs {
			if err := writeU32(w, uint32(src)); err != nil {
				return err
			}
			if err := writeF32(w, c.Weights[src]); err != nil {
				return err
			}
		}
		refIDs := c.sortedReferences()
		if err := writeU32(w, uint32(len(refIDs))); err != nil {
			return err
		}
		for _, ref := range refIDs {
			if err := writeU32(w, uint32(ref)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Decode reads a Genome previously written by Encode. The reverse-reference sets are taken
// verbatim from the stream rather than recomputed, so a round trip is an exact structural
// equality check, not merely a re-derivation.
func Decode(r io.Reader) (*Genome, error) {
	populationID, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "genome: read populationID")
	}
	generation, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "genome: read generation")
	}
	tested, err := readBool(r)
	if err != nil {
		return nil, errors.Wrap(err, "genome: read tested")
	}
	rank, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "genome: read rank")
	}
	var metrics [6]float64
	for i := range metrics {
		metrics[i], err = readF32(r)
		if err != nil {
			return nil, errors.Wrap(err, "genome: read metric")
		}
	}
	inputCount, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "genome: read inputCount")
	}
	outputCount, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "genome: read outputCount")
	}
	lowestOutputNID, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "genome: read lowestOutputNID")
	}
	startExp, err := readF32(r)
	if err != nil {
		return nil, errors.Wrap(err, "genome: read startLRExponent")
	}
	deltaExp, err := readF32(r)
	if err != nil {
		return nil, errors.Wrap(err, "genome: read deltaLRExponent")
	}
	count, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "genome: read chromosome count")
	}

	g := newEmptyGenome(int(populationID), int(inputCount), int(outputCount))
	g.Generation = int(generation)
	g.Tested = tested
	g.Rank = int(rank)
	g.LowestOutputNID = int(lowestOutputNID)
	g.StartLRExponent = startExp
	g.DeltaLRExponent = deltaExp
	g.Metrics = Metrics{
		TrainCost: metrics[0], TrainWeightedCost: metrics[1], TrainAccuracy: metrics[2],
		TestCost: metrics[3], TestWeightedCost: metrics[4], TestAccuracy: metrics[5],
	}

	for i := uint32(0); i < count; i++ {
		nid, err := readU32(r)
		if err != nil {
			return nil, errors.Wrap(err, "genome: read chromosome NID")
		}
		bias, err := readF32(r)
		if err != nil {
			return nil, errors.Wrap(err, "genome: read bias")
		}
		isOutput, err := readBool(r)
		if err != nil {
			return nil, errors.Wrap(err, "genome: read isOutput")
		}
		c := newChromosome(bias, isOutput)

		weightCount, err := readU32(r)
		if err != nil {
			return nil, errors.Wrap(err, "genome: read weightCount")
		}
		for j := uint32(0); j < weightCount; j++ {
			wid, err := readU32(r)
			if err != nil {
				return nil, errors.Wrap(err, "genome: read weight NID")
			}
			wv, err := readF32(r)
			if err != nil {
				return nil, errors.Wrap(err, "genome: read weight value")
			}
			c.Weights[int(wid)] = wv
		}

		refCount, err := readU32(r)
		if err != nil {
			return nil, errors.Wrap(err, "genome: read refCount")
		}
		for j := uint32(0); j < refCount; j++ {
			rid, err := readU32(r)
			if err != nil {
				return nil, errors.Wrap(err, "genome: read ref NID")
			}
			c.References[int(rid)] = struct{}{}
		}

		g.insert(int(nid), c)
	}

	return g, nil
}

func writeU32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func writeF32(w io.Writer, v float64) error {
	return binary.Write(w, binary.LittleEndian, float32(v))
}

func writeBool(w io.Writer, v bool) error {
	var b byte
	if v {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readF32(r io.Reader) (float64, error) {
	var v float32
	err := binary.Read(r, binary.LittleEndian, &v)
	return float64(v), err
}

func readBool(r io.Reader) (bool, error) {
	var b [1]byte
	_, err := io.ReadFull(r, b[:])
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}
