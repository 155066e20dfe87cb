package evolution

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/nvths/novatheus/neat/genome"
)

func writeU32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

// SavePopulation writes genomeCount (u32) followed by each genome's Encode output back-to-back,
// per spec §6's persisted population format.
func SavePopulation(w io.Writer, genomes []*genome.Genome) error {
	if err := writeU32(w, uint32(len(genomes))); err != nil {
		return errors.Wrap(err, "evolution: write genome count")
	}
	for i, g := range genomes {
		if err := g.Encode(w); err != nil {
			return errors.Wrapf(err, "evolution: encode genome %d", i)
		}
	}
	return nil
}

// LoadPopulation reads a population previously written by SavePopulation.
func LoadPopulation(r io.Reader) ([]*genome.Genome, error) {
	count, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "evolution: read genome count")
	}
	out := make([]*genome.Genome, count)
	for i := uint32(0); i < count; i++ {
		g, err := genome.Decode(r)
		if err != nil {
			return nil, errors.Wrapf(err, "evolution: decode genome %d", i)
		}
		out[i] = g
	}
	return out, nil
}
