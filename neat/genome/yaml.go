package genome

import (
	"io"
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// yamlWeight is one (source, value) pair in a yamlChromosome's weight list, kept as a slice
// rather than a map so the dump is deterministic and diffable.
type yamlWeight struct {
	Source int     `yaml:"source"`
	Value  float64 `yaml:"value"`
}

type yamlChromosome struct {
	NID      int          `yaml:"nid"`
	Bias     float64      `yaml:"bias"`
	IsOutput bool         `yaml:"is_output"`
	Weights  []yamlWeight `yaml:"weights"`
}

// yamlGenome is the secondary, human-readable genome encoding alongside the canonical binary
// codec in codec.go, ported from the teacher's yamlGenomeWriter shape in genome_writer.go (YAML
// node-then-gene sections) down to this spec's map[NID]Chromosome model.
type yamlGenome struct {
	PopulationID int `yaml:"population_id"`
	Generation   int `yaml:"generation"`

	InputCount      int `yaml:"input_count"`
	OutputCount     int `yaml:"output_count"`
	LowestOutputNID int `yaml:"lowest_output_nid"`

	StartLRExponent float64 `yaml:"start_lr_exponent"`
	DeltaLRExponent float64 `yaml:"delta_lr_exponent"`

	Metrics Metrics `yaml:"metrics"`
	Rank    int     `yaml:"rank"`
	Tested  bool    `yaml:"tested"`

	Chromosomes []yamlChromosome `yaml:"chromosomes"`
}

// EncodeYAML writes g as human-readable YAML for inspection. The binary form from Encode remains
// the canonical persistence format; this is a debug/dump aid only.
func (g *Genome) EncodeYAML(w io.Writer) error {
	doc := yamlGenome{
		PopulationID:    g.PopulationID,
		Generation:      g.Generation,
		InputCount:      g.InputCount,
		OutputCount:     g.OutputCount,
		LowestOutputNID: g.LowestOutputNID,
		StartLRExponent: g.StartLRExponent,
		DeltaLRExponent: g.DeltaLRExponent,
		Metrics:         g.Metrics,
		Rank:            g.Rank,
		Tested:          g.Tested,
		Chromosomes:     make([]yamlChromosome, 0, len(g.order)),
	}
	for _, id := range g.order {
		c := g.chromosomes[id]
		yc := yamlChromosome{NID: id, Bias: c.Bias, IsOutput: c.IsOutput}
		for _, src := range c.sortedWeightSources() {
			yc.Weights = append(yc.Weights, yamlWeight{Source: src, Value: c.Weights[src]})
		}
		doc.Chromosomes = append(doc.Chromosomes, yc)
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "genome: marshal YAML dump")
	}
	_, err = w.Write(out)
	return errors.Wrap(err, "genome: write YAML dump")
}

// DecodeYAML reads a genome previously written by EncodeYAML. The YAML dump carries no reference
// sets, so References are rebuilt from the decoded Weights (the binary Decode, by contrast, reads
// them verbatim from the stream).
func DecodeYAML(r io.Reader) (*Genome, error) {
	content, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "genome: read YAML dump")
	}
	var doc yamlGenome
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, errors.Wrap(err, "genome: unmarshal YAML dump")
	}

	g := newEmptyGenome(doc.PopulationID, doc.InputCount, doc.OutputCount)
	g.Generation = doc.Generation
	g.LowestOutputNID = doc.LowestOutputNID
	g.StartLRExponent = doc.StartLRExponent
	g.DeltaLRExponent = doc.DeltaLRExponent
	g.Metrics = doc.Metrics
	g.Rank = doc.Rank
	g.Tested = doc.Tested

	for _, yc := range doc.Chromosomes {
		c := newChromosome(yc.Bias, yc.IsOutput)
		for _, w := range yc.Weights {
			c.Weights[w.Source] = w.Value
		}
		g.insert(yc.NID, c)
	}
	g.rebuildReferences()
	return g, nil
}
