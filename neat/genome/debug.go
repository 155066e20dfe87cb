package genome

import (
	"fmt"
	"strings"
)

// String returns a human-readable dump of the genome's chromosomes for REPL inspection, in the
// spirit of the teacher's Genome.String(). Diagnostic-only; does not affect any invariant and is
// never consumed by the training or evolution path.
func (g *Genome) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "GENOME %d gen=%d size=%d inputs=%d outputs=%d lowestOutput=%d\n",
		g.PopulationID, g.Generation, g.Size(), g.InputCount, g.OutputCount, g.LowestOutputNID)
	for _, id := range g.order {
		c := g.chromosomes[id]
		kind := "H"
		if c.IsOutput {
			kind = "O"
		}
		fmt.Fprintf(&b, "\t%s%d bias=%.4f fanIn=%d\n", kind, id, c.Bias, len(c.Weights))
	}
	return b.String()
}

// DebugDump writes a more detailed listing including every weight and reverse reference.
// Diagnostic-only; no REPL command calls it.
func (g *Genome) DebugDump() string {
	var b strings.Builder
	b.WriteString(g.String())
	for _, id := range g.order {
		c := g.chromosomes[id]
		b.WriteString(fmt.Sprintf("\t%d weights:", id))
		for _, src := range c.sortedWeightSources() {
			fmt.Fprintf(&b, " %d=%.4f", src, c.Weights[src])
		}
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("\t%d refs:", id))
		for _, ref := range c.sortedReferences() {
			fmt.Fprintf(&b, " %d", ref)
		}
		b.WriteString("\n")
	}
	return b.String()
}
