// Package stats computes and persists the per-generation statistics row spec §6 names: for each
// of the six training/testing metrics, the top (rank-0) genome's value plus mean/best/quartiles/
// worst across the whole population, written as one tab-separated row per generation.
package stats

import (
	"fmt"
	"io"

	"github.com/nvths/novatheus/neat/genome"
)

// metricNames gives the six metrics in the column order spec §6 lists them.
var metricNames = [6]string{
	"training-cost", "training-weighted-cost", "training-accuracy",
	"testing-cost", "testing-weighted-cost", "testing-accuracy",
}

// lowerIsBetter marks which of the six metrics are costs (where "best" means the minimum).
var lowerIsBetter = [6]bool{true, true, false, true, true, false}

func extract(all []genome.Metrics, i int) Floats {
	out := make(Floats, len(all))
	for j, m := range all {
		switch i {
		case 0:
			out[j] = m.TrainCost
		case 1:
			out[j] = m.TrainWeightedCost
		case 2:
			out[j] = m.TrainAccuracy
		case 3:
			out[j] = m.TestCost
		case 4:
			out[j] = m.TestWeightedCost
		case 5:
			out[j] = m.TestAccuracy
		}
	}
	return out
}

// MetricRow is one metric's seven summary columns: top, mean, best, upper-quartile, median,
// lower-quartile, worst, per spec §6.
type MetricRow struct {
	Top    float64
	Mean   float64
	Best   float64
	Q3     float64
	Median float64
	Q1     float64
	Worst  float64
}

// Row is one generation's full statistics record: 6 metrics x 7 columns, plus the generation
// number.
type Row struct {
	Gen     int
	Metrics [6]MetricRow
}

// BuildRow computes a Row from a population's per-genome Metrics, assumed already sorted by
// descending rank (index 0 is rank 0, the top-ranked genome).
func BuildRow(gen int, ranked []genome.Metrics) Row {
	row := Row{Gen: gen}
	for i := 0; i < 6; i++ {
		values := extract(ranked, i)
		mr := MetricRow{
			Mean:   values.Mean(),
			Q3:     values.Q75(),
			Median: values.Median(),
			Q1:     values.Q25(),
		}
		if len(ranked) > 0 {
			mr.Top = values[0]
		}
		if lowerIsBetter[i] {
			mr.Best = values.Min()
			mr.Worst = values.Max()
		} else {
			mr.Best = values.Max()
			mr.Worst = values.Min()
		}
		row.Metrics[i] = mr
	}
	return row
}

// WriteTSVHeader writes the column header line: gen, then 7 columns per metric.
func WriteTSVHeader(w io.Writer) error {
	cols := []string{"gen"}
	for _, name := range metricNames {
		cols = append(cols,
			name+"-top", name+"-mean", name+"-best", name+"-q3", name+"-median", name+"-q1", name+"-worst")
	}
	return writeTSVLine(w, cols)
}

// WriteTSVRow appends one generation's statistics row.
func WriteTSVRow(w io.Writer, row Row) error {
	cols := []string{fmt.Sprintf("%d", row.Gen)}
	for _, mr := range row.Metrics {
		cols = append(cols,
			fmt.Sprintf("%g", mr.Top), fmt.Sprintf("%g", mr.Mean), fmt.Sprintf("%g", mr.Best),
			fmt.Sprintf("%g", mr.Q3), fmt.Sprintf("%g", mr.Median), fmt.Sprintf("%g", mr.Q1),
			fmt.Sprintf("%g", mr.Worst))
	}
	return writeTSVLine(w, cols)
}

func writeTSVLine(w io.Writer, cols []string) error {
	for i, c := range cols {
		if i > 0 {
			if _, err := io.WriteString(w, "\t"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, c); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}
