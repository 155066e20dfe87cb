package dataset

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
)

// DumpSectionNPY writes one cross-validation section's samples as a flat [][]float64 .npy array
// for offline inspection/plotting, grounded on the teacher's experiment.go npz-dump idiom
// (ported here to the single-array npyio.Write form since a Section is one array, not a bundle).
// Diagnostic-only; never called from the training or evolution path.
func DumpSectionNPY(section *Section, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "dataset: create npy dump file")
	}
	defer f.Close()

	rows := make([][]float64, 0)
	for _, batch := range section.Batches {
		for _, s := range batch.Samples {
			row := append(append([]float64(nil), s.Input...), s.Output...)
			rows = append(rows, row)
		}
	}

	if err := npyio.Write(f, rows); err != nil {
		return errors.Wrap(err, "dataset: write npy array")
	}
	return nil
}
