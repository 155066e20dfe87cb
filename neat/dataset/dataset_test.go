package dataset

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeIDXImages(t *testing.T, path string, count, rows, cols int, fill func(i, px int) byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	header := [4]uint32{idxMagicImages, uint32(count), uint32(rows), uint32(cols)}
	require.NoError(t, binary.Write(f, binary.BigEndian, header))
	for i := 0; i < count; i++ {
		buf := make([]byte, rows*cols)
		for px := range buf {
			buf[px] = fill(i, px)
		}
		_, err := f.Write(buf)
		require.NoError(t, err)
	}
}

func writeIDXLabels(t *testing.T, path string, labels []byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	header := [2]uint32{idxMagicLabels, uint32(len(labels))}
	require.NoError(t, binary.Write(f, binary.BigEndian, header))
	_, err = f.Write(labels)
	require.NoError(t, err)
}

func TestNormalizePixelsKeepsZeroAtZero(t *testing.T) {
	out := normalizePixels([]byte{0, 255, 128})
	assert.Equal(t, 0.0, out[0])
	assert.InDelta(t, 0.9, out[1], 1e-9)
	assert.InDelta(t, 0.1+(128.0/255.0)*0.8, out[2], 1e-9)
}

func TestOneHotMarksCorrectClass(t *testing.T) {
	out := oneHot(3, 5)
	for i, v := range out {
		if i == 3 {
			assert.InDelta(t, 0.9, v, 1e-9)
		} else {
			assert.InDelta(t, 0.1, v, 1e-9)
		}
	}
}

func TestLoadDecodesAndPartitionsDiscardingRemainder(t *testing.T) {
	dir := t.TempDir()
	imagesPath := filepath.Join(dir, "images")
	labelsPath := filepath.Join(dir, "labels")

	const (
		count = 23 // deliberately not a multiple of crossvalCount*minibatchSize
		rows  = 2
		cols  = 2
	)
	writeIDXImages(t, imagesPath, count, rows, cols, func(i, px int) byte {
		return byte((i + px) % 256)
	})
	labels := make([]byte, count)
	for i := range labels {
		labels[i] = byte(i % 4)
	}
	writeIDXLabels(t, labelsPath, labels)

	ds, err := Load(imagesPath, labelsPath, 4, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, rows*cols, ds.InputCount)
	assert.Equal(t, 4, ds.OutputCount)
	require.Len(t, ds.Sections, 3)

	// 23 samples / 3 sections = 7 per section, rounded down to a multiple of
	// minibatchSize=2 -> 6 samples -> 3 batches per section.
	for _, section := range ds.Sections {
		require.Len(t, section.Batches, 3)
		for _, batch := range section.Batches {
			assert.Len(t, batch.Samples, 2)
			for _, sample := range batch.Samples {
				assert.Len(t, sample.Input, rows*cols)
				assert.Len(t, sample.Output, 4)
			}
		}
	}
}

func TestLoadRejectsMismatchedImageAndLabelCounts(t *testing.T) {
	dir := t.TempDir()
	imagesPath := filepath.Join(dir, "images")
	labelsPath := filepath.Join(dir, "labels")

	writeIDXImages(t, imagesPath, 5, 2, 2, func(i, px int) byte { return 0 })
	writeIDXLabels(t, labelsPath, []byte{0, 1, 2})

	_, err := Load(imagesPath, labelsPath, 4, 2, 3)
	assert.Error(t, err)
}
