package stats

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nvths/novatheus/neat/genome"
)

func TestBuildRowTopIsRankZero(t *testing.T) {
	ranked := []genome.Metrics{
		{TrainCost: 0.1, TestAccuracy: 90},
		{TrainCost: 0.5, TestAccuracy: 60},
		{TrainCost: 0.9, TestAccuracy: 30},
	}
	row := BuildRow(5, ranked)
	assert.Equal(t, 5, row.Gen)
	assert.Equal(t, 0.1, row.Metrics[0].Top)
	assert.Equal(t, 90.0, row.Metrics[5].Top)
	assert.Equal(t, 0.1, row.Metrics[0].Best)
	assert.Equal(t, 0.9, row.Metrics[0].Worst)
	assert.Equal(t, 90.0, row.Metrics[5].Best)
	assert.Equal(t, 30.0, row.Metrics[5].Worst)
}

func TestWriteTSVRowColumnCount(t *testing.T) {
	var buf bytes.Buffer
	require := assert.New(t)
	require.NoError(WriteTSVHeader(&buf))
	row := BuildRow(0, []genome.Metrics{{}})
	require.NoError(WriteTSVRow(&buf, row))

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	assert.Len(t, lines, 2)
	headerCols := bytes.Split(lines[0], []byte("\t"))
	rowCols := bytes.Split(lines[1], []byte("\t"))
	assert.Len(t, headerCols, 43)
	assert.Len(t, rowCols, 43)
}
