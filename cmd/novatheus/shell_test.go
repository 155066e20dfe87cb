package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvths/novatheus/neat"
)

func newTestShell() (*Shell, *bytes.Buffer) {
	var out bytes.Buffer
	opts := neat.DefaultOptions()
	opts.NeuronMin = 6
	opts.NeuronMax = 10
	opts.GenWidth = 16
	sh := NewShell(opts, &out)
	return sh, &out
}

func TestDispatchSplitsOnArrowSeparator(t *testing.T) {
	sh, out := newTestShell()
	quit := sh.Dispatch("generate random network -> generate random network")
	assert.False(t, quit)
	assert.Equal(t, 2, strings.Count(out.String(), "generated random network"))
}

func TestDispatchUnknownCommandWarnsAndContinues(t *testing.T) {
	sh, _ := newTestShell()
	quit := sh.Dispatch("frobnicate everything")
	assert.False(t, quit)
}

func TestGenerateNetworkThenTrainWithoutDatasetWarns(t *testing.T) {
	sh, out := newTestShell()
	sh.Dispatch("generate random network")
	sh.Dispatch("train")
	assert.Contains(t, out.String(), "no dataset loaded")
}

func TestCmdQuitReadsConfirmationFromInjectedReader(t *testing.T) {
	sh, out := newTestShell()
	sh.in = strings.NewReader("y\n")
	quit := sh.cmdQuit()
	assert.True(t, quit)
	assert.Contains(t, out.String(), "quit?")
}

func TestCmdQuitDefaultsToNoOnAnythingElse(t *testing.T) {
	sh, _ := newTestShell()
	sh.in = strings.NewReader("\n")
	quit := sh.cmdQuit()
	assert.False(t, quit)
}

func TestDispatchQuitCommandViaYesTerminates(t *testing.T) {
	sh, _ := newTestShell()
	sh.in = strings.NewReader("yes\n")
	quit := sh.Dispatch("quit")
	require.True(t, quit)
}
