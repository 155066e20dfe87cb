package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nvths/novatheus/neat"
	"github.com/nvths/novatheus/neat/crossval"
	"github.com/nvths/novatheus/neat/dataset"
	"github.com/nvths/novatheus/neat/evolution"
	"github.com/nvths/novatheus/neat/genome"
	"github.com/nvths/novatheus/neat/network"
	"github.com/nvths/novatheus/neat/rmath"
	"github.com/nvths/novatheus/neat/squash"
	"github.com/nvths/novatheus/neat/stats"
)

// defaultInputCount/defaultOutputCount size the reference MNIST-class task: 28x28 pixel inputs,
// 10 digit classes.
const (
	defaultInputCount  = 28 * 28
	defaultOutputCount = 10
)

// Shell is the REPL's command state: the loaded dataset and the single in-memory network or
// population commands operate on, per spec §6.
type Shell struct {
	opts *neat.Options
	out  io.Writer
	in   io.Reader
	rng  *rmath.RNG

	ds     *dataset.Dataset
	net    *network.Network
	netGen *genome.Genome

	driver *evolution.Driver
}

// NewShell constructs a Shell writing command output to out.
func NewShell(opts *neat.Options, out io.Writer) *Shell {
	return &Shell{opts: opts, out: out, in: os.Stdin, rng: rmath.NewRNG(1)}
}

// Dispatch splits line on " -> " into a queue of commands and executes them in order. Returns
// true if a quit command cleanly terminated the shell.
func (s *Shell) Dispatch(line string) bool {
	commands := strings.Split(line, " -> ")
	for _, cmd := range commands {
		cmd = strings.TrimSpace(cmd)
		if cmd == "" {
			continue
		}
		if quit := s.execute(cmd); quit {
			return true
		}
	}
	return false
}

func (s *Shell) execute(cmd string) bool {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return false
	}
	verb := fields[0]
	args := fields[1:]

	switch verb {
	case "load":
		s.cmdLoad(args)
	case "generate":
		s.cmdGenerate(args)
	case "train":
		s.cmdTrain(args)
	case "crossval-train":
		s.cmdCrossvalTrain(args)
	case "step":
		s.cmdStepPopulation(args)
	case "save":
		s.cmdSave(args)
	case "quit", "exit":
		return s.cmdQuit()
	default:
		neat.WarnLog(fmt.Sprintf("unknown command: %q", cmd))
	}
	return false
}

func (s *Shell) cmdLoad(args []string) {
	if len(args) == 0 {
		neat.WarnLog("usage: load dataset|network|population [path...]")
		return
	}
	switch args[0] {
	case "dataset":
		s.cmdLoadDataset(args[1:])
	case "network":
		s.cmdLoadNetwork(args[1:])
	case "population":
		s.cmdLoadPopulation(args[1:])
	default:
		neat.WarnLog("usage: load dataset|network|population [path...]")
	}
}

func (s *Shell) cmdLoadDataset(args []string) {
	imagesPath, labelsPath := "data/train-images-idx3-ubyte", "data/train-labels-idx1-ubyte"
	if len(args) >= 2 {
		imagesPath, labelsPath = args[0], args[1]
	}
	ds, err := dataset.Load(imagesPath, labelsPath, defaultOutputCount, s.opts.MinibatchSize, s.opts.CrossvalCount)
	if err != nil {
		neat.WarnLog(fmt.Sprintf("failed to load dataset: %v", err))
		return
	}
	s.ds = ds
	if s.driver != nil {
		s.driver.Dataset = ds
	}
	fmt.Fprintf(s.out, "dataset loaded: %d sections\n", len(ds.Sections))
}

func (s *Shell) cmdLoadNetwork(args []string) {
	if len(args) == 0 {
		neat.WarnLog("usage: load network <path>")
		return
	}
	f, err := os.Open(args[0])
	if err != nil {
		neat.WarnLog(fmt.Sprintf("failed to open %s: %v", args[0], err))
		return
	}
	defer f.Close()
	g, err := genome.Decode(f)
	if err != nil {
		neat.WarnLog(fmt.Sprintf("failed to decode network: %v", err))
		return
	}
	s.netGen = g
	s.net = network.New(g, squash.Default)
	fmt.Fprintf(s.out, "loaded network: populationID=%d generation=%d size=%d\n", g.PopulationID, g.Generation, g.Size())
}

func (s *Shell) cmdLoadPopulation(args []string) {
	if len(args) == 0 {
		neat.WarnLog("usage: load population <path>")
		return
	}
	f, err := os.Open(args[0])
	if err != nil {
		neat.WarnLog(fmt.Sprintf("failed to open %s: %v", args[0], err))
		return
	}
	defer f.Close()
	genomes, err := evolution.LoadPopulation(f)
	if err != nil {
		neat.WarnLog(fmt.Sprintf("failed to decode population: %v", err))
		return
	}
	pop := evolution.NewLoadedPopulation(genomes)
	s.driver = &evolution.Driver{
		Population: pop,
		Options:    s.opts,
		Dataset:    s.ds,
		Squasher:   squash.Default,
		RNG:        s.rng,
		OnStats:    s.writeStatsRow,
	}
	fmt.Fprintf(s.out, "loaded population of %d genomes\n", len(genomes))
}

func (s *Shell) cmdGenerate(args []string) {
	if len(args) == 0 {
		neat.WarnLog("usage: generate random network|population")
		return
	}
	cons := genome.Constraints{NeuronMin: s.opts.NeuronMin, NeuronMax: s.opts.NeuronMax, FanInMax: s.opts.FanInMax}
	switch args[len(args)-1] {
	case "network":
		g, err := genome.NewRandomGenome(1, defaultInputCount, defaultOutputCount, cons, s.rng)
		if err != nil {
			neat.WarnLog(fmt.Sprintf("failed to generate random network: %v", err))
			return
		}
		s.netGen = g
		s.net = network.New(g, squash.Default)
		fmt.Fprintf(s.out, "generated random network, size=%d\n", g.Size())
	case "population":
		pop, err := evolution.NewPopulation(1, defaultInputCount, defaultOutputCount, s.opts, s.rng)
		if err != nil {
			neat.WarnLog(fmt.Sprintf("failed to generate random population: %v", err))
			return
		}
		s.driver = &evolution.Driver{
			Population: pop,
			Options:    s.opts,
			Dataset:    s.ds,
			Squasher:   squash.Default,
			RNG:        s.rng,
			OnStats:    s.writeStatsRow,
		}
		fmt.Fprintf(s.out, "generated random population of %d genomes\n", s.opts.GenWidth)
	default:
		neat.WarnLog("usage: generate random network|population")
	}
}

func (s *Shell) cmdTrain(args []string) {
	if len(args) > 0 && args[0] == "population" {
		if s.driver == nil {
			neat.WarnLog("no population generated; use 'generate random population' first")
			return
		}
		if s.driver.Dataset == nil {
			fmt.Fprintln(s.out, "no dataset loaded; use 'load dataset' first")
			return
		}
		maxGens := 1
		if len(args) > 1 {
			if n, err := strconv.Atoi(args[1]); err == nil {
				maxGens = n
			}
		}
		if err := s.driver.RunPopulation(context.Background(), maxGens); err != nil {
			neat.WarnLog(fmt.Sprintf("training population failed: %v", err))
		}
		return
	}

	if s.net == nil {
		neat.WarnLog("no network generated; use 'generate random network' first")
		return
	}
	if s.ds == nil {
		fmt.Fprintln(s.out, "no dataset loaded; use 'load dataset' first")
		return
	}
	batches, offset := s.opts.StandardBatchCount, 0
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			batches = n
		}
	}
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil {
			offset = n
		}
	}
	foldMask := make([]bool, len(s.ds.Sections))
	m := s.net.TrainFromDataset(s.netGen, s.ds, foldMask, batches, offset, s.opts.StandardBatchCount)
	fmt.Fprintf(s.out, "trained %d batches: cost=%.4f accuracy=%.2f%%\n", batches, m.TrainCost, m.TrainAccuracy)
}

func (s *Shell) cmdCrossvalTrain(args []string) {
	if s.netGen == nil {
		neat.WarnLog("no network generated; use 'generate random network' first")
		return
	}
	if s.ds == nil {
		neat.WarnLog("no dataset loaded; use 'load dataset' first")
		return
	}
	if err := crossval.Train(s.netGen, s.ds, s.opts, squash.Default); err != nil {
		neat.WarnLog(fmt.Sprintf("crossval training failed: %v", err))
		return
	}
	fmt.Fprintf(s.out, "crossval-trained: testAccuracy=%.2f%%\n", s.netGen.Metrics.TestAccuracy)
}

func (s *Shell) cmdStepPopulation(args []string) {
	if s.driver == nil {
		neat.WarnLog("no population generated; use 'generate random population' first")
		return
	}
	ranked := s.driver.RankForStep()
	s.driver.StepPopulation(ranked)
	fmt.Fprintln(s.out, "stepped population to next generation")
}

func (s *Shell) cmdSave(args []string) {
	if len(args) < 2 {
		neat.WarnLog("usage: save network|population <path>")
		return
	}
	kind, path := args[0], args[1]
	f, err := os.Create(path)
	if err != nil {
		neat.WarnLog(fmt.Sprintf("failed to create %s: %v", path, err))
		return
	}
	defer f.Close()

	switch kind {
	case "network":
		if s.netGen == nil {
			neat.WarnLog("no network generated")
			return
		}
		if err := s.netGen.Encode(f); err != nil {
			neat.WarnLog(fmt.Sprintf("failed to save network: %v", err))
		}
	case "population":
		if s.driver == nil {
			neat.WarnLog("no population generated")
			return
		}
		if err := evolution.SavePopulation(f, s.driver.Population.Genomes()); err != nil {
			neat.WarnLog(fmt.Sprintf("failed to save population: %v", err))
		}
	default:
		neat.WarnLog("usage: save network|population <path>")
	}
}

func (s *Shell) cmdQuit() bool {
	fmt.Fprint(s.out, "quit? [y/N] ")
	reader := bufio.NewReader(s.in)
	answer, _ := reader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func (s *Shell) writeStatsRow(row stats.Row) error {
	return stats.WriteTSVRow(s.out, row)
}
