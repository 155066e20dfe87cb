package network

import (
	"github.com/nvths/novatheus/neat/dataset"
	"github.com/nvths/novatheus/neat/genome"
)

// correctWeight and offWeight are the asymmetric cost weighting spec §4.6 and §9 call for: the
// correct output's squared-error contribution counts 5x, and its gradient signal is scaled 10x
// against the other outputs' 2x. Preserved exactly as observed; do not "fix" to a symmetric form.
const (
	correctCostWeight = 5.0
	correctGradScale  = 10.0
	offGradScale      = 2.0
)

// TrainFromBatch runs one minibatch of training: forward pass, cost/gradient accumulation, and a
// single gradient-descent weight update at the given learning rate, per spec §4.6. It locks
// batch's mutex for its duration, since the same Batch is shared read-only across the
// CROSSVAL_COUNT concurrently-training fold networks.
func (n *Network) TrainFromBatch(batch *dataset.Batch, learningRate float64) (cost, weightedCost, accuracy float64) {
	batch.Lock()
	defer batch.Unlock()

	var sumCost, sumWeightedCost float64
	var correct int

	for _, sample := range batch.Samples {
		out := n.Run(sample.Input, true)
		sc, swc, isCorrect := n.accumulateGradients(out, sample.Output)
		sumCost += sc
		sumWeightedCost += swc
		if isCorrect {
			correct++
		}
	}

	n.applyGradients(learningRate, len(batch.Samples))

	count := float64(len(batch.Samples))
	if count == 0 {
		return 0, 0, 0
	}
	cost, weightedCost, accuracy = sumCost/count, sumWeightedCost/count, float64(correct)/count*100
	n.pushHistory(HistoryEntry{Cost: cost, WeightedCost: weightedCost, Accuracy: accuracy})
	return cost, weightedCost, accuracy
}

// TestFromBatch runs a forward-only pass over batch, returning the same triple as TrainFromBatch
// without modifying any weight or bias.
func (n *Network) TestFromBatch(batch *dataset.Batch) (cost, weightedCost, accuracy float64) {
	batch.Lock()
	defer batch.Unlock()

	var sumCost, sumWeightedCost float64
	var correct int
	for _, sample := range batch.Samples {
		out := n.Run(sample.Input, false)
		sc, swc, isCorrect := evaluateOnly(out, sample.Output)
		sumCost += sc
		sumWeightedCost += swc
		if isCorrect {
			correct++
		}
	}
	count := float64(len(batch.Samples))
	if count == 0 {
		return 0, 0, 0
	}
	return sumCost / count, sumWeightedCost / count, float64(correct) / count * 100
}

// correctIndex returns the index of the output whose target exceeds 0.5 -- the "correct answer"
// slot in a one-hot-style target vector, per spec §4.6.
func correctIndex(target []float64) int {
	for i, v := range target {
		if v > 0.5 {
			return i
		}
	}
	return -1
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func evaluateOnly(out, target []float64) (cost, weightedCost float64, correct bool) {
	correctIdx := correctIndex(target)
	for i, a := range out {
		diff := target[i] - a
		sq := diff * diff
		cost += sq
		if i == correctIdx {
			weightedCost += sq * correctCostWeight
		} else {
			weightedCost += sq
		}
	}
	return cost, weightedCost, argmax(out) == correctIdx
}

// accumulateGradients sets each output neuron's dCost/dA, walks the network in reverse to
// propagate gradients to every bias and weight, and returns the sample's cost/weighted-cost/
// correctness triple, per spec §4.6 step 2-3.
func (n *Network) accumulateGradients(out, target []float64) (cost, weightedCost float64, correct bool) {
	correctIdx := correctIndex(target)
	outStart := len(n.neurons) - n.outputCount

	for i, a := range out {
		diff := a - target[i]
		sq := diff * diff
		cost += sq
		if i == correctIdx {
			weightedCost += sq * correctCostWeight
			n.neurons[outStart+i].dCostDA = correctGradScale * diff
		} else {
			weightedCost += sq
			n.neurons[outStart+i].dCostDA = offGradScale * diff
		}
	}
	correct = argmax(out) == correctIdx

	for i := len(n.neurons) - 1; i >= 0; i-- {
		nu := &n.neurons[i]
		dCostDZ := nu.dActDZ * nu.dCostDA
		nu.biasGradient += dCostDZ
		for wi := range nu.weights {
			w := &nu.weights[wi]
			w.gradient += n.values[w.srcOffset] * dCostDZ
			if w.srcIndex >= 0 {
				n.neurons[w.srcIndex].dCostDA += w.value * dCostDZ
			}
		}
	}
	return cost, weightedCost, correct
}

// applyGradients updates every bias and weight by the subtracting gradient-descent rule
// w <- w - (sum(gradient) * learningRate) / batchSize, per spec §9's explicit resolution of the
// source's sign ambiguity, then resets every accumulator to zero.
func (n *Network) applyGradients(learningRate float64, batchSize int) {
	if batchSize == 0 {
		return
	}
	scale := learningRate / float64(batchSize)
	for i := range n.neurons {
		nu := &n.neurons[i]
		nu.bias -= nu.biasGradient * scale
		nu.biasGradient = 0
		for wi := range nu.weights {
			w := &nu.weights[wi]
			w.value -= w.gradient * scale
			w.gradient = 0
		}
	}
}

// LearningRateAt returns 2^(startExp + trainedBatches*deltaExp/standardBatchCount), the schedule
// spec §4.6 names.
func LearningRateAt(g *genome.Genome, trainedBatches, standardBatchCount int) float64 {
	return g.LearningRate(trainedBatches, standardBatchCount)
}

// TrainFromDataset iterates ds's training sections (those not marked in foldMask) in round-robin
// order with wraparound until batchCount batches have been consumed starting at batchOffset, then
// evaluates once over every testing section (foldMask[i] = true) and averages, per spec §4.6.
func (n *Network) TrainFromDataset(g *genome.Genome, ds *dataset.Dataset, foldMask []bool, batchCount, batchOffset, standardBatchCount int) genome.Metrics {
	var trainSections []int
	var testSections []int
	for i, masked := range foldMask {
		if masked {
			testSections = append(testSections, i)
		} else {
			trainSections = append(trainSections, i)
		}
	}

	var trainCost, trainWeighted, trainAcc float64
	trained := 0
	if len(trainSections) > 0 {
		cursor := batchOffset
		for trained < batchCount {
			sectionIdx := trainSections[cursor%len(trainSections)]
			section := ds.Sections[sectionIdx]
			if len(section.Batches) == 0 {
				cursor++
				continue
			}
			batch := section.Batches[(cursor/len(trainSections))%len(section.Batches)]
			lr := LearningRateAt(g, trained, standardBatchCount)
			c, wc, acc := n.TrainFromBatch(batch, lr)
			trainCost += c
			trainWeighted += wc
			trainAcc += acc
			trained++
			cursor++
		}
		trainCost /= float64(trained)
		trainWeighted /= float64(trained)
		trainAcc /= float64(trained)
	}

	var testCost, testWeighted, testAcc float64
	tested := 0
	for _, sectionIdx := range testSections {
		section := ds.Sections[sectionIdx]
		for _, batch := range section.Batches {
			c, wc, acc := n.TestFromBatch(batch)
			testCost += c
			testWeighted += wc
			testAcc += acc
			tested++
		}
	}
	if tested > 0 {
		testCost /= float64(tested)
		testWeighted /= float64(tested)
		testAcc /= float64(tested)
	}

	return genome.Metrics{
		TrainCost: trainCost, TrainWeightedCost: trainWeighted, TrainAccuracy: trainAcc,
		TestCost: testCost, TestWeightedCost: testWeighted, TestAccuracy: testAcc,
	}
}
