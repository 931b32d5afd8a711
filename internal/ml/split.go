package ml

import (
	"math"
	"math/rand"
)

// TrainTestSplit shuffles the indices 0..n-1 with a fixed seed and splits
// them into train and test partitions. The test partition holds
// ceil(n*testRatio) indices; both partitions are non-empty when n >= 2.
func TrainTestSplit(n int, testRatio float64, seed int64) (train, test []int) {
	if n == 0 {
		return nil, nil
	}
	indices := rand.New(rand.NewSource(seed)).Perm(n)

	// The epsilon keeps 270*0.2 at 54 despite float rounding.
	nTest := int(math.Ceil(float64(n)*testRatio - 1e-9))
	if n >= 2 {
		nTest = max(1, min(nTest, n-1))
	} else {
		nTest = 0
	}
	return indices[nTest:], indices[:nTest]
}

// Accuracy returns the fraction of positions where yPred equals yTrue.
func Accuracy(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}
