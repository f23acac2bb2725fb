package model

import (
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Metrics summarizes classifier quality on a labeled set. F1 is the
// primary selection metric, AUC the secondary tie-break.
type Metrics struct {
	F1       float64 `json:"f1_weighted" yaml:"f1Weighted"`
	AUC      float64 `json:"auc_roc" yaml:"aucRoc"`
	Accuracy float64 `json:"accuracy" yaml:"accuracy"`
}

// evaluate computes support-weighted F1, one-vs-rest weighted AUC-ROC,
// and plain accuracy from predicted probabilities against true classes.
func evaluate(probs [][]float64, y []int) Metrics {
	pred := make([]int, len(probs))
	for i, p := range probs {
		pred[i] = argmax(p)
	}
	return Metrics{
		F1:       weightedF1(pred, y),
		AUC:      weightedAUC(probs, y),
		Accuracy: accuracy(pred, y),
	}
}

func argmax(p []float64) int {
	best := 0
	for k := 1; k < len(p); k++ {
		if p[k] > p[best] {
			best = k
		}
	}
	return best
}

func accuracy(pred, y []int) float64 {
	if len(y) == 0 {
		return 0
	}
	var hits float64
	for i, c := range y {
		if pred[i] == c {
			hits++
		}
	}
	return hits / float64(len(y))
}

// weightedF1 is the per-class F1 averaged by class support.
func weightedF1(pred, y []int) float64 {
	tp := make([]float64, numClasses)
	fp := make([]float64, numClasses)
	fn := make([]float64, numClasses)
	support := make([]float64, numClasses)

	for i, c := range y {
		support[c]++
		if pred[i] == c {
			tp[c]++
		} else {
			fp[pred[i]]++
			fn[c]++
		}
	}

	var sum, total float64
	for k := 0; k < numClasses; k++ {
		if support[k] == 0 {
			continue
		}
		var f1 float64
		denom := 2*tp[k] + fp[k] + fn[k]
		if denom > 0 {
			f1 = 2 * tp[k] / denom
		}
		sum += f1 * support[k]
		total += support[k]
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

// weightedAUC is the one-vs-rest AUC-ROC averaged by class support.
// Classes absent from y, or present without negatives, contribute no
// weight.
func weightedAUC(probs [][]float64, y []int) float64 {
	var sum, total float64
	for k := 0; k < numClasses; k++ {
		auc, support, ok := classAUC(probs, y, k)
		if !ok {
			continue
		}
		sum += auc * support
		total += support
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

func classAUC(probs [][]float64, y []int, class int) (auc, support float64, ok bool) {
	type pair struct {
		score float64
		pos   bool
	}
	pairs := make([]pair, len(y))
	var pos, neg int
	for i, c := range y {
		isPos := c == class
		if isPos {
			pos++
		} else {
			neg++
		}
		pairs[i] = pair{score: probs[i][class], pos: isPos}
	}
	if pos == 0 || neg == 0 {
		return 0, 0, false
	}

	sort.Slice(pairs, func(a, b int) bool { return pairs[a].score < pairs[b].score })

	scores := make([]float64, len(pairs))
	classes := make([]bool, len(pairs))
	for i, p := range pairs {
		scores[i] = p.score
		classes[i] = p.pos
	}

	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), float64(pos), true
}
