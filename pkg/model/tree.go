package model

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a CART tree. Classification leaves carry a
// class probability distribution, regression leaves a single value.
type treeNode struct {
	Feature   int       `json:"f,omitempty"`
	Threshold float64   `json:"t,omitempty"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
	Leaf      bool      `json:"leaf,omitempty"`
	Probs     []float64 `json:"p,omitempty"`
	Value     float64   `json:"v,omitempty"`
}

func (n *treeNode) classify(row []float64) []float64 {
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Probs
}

func (n *treeNode) regress(row []float64) float64 {
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// importance accumulates split usage counts per feature.
func (n *treeNode) importance(acc []float64) {
	if n == nil || n.Leaf {
		return
	}
	if n.Feature < len(acc) {
		acc[n.Feature]++
	}
	n.Left.importance(acc)
	n.Right.importance(acc)
}

type treeConfig struct {
	maxDepth    int
	minLeaf     int
	maxFeatures int // 0 means consider all features
	rng         *rand.Rand
}

// buildClassTree grows a gini-impurity CART tree over the index subset.
func buildClassTree(x [][]float64, y []int, idx []int, depth int, cfg treeConfig) *treeNode {
	counts := make([]float64, numClasses)
	for _, i := range idx {
		counts[y[i]]++
	}

	if depth >= cfg.maxDepth || len(idx) < 2*cfg.minLeaf || pure(counts) {
		return classLeaf(counts)
	}

	feat, thresh, ok := bestClassSplit(x, y, idx, cfg)
	if !ok {
		return classLeaf(counts)
	}

	left, right := partition(x, idx, feat, thresh)
	if len(left) < cfg.minLeaf || len(right) < cfg.minLeaf {
		return classLeaf(counts)
	}

	return &treeNode{
		Feature:   feat,
		Threshold: thresh,
		Left:      buildClassTree(x, y, left, depth+1, cfg),
		Right:     buildClassTree(x, y, right, depth+1, cfg),
	}
}

// buildRegTree grows a variance-reduction CART tree over targets g.
func buildRegTree(x [][]float64, g []float64, idx []int, depth int, cfg treeConfig) *treeNode {
	if depth >= cfg.maxDepth || len(idx) < 2*cfg.minLeaf {
		return regLeaf(g, idx)
	}

	feat, thresh, ok := bestRegSplit(x, g, idx, cfg)
	if !ok {
		return regLeaf(g, idx)
	}

	left, right := partition(x, idx, feat, thresh)
	if len(left) < cfg.minLeaf || len(right) < cfg.minLeaf {
		return regLeaf(g, idx)
	}

	return &treeNode{
		Feature:   feat,
		Threshold: thresh,
		Left:      buildRegTree(x, g, left, depth+1, cfg),
		Right:     buildRegTree(x, g, right, depth+1, cfg),
	}
}

func classLeaf(counts []float64) *treeNode {
	var total float64
	for _, c := range counts {
		total += c
	}
	probs := make([]float64, len(counts))
	if total > 0 {
		for k, c := range counts {
			probs[k] = c / total
		}
	}
	return &treeNode{Leaf: true, Probs: probs}
}

func regLeaf(g []float64, idx []int) *treeNode {
	var sum float64
	for _, i := range idx {
		sum += g[i]
	}
	v := 0.0
	if len(idx) > 0 {
		v = sum / float64(len(idx))
	}
	return &treeNode{Leaf: true, Value: v}
}

func pure(counts []float64) bool {
	nonzero := 0
	for _, c := range counts {
		if c > 0 {
			nonzero++
		}
	}
	return nonzero <= 1
}

// candidateFeatures picks the feature subset to scan at a node.
func candidateFeatures(total int, cfg treeConfig) []int {
	if cfg.maxFeatures <= 0 || cfg.maxFeatures >= total || cfg.rng == nil {
		feats := make([]int, total)
		for i := range feats {
			feats[i] = i
		}
		return feats
	}
	perm := cfg.rng.Perm(total)
	return perm[:cfg.maxFeatures]
}

func bestClassSplit(x [][]float64, y []int, idx []int, cfg treeConfig) (feat int, thresh float64, ok bool) {
	bestGain := 1e-9
	total := float64(len(idx))

	parent := make([]float64, numClasses)
	for _, i := range idx {
		parent[y[i]]++
	}
	parentGini := gini(parent, total)

	order := make([]int, len(idx))
	for _, f := range candidateFeatures(len(x[idx[0]]), cfg) {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		left := make([]float64, numClasses)
		right := make([]float64, numClasses)
		copy(right, parent)

		for pos := 0; pos < len(order)-1; pos++ {
			c := y[order[pos]]
			left[c]++
			right[c]--

			cur, next := x[order[pos]][f], x[order[pos+1]][f]
			if cur == next {
				continue
			}

			nl := float64(pos + 1)
			nr := total - nl
			gain := parentGini - (nl/total)*gini(left, nl) - (nr/total)*gini(right, nr)
			if gain > bestGain {
				bestGain = gain
				feat = f
				thresh = (cur + next) / 2
				ok = true
			}
		}
	}
	return feat, thresh, ok
}

func bestRegSplit(x [][]float64, g []float64, idx []int, cfg treeConfig) (feat int, thresh float64, ok bool) {
	bestGain := 1e-12
	total := float64(len(idx))

	var sum, sumSq float64
	for _, i := range idx {
		sum += g[i]
		sumSq += g[i] * g[i]
	}
	parentVar := sumSq - sum*sum/total

	order := make([]int, len(idx))
	for _, f := range candidateFeatures(len(x[idx[0]]), cfg) {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		var lSum, lSumSq float64
		rSum, rSumSq := sum, sumSq

		for pos := 0; pos < len(order)-1; pos++ {
			v := g[order[pos]]
			lSum += v
			lSumSq += v * v
			rSum -= v
			rSumSq -= v * v

			cur, next := x[order[pos]][f], x[order[pos+1]][f]
			if cur == next {
				continue
			}

			nl := float64(pos + 1)
			nr := total - nl
			gain := parentVar - (lSumSq - lSum*lSum/nl) - (rSumSq - rSum*rSum/nr)
			if gain > bestGain {
				bestGain = gain
				feat = f
				thresh = (cur + next) / 2
				ok = true
			}
		}
	}
	return feat, thresh, ok
}

func partition(x [][]float64, idx []int, feat int, thresh float64) (left, right []int) {
	for _, i := range idx {
		if x[i][feat] <= thresh {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return math.Max(0, g)
}
