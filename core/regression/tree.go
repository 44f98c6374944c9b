package regression

import (
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// node is one vertex of a regression tree. Rows with x[Feature] < Threshold
// go Left. Leaves carry the already shrunk output Value.
type node struct {
	Feature   int     `json:"f,omitempty"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
	Leaf      bool    `json:"leaf,omitempty"`
}

type tree []node

func (t tree) predict(x []float64) float64 {
	i := 0
	for !t[i].Leaf {
		if x[t[i].Feature] < t[i].Threshold {
			i = t[i].Left
		} else {
			i = t[i].Right
		}
	}
	return t[i].Value
}

// binner discretises each feature into at most maxBins buckets. Bucket b of
// feature j holds values v with cuts[j][b-1] <= v < cuts[j][b], so a split
// after bucket b is the raw threshold cuts[j][b].
type binner struct {
	cuts [][]float64
}

func newBinner(rows [][]float64, maxBins int) *binner {
	p := len(rows[0])
	b := &binner{cuts: make([][]float64, p)}
	col := make([]float64, len(rows))
	for j := 0; j < p; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		sort.Float64s(col)
		uniq := slices.Compact(slices.Clone(col))
		var edges []float64
		if len(uniq) <= maxBins {
			edges = uniq
		} else {
			edges = make([]float64, 0, maxBins)
			for q := 0; q < maxBins; q++ {
				edges = append(edges, stat.Quantile(float64(q)/float64(maxBins-1), stat.Empirical, col, nil))
			}
			edges = slices.Compact(edges)
		}
		cuts := make([]float64, 0, len(edges))
		for k := 1; k < len(edges); k++ {
			cuts = append(cuts, (edges[k-1]+edges[k])/2)
		}
		b.cuts[j] = cuts
	}
	return b
}

func (b *binner) bin(j int, v float64) int {
	cuts := b.cuts[j]
	return sort.Search(len(cuts), func(i int) bool { return cuts[i] > v })
}

// binned returns column-major bucket indices.
func (b *binner) binned(rows [][]float64) [][]uint16 {
	out := make([][]uint16, len(b.cuts))
	for j := range b.cuts {
		col := make([]uint16, len(rows))
		for i, r := range rows {
			col[i] = uint16(b.bin(j, r[j]))
		}
		out[j] = col
	}
	return out
}

// treeBuilder grows one depth-limited tree on squared loss residuals.
type treeBuilder struct {
	bins     [][]uint16
	cuts     [][]float64
	resid    []float64
	features []int
	cfg      BoostConfig
	gain     []float64
	splits   []int
	nodes    tree
}

func (tb *treeBuilder) build(rows []int) tree {
	tb.nodes = tb.nodes[:0]
	tb.grow(rows, 0)
	return slices.Clone(tb.nodes)
}

func (tb *treeBuilder) leaf(rows []int) int {
	var g float64
	for _, i := range rows {
		g += tb.resid[i]
	}
	v := tb.cfg.LearningRate * g / (float64(len(rows)) + tb.cfg.Lambda)
	tb.nodes = append(tb.nodes, node{Leaf: true, Value: v})
	return len(tb.nodes) - 1
}

func (tb *treeBuilder) grow(rows []int, depth int) int {
	if depth >= tb.cfg.MaxDepth || float64(len(rows)) < 2*tb.cfg.MinChildWeight {
		return tb.leaf(rows)
	}
	feat, bucket, gain := tb.bestSplit(rows)
	if feat < 0 {
		return tb.leaf(rows)
	}
	var left, right []int
	col := tb.bins[feat]
	for _, i := range rows {
		if int(col[i]) <= bucket {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	tb.gain[feat] += gain
	tb.splits[feat]++

	idx := len(tb.nodes)
	tb.nodes = append(tb.nodes, node{Feature: feat, Threshold: tb.cuts[feat][bucket]})
	l := tb.grow(left, depth+1)
	r := tb.grow(right, depth+1)
	tb.nodes[idx].Left, tb.nodes[idx].Right = l, r
	return idx
}

// bestSplit scans bucket histograms of every sampled feature and returns
// the feature, the last bucket routed left, and the gain. feat is -1 when
// no split improves the objective.
func (tb *treeBuilder) bestSplit(rows []int) (feat, bucket int, best float64) {
	lambda := tb.cfg.Lambda
	var total float64
	for _, i := range rows {
		total += tb.resid[i]
	}
	n := float64(len(rows))
	parent := total * total / (n + lambda)

	feat = -1
	for _, j := range tb.features {
		nb := len(tb.cuts[j]) + 1
		if nb < 2 {
			continue
		}
		sum := make([]float64, nb)
		cnt := make([]float64, nb)
		col := tb.bins[j]
		for _, i := range rows {
			b := col[i]
			sum[b] += tb.resid[i]
			cnt[b]++
		}
		var gl, nl float64
		for b := 0; b < nb-1; b++ {
			gl += sum[b]
			nl += cnt[b]
			nr := n - nl
			if nl < tb.cfg.MinChildWeight || nr < tb.cfg.MinChildWeight {
				continue
			}
			gr := total - gl
			g := gl*gl/(nl+lambda) + gr*gr/(nr+lambda) - parent
			if g > best+1e-12 {
				feat, bucket, best = j, b, g
			}
		}
	}
	return feat, bucket, best
}
