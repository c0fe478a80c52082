package planning

import (
	"math"

	"github.com/songmasher/api/internal/model"
)

// Cost weights for pairing sections.
const (
	labelWeight    = 0.5
	durationWeight = 0.3
	positionWeight = 0.2
	skipCost       = 0.6
)

// labelMismatchCost is 0 for identical labels, highest for pairing a
// chorus against anything else, moderate otherwise.
func labelMismatchCost(a, b model.SectionLabel) float64 {
	if a == b {
		return 0
	}
	if a == model.SectionChorus || b == model.SectionChorus {
		return 1.0
	}
	return 0.5
}

func pairCost(a, b model.Section, i, j, nA, nB int) float64 {
	maxDur := math.Max(a.Duration(), b.Duration())
	durDiff := 0.0
	if maxDur > 0 {
		durDiff = math.Abs(a.Duration()-b.Duration()) / maxDur
	}
	posDiff := math.Abs(float64(i)/float64(nA) - float64(j)/float64(nB))
	return labelWeight*labelMismatchCost(a.Label, b.Label) +
		durationWeight*durDiff +
		positionWeight*posDiff
}

// alignSections pairs the two section sequences with a monotonic DTW.
// Only diagonal path moves emit pairs, so the returned pairs are strictly
// increasing in both indices. The DP tables are flat 2D arrays.
func alignSections(a, b *model.TrackAnalysis) []model.SectionPair {
	nA, nB := len(a.Sections), len(b.Sections)
	if nA == 0 || nB == 0 {
		return nil
	}

	// acc[i][j] = min cost ending with A[i-1], B[j-1] considered.
	rows, cols := nA+1, nB+1
	acc := make([]float64, rows*cols)
	move := make([]uint8, rows*cols) // 0 diag, 1 skip A, 2 skip B
	idx := func(i, j int) int { return i*cols + j }

	for i := 1; i < rows; i++ {
		acc[idx(i, 0)] = float64(i) * skipCost
		move[idx(i, 0)] = 1
	}
	for j := 1; j < cols; j++ {
		acc[idx(0, j)] = float64(j) * skipCost
		move[idx(0, j)] = 2
	}
	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			diag := acc[idx(i-1, j-1)] + pairCost(a.Sections[i-1], b.Sections[j-1], i-1, j-1, nA, nB)
			skipA := acc[idx(i-1, j)] + skipCost
			skipB := acc[idx(i, j-1)] + skipCost
			best, m := diag, uint8(0)
			if skipA < best {
				best, m = skipA, 1
			}
			if skipB < best {
				best, m = skipB, 2
			}
			acc[idx(i, j)] = best
			move[idx(i, j)] = m
		}
	}

	// Backtrace; emit a pair for every diagonal move.
	var pairs []model.SectionPair
	i, j := nA, nB
	for i > 0 || j > 0 {
		switch move[idx(i, j)] {
		case 0:
			secA, secB := a.Sections[i-1], b.Sections[j-1]
			step := pairCost(secA, secB, i-1, j-1, nA, nB)
			conf := 1 - step/(labelWeight+durationWeight+positionWeight)
			pairs = append(pairs, model.SectionPair{
				IndexA:                 i - 1,
				IndexB:                 j - 1,
				SectionA:               secA,
				SectionB:               secB,
				AlignmentOffsetSeconds: snapToDownbeat(secA.Start, a.DownbeatTimes) - snapToDownbeat(secB.Start, b.DownbeatTimes),
				Confidence:             clamp01(conf),
			})
			i--
			j--
		case 1:
			i--
		default:
			j--
		}
	}
	// Reverse into ascending order.
	for l, r := 0, len(pairs)-1; l < r; l, r = l+1, r-1 {
		pairs[l], pairs[r] = pairs[r], pairs[l]
	}
	return pairs
}

// snapToDownbeat returns the nearest downbeat to t, or t itself when no
// downbeats were detected.
func snapToDownbeat(t float64, downbeats []float64) float64 {
	best, bestDist := t, math.Inf(1)
	for _, d := range downbeats {
		if dist := math.Abs(d - t); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}

func clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}
