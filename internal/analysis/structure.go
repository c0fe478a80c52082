package analysis

import (
	"math"
	"sort"

	"github.com/songmasher/api/internal/model"
)

const (
	noveltyKernel     = 8
	minSectionBeats   = 4
	shortSectionFrac  = 0.15
	bridgeEnergyQuant = 0.30
	chorusRepeatCount = 2
	clusterSimilarity = 0.90
)

// chromaFrames computes a per-frame 12-bin chroma at the onset frame
// rate so energy and harmony features line up.
func chromaFrames(samples []float64, sampleRate int) [][12]float64 {
	spec := spectrogram(samples, onsetFrameSize, onsetHop)
	out := make([][12]float64, len(spec))
	for f, frame := range spec {
		var total float64
		for b := 1; b < len(frame); b++ {
			freq := binFrequency(b, onsetFrameSize, sampleRate)
			if freq < chromaMinHz || freq > chromaMaxHz {
				continue
			}
			midi := 69.0 + 12.0*math.Log2(freq/440.0)
			pc := ((int(math.Round(midi)) % 12) + 12) % 12
			e := frame[b] * frame[b]
			out[f][pc] += e
			total += e
		}
		if total > 0 {
			for i := range out[f] {
				out[f][i] /= total
			}
		}
	}
	return out
}

// beatFeature is a 13-dim descriptor per beat interval: mean chroma
// plus mean RMS energy.
type beatFeature [13]float64

func beatSyncFeatures(beats []float64, chroma [][12]float64, energy []float64, sampleRate int) []beatFeature {
	frameRate := float64(sampleRate) / float64(onsetHop)
	feats := make([]beatFeature, 0, len(beats))
	for i := 0; i < len(beats); i++ {
		lo := int(beats[i] * frameRate)
		hi := len(chroma)
		if i+1 < len(beats) {
			hi = int(beats[i+1] * frameRate)
		}
		if lo < 0 {
			lo = 0
		}
		if hi > len(chroma) {
			hi = len(chroma)
		}
		if hi <= lo {
			hi = lo + 1
			if hi > len(chroma) {
				break
			}
		}
		var f beatFeature
		for j := lo; j < hi; j++ {
			for k := 0; k < 12; k++ {
				f[k] += chroma[j][k]
			}
			if j < len(energy) {
				f[12] += energy[j]
			}
		}
		n := float64(hi - lo)
		for k := range f {
			f[k] /= n
		}
		feats = append(feats, f)
	}
	return feats
}

func cosineSim(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / math.Sqrt(na*nb)
}

// noveltyCurve slides a checkerboard kernel along the self-similarity
// matrix diagonal. Peaks indicate section boundaries.
func noveltyCurve(feats []beatFeature) []float64 {
	n := len(feats)
	ssm := make([][]float64, n)
	for i := range ssm {
		ssm[i] = make([]float64, n)
		for j := range ssm[i] {
			ssm[i][j] = cosineSim(feats[i][:], feats[j][:])
		}
	}
	novelty := make([]float64, n)
	k := noveltyKernel
	for i := k; i < n-k; i++ {
		var score float64
		for di := -k; di < k; di++ {
			for dj := -k; dj < k; dj++ {
				sign := 1.0
				if (di < 0) != (dj < 0) {
					sign = -1.0
				}
				score += sign * ssm[i+di][i+dj]
			}
		}
		novelty[i] = score / float64(4*k*k)
	}
	for i := range novelty {
		if novelty[i] < 0 {
			novelty[i] = 0
		}
	}
	return novelty
}

// pickBoundaries selects novelty peaks above the mean, at least
// minSectionBeats apart.
func pickBoundaries(novelty []float64) []int {
	var sum float64
	for _, v := range novelty {
		sum += v
	}
	mean := sum / float64(len(novelty))

	var peaks []int
	for i := 1; i < len(novelty)-1; i++ {
		if novelty[i] <= mean {
			continue
		}
		if novelty[i] < novelty[i-1] || novelty[i] < novelty[i+1] {
			continue
		}
		if len(peaks) > 0 && i-peaks[len(peaks)-1] < minSectionBeats {
			if novelty[i] > novelty[peaks[len(peaks)-1]] {
				peaks[len(peaks)-1] = i
			}
			continue
		}
		peaks = append(peaks, i)
	}
	return peaks
}

// segmentStructure derives labeled sections from beat-synchronous
// features. Sections abut exactly and cover [0, duration].
func segmentStructure(beats []float64, chroma [][12]float64, energy []float64, sampleRate int, duration, chorusThreshold float64) []model.Section {
	if len(beats) < 2*noveltyKernel {
		return []model.Section{{Start: 0, End: duration, Label: model.SectionOther}}
	}
	feats := beatSyncFeatures(beats, chroma, energy, sampleRate)
	if len(feats) < 2*noveltyKernel {
		return []model.Section{{Start: 0, End: duration, Label: model.SectionOther}}
	}
	boundaries := pickBoundaries(noveltyCurve(feats))

	// Boundary beats to section edges in seconds.
	edges := []float64{0}
	for _, b := range boundaries {
		if b < len(beats) {
			edges = append(edges, beats[b])
		}
	}
	edges = append(edges, duration)

	type rawSection struct {
		start, end float64
		feat       []float64
		energy     float64
	}
	var raws []rawSection
	for i := 0; i+1 < len(edges); i++ {
		if edges[i+1]-edges[i] <= 0 {
			continue
		}
		rs := rawSection{start: edges[i], end: edges[i+1], feat: make([]float64, 13)}
		var n int
		for j, f := range feats {
			t := beats[j]
			if t < rs.start || t >= rs.end {
				continue
			}
			for k := 0; k < 13; k++ {
				rs.feat[k] += f[k]
			}
			n++
		}
		if n > 0 {
			for k := range rs.feat {
				rs.feat[k] /= float64(n)
			}
			rs.energy = rs.feat[12]
		}
		raws = append(raws, rs)
	}
	if len(raws) == 0 {
		return []model.Section{{Start: 0, End: duration, Label: model.SectionOther}}
	}

	// Greedy clustering: repeated similar sections share a cluster.
	clusters := make([]int, len(raws))
	next := 0
	for i := range raws {
		clusters[i] = -1
		for j := 0; j < i; j++ {
			if cosineSim(raws[i].feat, raws[j].feat) >= clusterSimilarity {
				clusters[i] = clusters[j]
				break
			}
		}
		if clusters[i] < 0 {
			clusters[i] = next
			next++
		}
	}
	clusterSize := make(map[int]int)
	for _, c := range clusters {
		clusterSize[c]++
	}

	energies := make([]float64, len(raws))
	for i, rs := range raws {
		energies[i] = rs.energy
	}
	medEnergy := median(energies)
	lowEnergy := quantile(energies, bridgeEnergyQuant)

	sections := make([]model.Section, len(raws))
	for i, rs := range raws {
		label := model.SectionVerse
		switch {
		case i == 0 && rs.end-rs.start < shortSectionFrac*duration:
			label = model.SectionIntro
		case i == len(raws)-1 && rs.end-rs.start < shortSectionFrac*duration:
			label = model.SectionOutro
		case clusterSize[clusters[i]] >= chorusRepeatCount && medEnergy > 0 && rs.energy >= chorusThreshold*medEnergy:
			label = model.SectionChorus
		case rs.energy <= lowEnergy && len(raws) > 3:
			label = model.SectionBridge
		}
		sections[i] = model.Section{Start: rs.start, End: rs.end, Label: label}
	}
	return sections
}

func median(x []float64) float64 {
	return quantile(x, 0.5)
}

func quantile(x []float64, q float64) float64 {
	if len(x) == 0 {
		return 0
	}
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	idx := int(q * float64(len(s)-1))
	return s[idx]
}
