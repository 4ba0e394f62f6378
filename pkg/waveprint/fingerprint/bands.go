package fingerprint

import "math"

// bandCount is fixed at 33 so that the 32 band-pair comparisons fill one
// 32-bit sub-fingerprint exactly.
const bandCount = 33

// bandEdges computes the FFT bin index at each edge of the log-spaced
// frequency bands, bandCount+1 edges in total. Logarithmic spacing keeps the
// bands roughly aligned with perceptual pitch distance.
func bandEdges(cfg Config) []int {
	edges := make([]int, bandCount+1)
	binWidth := float64(cfg.SampleRate) / float64(cfg.FrameSize)
	logMin := math.Log(cfg.MinFreq)
	logMax := math.Log(cfg.MaxFreq)
	for i := range edges {
		freq := math.Exp(logMin + (logMax-logMin)*float64(i)/float64(bandCount))
		edges[i] = int(freq / binWidth)
	}
	return edges
}

// bandEnergies folds an FFT magnitude spectrum into the banded energies used
// for hashing.
func bandEnergies(spectrum []float64, edges []int) [bandCount]float64 {
	var energies [bandCount]float64
	for band := 0; band < bandCount; band++ {
		for bin := edges[band]; bin < edges[band+1] && bin < len(spectrum); bin++ {
			energies[band] += spectrum[bin] * spectrum[bin]
		}
	}
	return energies
}
