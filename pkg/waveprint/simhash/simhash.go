// Package simhash reduces a fingerprint to a single 32-bit signature by
// bitwise majority vote. Signatures of similar sequences land close together
// in Hamming space, which makes them a cheap pre-filter before full segment
// matching.
package simhash

import (
	"math/bits"

	"github.com/waveprint/waveprint/pkg/models"
)

// Hash computes the majority-vote signature of a fingerprint. For every bit
// position the output bit is set when strictly more than half of the hashes
// have it set; ties resolve to 0. The empty sequence hashes to 0.
func Hash(fp models.Fingerprint) uint32 {
	var counts [32]int
	for _, h := range fp.Hashes {
		for bit := 0; bit < 32; bit++ {
			if h&(1<<bit) != 0 {
				counts[bit]++
			}
		}
	}

	var sig uint32
	for bit := 0; bit < 32; bit++ {
		if 2*counts[bit] > len(fp.Hashes) {
			sig |= 1 << bit
		}
	}
	return sig
}

// Distance is the Hamming distance between two signatures.
func Distance(a, b uint32) int {
	return bits.OnesCount32(a ^ b)
}
