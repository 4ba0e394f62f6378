package audio

// Resample converts samples between rates by linear interpolation. It is a
// deliberately simple resampler; fingerprint bits depend on coarse band
// energy trends, not on high-fidelity reconstruction.
func Resample(samples []float64, fromRate, toRate int) []float64 {
	if fromRate == toRate || len(samples) == 0 {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out
	}

	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(samples)) / ratio)
	out := make([]float64, outLen)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx+1 >= len(samples) {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// AtRate returns the clip's samples resampled to the target rate.
func (c Clip) AtRate(rate int) []float64 {
	return Resample(c.Samples, c.SampleRate, rate)
}

// DownmixInterleaved folds interleaved multi-channel PCM into mono by
// averaging the channels of each frame. Trailing partial frames are dropped.
func DownmixInterleaved(pcm []int16, channels int) []float64 {
	if channels < 1 {
		return nil
	}
	frames := len(pcm) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(pcm[i*channels+ch])
		}
		out[i] = sum / float64(channels) / 32768
	}
	return out
}
