package fingerprint

import "math"

// Slaney mel scale: linear below 1 kHz, logarithmic above
const (
	melFSp       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27.0

func hzToMel(hz float64) float64 {
	if hz >= melMinLogHz {
		return melMinLogMel + math.Log(hz/melMinLogHz)/melLogStep
	}
	return hz / melFSp
}

func melToHz(mel float64) float64 {
	if mel >= melMinLogMel {
		return melMinLogHz * math.Exp(melLogStep*(mel-melMinLogMel))
	}
	return melFSp * mel
}

// melFilter is one triangular filter stored sparsely from its first non-zero FFT bin
type melFilter struct {
	start   int
	weights []float64
}

func (f melFilter) apply(power []float64) float64 {
	sum := 0.0
	for i, w := range f.weights {
		sum += w * power[f.start+i]
	}
	return sum
}

// melFilterBank builds nMels Slaney-normalized triangular filters over [0, sampleRate/2]
// for an FFT of size nFFT.
func melFilterBank(sampleRate int, nFFT int, nMels int) []melFilter {
	nBins := nFFT/2 + 1
	fftFreqs := make([]float64, nBins)
	for k := range fftFreqs {
		fftFreqs[k] = float64(k) * float64(sampleRate) / float64(nFFT)
	}

	minMel := hzToMel(0)
	maxMel := hzToMel(float64(sampleRate) / 2)
	melFreqs := make([]float64, nMels+2)
	for i := range melFreqs {
		melFreqs[i] = melToHz(minMel + (maxMel-minMel)*float64(i)/float64(nMels+1))
	}

	filters := make([]melFilter, nMels)
	for m := range nMels {
		lo, center, hi := melFreqs[m], melFreqs[m+1], melFreqs[m+2]
		norm := 2.0 / (hi - lo)

		dense := make([]float64, nBins)
		first, last := -1, -1
		for k, f := range fftFreqs {
			lower := (f - lo) / (center - lo)
			upper := (hi - f) / (hi - center)
			w := math.Max(0, math.Min(lower, upper)) * norm
			if w > 0 {
				if first < 0 {
					first = k
				}
				last = k
			}
			dense[k] = w
		}

		if first < 0 {
			// Filters narrower than one FFT bin stay empty
			filters[m] = melFilter{}
			continue
		}
		filters[m] = melFilter{start: first, weights: dense[first : last+1]}
	}
	return filters
}

// dctMatrix returns the first nCoeffs rows of the orthonormal DCT-II of size n
func dctMatrix(nCoeffs int, n int) [][]float64 {
	matrix := make([][]float64, nCoeffs)
	for k := range nCoeffs {
		scale := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}
		row := make([]float64, n)
		for i := range n {
			row[i] = scale * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
		matrix[k] = row
	}
	return matrix
}

// periodicHann returns the periodic Hann window of length n
func periodicHann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}
