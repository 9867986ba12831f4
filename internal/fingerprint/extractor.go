package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/audio"
	"github.com/bomac1193/Issuance/internal/config"
)

const (
	DEFAULT_SAMPLE_RATE  = 22050
	DEFAULT_FRAME_SIZE   = 2048
	DEFAULT_HOP_SIZE     = 512
	DEFAULT_MEL_BANDS    = 128
	DEFAULT_COEFFICIENTS = 20
	DEFAULT_PRECISION    = 4

	// power_to_db parameters
	amin  = 1e-10
	topDB = 80.0
)

// Config holds the analysis parameters. Changing any of them changes every fingerprint.
type Config struct {
	SampleRate   int
	FrameSize    int
	HopSize      int
	MelBands     int
	Coefficients int
	Precision    int
}

// DefaultConfig returns the standard analysis parameters
func DefaultConfig() Config {
	return Config{
		SampleRate:   DEFAULT_SAMPLE_RATE,
		FrameSize:    DEFAULT_FRAME_SIZE,
		HopSize:      DEFAULT_HOP_SIZE,
		MelBands:     DEFAULT_MEL_BANDS,
		Coefficients: DEFAULT_COEFFICIENTS,
		Precision:    DEFAULT_PRECISION,
	}
}

// ConfigFrom converts loaded configuration, keeping defaults for unset fields
func ConfigFrom(cfg config.FingerprintConfig) Config {
	c := DefaultConfig()
	if cfg.SampleRate > 0 {
		c.SampleRate = cfg.SampleRate
	}
	if cfg.FrameSize > 0 {
		c.FrameSize = cfg.FrameSize
	}
	if cfg.HopSize > 0 {
		c.HopSize = cfg.HopSize
	}
	if cfg.MelBands > 0 {
		c.MelBands = cfg.MelBands
	}
	if cfg.Coefficients > 0 {
		c.Coefficients = cfg.Coefficients
	}
	if cfg.Precision > 0 {
		c.Precision = cfg.Precision
	}
	return c
}

// Validate checks the parameters describe a usable analysis
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}
	if c.FrameSize <= 0 || c.FrameSize%2 != 0 {
		return errors.New("frame size must be positive and even")
	}
	if c.HopSize <= 0 {
		return errors.New("hop size must be positive")
	}
	if c.MelBands <= 0 {
		return errors.New("mel bands must be positive")
	}
	if c.Coefficients <= 0 || c.Coefficients > c.MelBands {
		return fmt.Errorf("coefficients must be between 1 and %d", c.MelBands)
	}
	if c.Precision < 0 || c.Precision > 10 {
		return errors.New("precision must be between 0 and 10")
	}
	return nil
}

// Result is the output of one extraction
type Result struct {
	// Fingerprint is the lowercase hex SHA-256 of the canonical feature vector
	Fingerprint string
	// Duration is the source length in seconds
	Duration float64
	// Features is the rounded vector: per-coefficient means followed by standard deviations
	Features []float64
}

// Extractor computes deterministic content fingerprints from decoded audio.
// It is safe for concurrent use.
type Extractor struct {
	cfg     Config
	json    adapter.JSON
	jcs     adapter.JCS
	window  []float64
	filters []melFilter
	dct     [][]float64
	scale   float64
}

// NewExtractor creates an extractor with precomputed window, mel filters and DCT basis
func NewExtractor(cfg Config, json adapter.JSON, jcs adapter.JCS) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fingerprint config: %w", err)
	}

	return &Extractor{
		cfg:     cfg,
		json:    json,
		jcs:     jcs,
		window:  periodicHann(cfg.FrameSize),
		filters: melFilterBank(cfg.SampleRate, cfg.FrameSize, cfg.MelBands),
		dct:     dctMatrix(cfg.Coefficients, cfg.MelBands),
		scale:   math.Pow(10, float64(cfg.Precision)),
	}, nil
}

// Extract fingerprints the samples. Identical samples always give an identical fingerprint.
func (e *Extractor) Extract(samples *audio.Samples) (*Result, error) {
	if samples == nil || len(samples.Data) == 0 {
		return nil, NewExtractionError(errors.New("no audio samples"))
	}
	if samples.SampleRate <= 0 {
		return nil, NewExtractionError(fmt.Errorf("invalid sample rate %d", samples.SampleRate))
	}
	for _, v := range samples.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, NewExtractionError(errors.New("non-finite sample value"))
		}
	}

	signal := resample(samples.Data, samples.SampleRate, e.cfg.SampleRate)
	if len(signal) == 0 {
		return nil, NewExtractionError(errors.New("audio too short to resample"))
	}

	features := e.features(signal)

	data, err := e.json.Marshal(features)
	if err != nil {
		return nil, NewExtractionError(fmt.Errorf("failed to serialize features: %w", err))
	}
	canonical, err := e.jcs.Transform(data)
	if err != nil {
		return nil, NewExtractionError(fmt.Errorf("failed to canonicalize features: %w", err))
	}
	sum := sha256.Sum256(canonical)

	return &Result{
		Fingerprint: hex.EncodeToString(sum[:]),
		Duration:    samples.Duration(),
		Features:    features,
	}, nil
}

// features returns the rounded mean and standard deviation of every cepstral coefficient
func (e *Extractor) features(signal []float64) []float64 {
	melDB := e.melSpectrogramDB(signal)

	nCoeffs := e.cfg.Coefficients
	nFrames := float64(len(melDB))
	cepstra := make([][]float64, len(melDB))
	means := make([]float64, nCoeffs)
	for f, frame := range melDB {
		coeffs := make([]float64, nCoeffs)
		for k, basis := range e.dct {
			c := 0.0
			for i, v := range frame {
				c += basis[i] * v
			}
			coeffs[k] = c
			means[k] += c
		}
		cepstra[f] = coeffs
	}
	for k := range means {
		means[k] /= nFrames
	}

	// Population standard deviation, two-pass
	deviations := make([]float64, nCoeffs)
	for _, coeffs := range cepstra {
		for k, c := range coeffs {
			d := c - means[k]
			deviations[k] += d * d
		}
	}

	features := make([]float64, 2*nCoeffs)
	for k := range nCoeffs {
		features[k] = e.round(means[k])
		features[nCoeffs+k] = e.round(math.Sqrt(deviations[k] / nFrames))
	}
	return features
}

// melSpectrogramDB returns per-frame mel band energies in decibels, floored at topDB below the peak
func (e *Extractor) melSpectrogramDB(signal []float64) [][]float64 {
	frameSize := e.cfg.FrameSize
	hop := e.cfg.HopSize
	pad := frameSize / 2

	padded := make([]float64, len(signal)+2*pad)
	copy(padded[pad:], signal)
	nFrames := 1 + (len(padded)-frameSize)/hop

	// fourier.FFT keeps internal work buffers so each extraction owns one
	fft := fourier.NewFFT(frameSize)
	frame := make([]float64, frameSize)
	coeffs := make([]complex128, frameSize/2+1)
	power := make([]float64, frameSize/2+1)

	melDB := make([][]float64, nFrames)
	peak := math.Inf(-1)
	for f := range nFrames {
		start := f * hop
		for i := range frameSize {
			frame[i] = padded[start+i] * e.window[i]
		}
		coeffs = fft.Coefficients(coeffs, frame)
		for k, c := range coeffs {
			a := cmplx.Abs(c)
			power[k] = a * a
		}

		bands := make([]float64, len(e.filters))
		for m, filter := range e.filters {
			db := 10 * math.Log10(math.Max(amin, filter.apply(power)))
			bands[m] = db
			if db > peak {
				peak = db
			}
		}
		melDB[f] = bands
	}

	floor := peak - topDB
	for _, bands := range melDB {
		for m, db := range bands {
			if db < floor {
				bands[m] = floor
			}
		}
	}
	return melDB
}

func (e *Extractor) round(v float64) float64 {
	r := math.Round(v*e.scale) / e.scale
	if r == 0 {
		// Negative zero serializes as "-0"
		return 0
	}
	return r
}

// resample converts samples between rates by linear interpolation
func resample(data []float64, from int, to int) []float64 {
	if from == to {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}

	ratio := float64(to) / float64(from)
	n := int(math.Ceil(float64(len(data)) * ratio))
	out := make([]float64, n)
	last := len(data) - 1
	for i := range out {
		pos := float64(i) / ratio
		idx := int(pos)
		if idx >= last {
			out[i] = data[last]
			continue
		}
		frac := pos - float64(idx)
		out[i] = data[idx]*(1-frac) + data[idx+1]*frac
	}
	return out
}
