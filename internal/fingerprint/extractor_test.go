package fingerprint_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/audio"
	"github.com/bomac1193/Issuance/internal/audio/audiotest"
	"github.com/bomac1193/Issuance/internal/config"
	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/fingerprint"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/mocks"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func newExtractor(t *testing.T) *fingerprint.Extractor {
	t.Helper()
	extractor, err := fingerprint.NewExtractor(fingerprint.DefaultConfig(), adapter.NewJSON(), adapter.NewJCS())
	require.NoError(t, err)
	return extractor
}

func sine(freq float64, seconds float64, sampleRate int) *audio.Samples {
	n := int(seconds * float64(sampleRate))
	data := make([]float64, n)
	for i := range data {
		data[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return &audio.Samples{Data: data, SampleRate: sampleRate, Channels: 1}
}

func TestExtract_Deterministic(t *testing.T) {
	extractor := newExtractor(t)
	samples := sine(440, 1, 22050)

	first, err := extractor.Extract(samples)
	require.NoError(t, err)
	second, err := extractor.Extract(samples)
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.Features, second.Features)
	assert.Len(t, first.Fingerprint, 64)
	_, err = hex.DecodeString(first.Fingerprint)
	assert.NoError(t, err)

	// A separate extractor over a copy of the samples agrees
	other := newExtractor(t)
	copied := &audio.Samples{Data: append([]float64(nil), samples.Data...), SampleRate: samples.SampleRate}
	third, err := other.Extract(copied)
	require.NoError(t, err)
	assert.Equal(t, first.Fingerprint, third.Fingerprint)
}

func TestExtract_DifferentContent(t *testing.T) {
	extractor := newExtractor(t)

	a, err := extractor.Extract(sine(440, 1, 22050))
	require.NoError(t, err)
	b, err := extractor.Extract(sine(1760, 1, 22050))
	require.NoError(t, err)

	assert.NotEqual(t, a.Fingerprint, b.Fingerprint)
}

func TestExtract_FeatureVector(t *testing.T) {
	extractor := newExtractor(t)

	result, err := extractor.Extract(sine(440, 0.5, 22050))
	require.NoError(t, err)
	require.Len(t, result.Features, 2*fingerprint.DEFAULT_COEFFICIENTS)

	for i, v := range result.Features {
		assert.False(t, math.Signbit(v) && v == 0, "feature %d is negative zero", i)
		assert.InDelta(t, math.Round(v*1e4), v*1e4, 1e-6, "feature %d is not rounded", i)
		if i >= fingerprint.DEFAULT_COEFFICIENTS {
			assert.GreaterOrEqual(t, v, 0.0, "std %d is negative", i)
		}
	}
}

func TestExtract_Silence(t *testing.T) {
	extractor := newExtractor(t)

	samples := &audio.Samples{Data: make([]float64, 4096), SampleRate: 22050}
	result, err := extractor.Extract(samples)
	require.NoError(t, err)

	// Every band sits at the amin floor (-100 dB), so only c0 is non-zero
	assert.InDelta(t, -100*math.Sqrt(128), result.Features[0], 1e-3)
	for i := 1; i < len(result.Features); i++ {
		assert.Equal(t, 0.0, result.Features[i], "feature %d", i)
	}
}

func TestExtract_Duration(t *testing.T) {
	extractor := newExtractor(t)

	result, err := extractor.Extract(sine(440, 2, 44100))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, result.Duration, 1e-9)

	result, err = extractor.Extract(sine(440, 0.25, 8000))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, result.Duration, 1e-9)
}

func TestExtract_ShortClip(t *testing.T) {
	extractor := newExtractor(t)

	samples := &audio.Samples{Data: []float64{0.1, -0.2, 0.3}, SampleRate: 22050}
	result, err := extractor.Extract(samples)
	require.NoError(t, err)
	assert.Len(t, result.Fingerprint, 64)
	assert.Len(t, result.Features, 40)
}

func TestExtract_InvalidInput(t *testing.T) {
	extractor := newExtractor(t)

	tests := []struct {
		name    string
		samples *audio.Samples
	}{
		{name: "nil samples", samples: nil},
		{name: "zero samples", samples: &audio.Samples{SampleRate: 22050}},
		{name: "zero sample rate", samples: &audio.Samples{Data: []float64{0.1}, SampleRate: 0}},
		{name: "nan sample", samples: &audio.Samples{Data: []float64{0.1, math.NaN()}, SampleRate: 22050}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := extractor.Extract(tt.samples)
			assert.Nil(t, result)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrExtraction)

			var extractionErr *fingerprint.ExtractionError
			assert.True(t, errors.As(err, &extractionErr))
		})
	}
}

func TestExtract_SerializationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockJSON := mocks.NewMockJSON(ctrl)
	mockJCS := mocks.NewMockJCS(ctrl)
	mockJSON.EXPECT().Marshal(gomock.Any()).Return([]byte(`[1]`), nil)
	mockJCS.EXPECT().Transform([]byte(`[1]`)).Return(nil, errors.New("bad json"))

	extractor, err := fingerprint.NewExtractor(fingerprint.DefaultConfig(), mockJSON, mockJCS)
	require.NoError(t, err)

	_, err = extractor.Extract(sine(440, 0.1, 22050))
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Contains(t, err.Error(), "bad json")
}

func TestExtract_FromWAV(t *testing.T) {
	extractor := newExtractor(t)
	decoder := audio.NewWAVDecoder(adapter.NewIO(), 0)
	data := audiotest.ToneWAV(t, 440, 1, 44100)

	first, err := decoder.Decode(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	second, err := decoder.Decode(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)

	a, err := extractor.Extract(first)
	require.NoError(t, err)
	b, err := extractor.Extract(second)
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.InDelta(t, 1.0, a.Duration, 1e-3)
}

func TestNewExtractor_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fingerprint.Config)
	}{
		{name: "zero sample rate", mutate: func(c *fingerprint.Config) { c.SampleRate = 0 }},
		{name: "odd frame size", mutate: func(c *fingerprint.Config) { c.FrameSize = 2047 }},
		{name: "zero hop", mutate: func(c *fingerprint.Config) { c.HopSize = 0 }},
		{name: "more coefficients than bands", mutate: func(c *fingerprint.Config) { c.Coefficients = c.MelBands + 1 }},
		{name: "negative precision", mutate: func(c *fingerprint.Config) { c.Precision = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fingerprint.DefaultConfig()
			tt.mutate(&cfg)
			_, err := fingerprint.NewExtractor(cfg, adapter.NewJSON(), adapter.NewJCS())
			assert.Error(t, err)
		})
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := fingerprint.ConfigFrom(config.FingerprintConfig{SampleRate: 16000, Coefficients: 13})
	assert.Equal(t, 16000, cfg.SampleRate)
	assert.Equal(t, 13, cfg.Coefficients)
	assert.Equal(t, fingerprint.DEFAULT_FRAME_SIZE, cfg.FrameSize)
	assert.Equal(t, fingerprint.DEFAULT_PRECISION, cfg.Precision)
}
