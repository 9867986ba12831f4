package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/logger"
)

const (
	// DEFAULT_MAX_AUDIO_BYTES caps the size of a decoded upload
	DEFAULT_MAX_AUDIO_BYTES = 200 * 1024 * 1024

	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

type wavDecoder struct {
	io       adapter.IO
	maxBytes int64
}

// NewWAVDecoder creates a decoder for PCM WAV streams up to maxBytes long
func NewWAVDecoder(ioAdapter adapter.IO, maxBytes int64) Decoder {
	if maxBytes <= 0 {
		maxBytes = DEFAULT_MAX_AUDIO_BYTES
	}
	return &wavDecoder{io: ioAdapter, maxBytes: maxBytes}
}

// Decode reads the stream, checks it is WAV and returns mono samples
func (d *wavDecoder) Decode(ctx context.Context, r io.Reader) (*Samples, error) {
	data, err := d.io.ReadAll(r, d.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read audio: %w", domain.ErrExtraction, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty audio", domain.ErrExtraction)
	}

	mime := mimetype.Detect(data)
	if !mime.Is("audio/wav") {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedAudioFormat, mime.String())
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid wav container", domain.ErrExtraction)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: wav audio format %d", domain.ErrUnsupportedAudioFormat, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode pcm: %w", domain.ErrExtraction, err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	if channels <= 0 || bitDepth <= 0 || dec.SampleRate == 0 {
		return nil, fmt.Errorf("%w: missing wav format fields", domain.ErrExtraction)
	}

	samples := &Samples{
		Data:       downmix(buf.Data, channels, bitDepth),
		SampleRate: int(dec.SampleRate),
		Channels:   channels,
	}
	if len(samples.Data) == 0 {
		return nil, fmt.Errorf("%w: no audio frames", domain.ErrExtraction)
	}

	logger.DebugCtx(ctx, "Decoded wav audio",
		zap.Int("sample_rate", samples.SampleRate),
		zap.Int("channels", channels),
		zap.Int("bit_depth", bitDepth),
		zap.Float64("duration", samples.Duration()))

	return samples, nil
}

// downmix normalizes interleaved integer PCM by bit depth and averages the channels of each frame.
// 8-bit WAV is unsigned and is re-centered first.
func downmix(data []int, channels int, bitDepth int) []float64 {
	scale := float64(int64(1) << (bitDepth - 1))
	offset := 0.0
	if bitDepth == 8 {
		offset = 128
	}

	frames := len(data) / channels
	out := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += (float64(data[i*channels+c]) - offset) / scale
		}
		out[i] = sum / float64(channels)
	}
	return out
}
