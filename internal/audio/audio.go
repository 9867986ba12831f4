package audio

import (
	"context"
	"io"
)

// Samples is decoded mono PCM audio normalized to [-1, 1]
type Samples struct {
	Data       []float64
	SampleRate int
	// Channels is the channel count of the source before down-mixing
	Channels int
}

// Duration returns the length of the audio in seconds
func (s *Samples) Duration() float64 {
	if s == nil || s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Data)) / float64(s.SampleRate)
}

// Decoder turns a raw audio stream into mono samples
//
//go:generate mockgen -source=audio.go -destination=../mocks/audio.go -package=mocks -mock_names=Decoder=MockAudioDecoder
type Decoder interface {
	Decode(ctx context.Context, r io.Reader) (*Samples, error)
}
