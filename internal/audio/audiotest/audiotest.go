package audiotest

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

// WAV encodes interleaved integer PCM as a WAV file and returns its bytes
func WAV(t testing.TB, data []int, sampleRate int, channels int, bitDepth int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "audio.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	return out
}

// Tone returns a mono 16-bit sine wave
func Tone(freq float64, seconds float64, sampleRate int) []int {
	n := int(seconds * float64(sampleRate))
	data := make([]int, n)
	for i := range data {
		data[i] = int(math.Round(0.5 * 32767 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))))
	}
	return data
}

// ToneWAV returns a mono 16-bit sine wave encoded as WAV
func ToneWAV(t testing.TB, freq float64, seconds float64, sampleRate int) []byte {
	t.Helper()
	return WAV(t, Tone(freq, seconds, sampleRate), sampleRate, 1, 16)
}
