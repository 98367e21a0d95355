// Package pcm encodes float sample buffers as 16-bit PCM RIFF/WAVE files
// and reads them back for inspection.
package pcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	HeaderSize    = 44
	BitsPerSample = 16
	FormatPCM     = 1
)

var ErrInvalidWAV = errors.New("invalid WAV data")

// Encode writes planar channels (one slice per channel, equal lengths) as a
// 16-bit PCM WAV byte stream with the channels interleaved per frame.
func Encode(channels [][]float32, sampleRate int) []byte {
	n := len(channels)
	frames := 0
	if n > 0 {
		frames = len(channels[0])
	}
	out := header(n, sampleRate, frames)
	pos := HeaderSize
	for i := 0; i < frames; i++ {
		for _, ch := range channels {
			var s float32
			if i < len(ch) {
				s = ch[i]
			}
			binary.LittleEndian.PutUint16(out[pos:], uint16(Quantize(s)))
			pos += 2
		}
	}
	return out
}

// Quantize clamps s to [-1, 1] and scales it to a signed 16-bit sample,
// by 32768 below zero and 32767 otherwise.
func Quantize(s float32) int16 {
	v := float64(s)
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	} else if v != v {
		v = 0
	}
	if v < 0 {
		return int16(v * 32768)
	}
	return int16(v * 32767)
}

func header(channels, sampleRate, frames int) []byte {
	dataSize := frames * channels * 2
	out := make([]byte, HeaderSize+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], FormatPCM)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*channels*2))
	binary.LittleEndian.PutUint16(out[32:], uint16(channels*2))
	binary.LittleEndian.PutUint16(out[34:], BitsPerSample)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	return out
}

// Info describes a WAV stream.
type Info struct {
	Format     int
	Channels   int
	SampleRate int
	BitDepth   int
	ByteRate   int
	DataBytes  int64
}

// Frames returns the number of sample frames in the data chunk.
func (i Info) Frames() int64 {
	size := int64(i.Channels * ((i.BitDepth + 7) / 8))
	if size == 0 {
		return 0
	}
	return i.DataBytes / size
}

func open(r io.ReadSeeker) (*wav.Decoder, Info, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, Info{}, ErrInvalidWAV
	}
	if err := d.FwdToPCM(); err != nil {
		return nil, Info{}, fmt.Errorf("seek to PCM data: %w", err)
	}
	info := Info{
		Format:     int(d.WavAudioFormat),
		Channels:   int(d.NumChans),
		SampleRate: int(d.SampleRate),
		BitDepth:   int(d.BitDepth),
		ByteRate:   int(d.AvgBytesPerSec),
		DataBytes:  d.PCMLen(),
	}
	return d, info, nil
}

// Inspect reads the header of a WAV stream.
func Inspect(r io.ReadSeeker) (Info, error) {
	_, info, err := open(r)
	return info, err
}

// Decode reads a 16-bit PCM WAV stream into planar float channels in
// [-1, 1).
func Decode(r io.ReadSeeker) ([][]float32, Info, error) {
	d, info, err := open(r)
	if err != nil {
		return nil, info, err
	}
	if info.Format != FormatPCM || info.BitDepth != BitsPerSample || info.Channels == 0 {
		return nil, info, fmt.Errorf("%w: format %d, %d bits, %d channels", ErrInvalidWAV, info.Format, info.BitDepth, info.Channels)
	}
	frames := int(info.Frames())
	data := make([]int, frames*info.Channels)
	read := 0
	for read < len(data) {
		buf := &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: info.Channels, SampleRate: info.SampleRate},
			Data:           data[read:],
			SourceBitDepth: BitsPerSample,
		}
		n, err := d.PCMBuffer(buf)
		if err != nil {
			return nil, info, fmt.Errorf("read PCM data: %w", err)
		}
		if n == 0 {
			break
		}
		read += n
	}
	out := make([][]float32, info.Channels)
	for c := range out {
		out[c] = make([]float32, read/info.Channels)
	}
	for i := 0; i+info.Channels <= read; i += info.Channels {
		for c := range out {
			out[c][i/info.Channels] = float32(data[i+c]) / 32768
		}
	}
	return out, info, nil
}
