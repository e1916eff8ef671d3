// Package wav reads and writes RIFF/WAVE PCM files.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	formatPCM        = 1
	formatIEEEFloat  = 3
	formatExtensible = 0xFFFE
)

var (
	ErrNotWAV        = errors.New("not a RIFF/WAVE file")
	ErrUnsupported   = errors.New("unsupported WAV encoding")
	ErrMissingChunks = errors.New("WAV file has no fmt or data chunk")
)

// Format describes the sample layout of a WAV stream
type Format struct {
	AudioFormat   uint16
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// ConvertPCMToWAV wraps 16-bit little-endian PCM in a WAV container.
func ConvertPCMToWAV(pcmData []byte, channels int, sampleRate int) ([]byte, error) {
	if channels <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid format: %d channels at %d Hz", channels, sampleRate)
	}
	return encode(Format{AudioFormat: formatPCM, Channels: channels, SampleRate: sampleRate, BitsPerSample: 16}, pcmData), nil
}

// EncodeFloat32 writes interleaved float samples as 32-bit IEEE float WAV.
func EncodeFloat32(samples []float32, channels int, sampleRate int) ([]byte, error) {
	if channels <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid format: %d channels at %d Hz", channels, sampleRate)
	}
	data := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(s))
	}
	return encode(Format{AudioFormat: formatIEEEFloat, Channels: channels, SampleRate: sampleRate, BitsPerSample: 32}, data), nil
}

func encode(f Format, data []byte) []byte {
	var buffer bytes.Buffer
	blockAlign := f.Channels * f.BitsPerSample / 8

	buffer.WriteString("RIFF")
	binary.Write(&buffer, binary.LittleEndian, uint32(len(data)+36))
	buffer.WriteString("WAVE")

	buffer.WriteString("fmt ")
	binary.Write(&buffer, binary.LittleEndian, uint32(16))
	binary.Write(&buffer, binary.LittleEndian, f.AudioFormat)
	binary.Write(&buffer, binary.LittleEndian, uint16(f.Channels))
	binary.Write(&buffer, binary.LittleEndian, uint32(f.SampleRate))
	binary.Write(&buffer, binary.LittleEndian, uint32(f.SampleRate*blockAlign))
	binary.Write(&buffer, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buffer, binary.LittleEndian, uint16(f.BitsPerSample))

	buffer.WriteString("data")
	binary.Write(&buffer, binary.LittleEndian, uint32(len(data)))
	buffer.Write(data)

	return buffer.Bytes()
}

// Decode parses a WAV file into interleaved float32 samples in [-1, 1].
func Decode(data []byte) ([]float32, Format, error) {
	if !IsWAV(data) {
		return nil, Format{}, ErrNotWAV
	}

	var (
		f       Format
		haveFmt bool
		payload []byte
		found   bool
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		end := body + size
		if end > len(data) {
			// truncated data chunks are common in streamed files
			end = len(data)
		}

		switch id {
		case "fmt ":
			if end-body < 16 {
				return nil, Format{}, fmt.Errorf("%w: fmt chunk too short", ErrUnsupported)
			}
			chunk := data[body:end]
			f.AudioFormat = binary.LittleEndian.Uint16(chunk[0:2])
			f.Channels = int(binary.LittleEndian.Uint16(chunk[2:4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(chunk[4:8]))
			f.BitsPerSample = int(binary.LittleEndian.Uint16(chunk[14:16]))
			if f.AudioFormat == formatExtensible && len(chunk) >= 26 {
				f.AudioFormat = binary.LittleEndian.Uint16(chunk[24:26])
			}
			haveFmt = true
		case "data":
			payload = data[body:end]
			found = true
		}

		// chunks are word aligned
		pos = body + size + size%2
	}

	if !haveFmt || !found {
		return nil, Format{}, ErrMissingChunks
	}
	if f.Channels <= 0 || f.SampleRate <= 0 {
		return nil, Format{}, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupported, f.Channels, f.SampleRate)
	}

	samples, err := toFloat32(payload, f)
	if err != nil {
		return nil, Format{}, err
	}
	return samples, f, nil
}

func toFloat32(payload []byte, f Format) ([]float32, error) {
	width := f.BitsPerSample / 8
	if width == 0 {
		return nil, fmt.Errorf("%w: %d bits per sample", ErrUnsupported, f.BitsPerSample)
	}
	frameBytes := width * f.Channels
	n := (len(payload) / frameBytes) * f.Channels
	out := make([]float32, n)

	switch {
	case f.AudioFormat == formatPCM && width == 1:
		for i := 0; i < n; i++ {
			out[i] = (float32(payload[i]) - 128) / 128
		}
	case f.AudioFormat == formatPCM && width == 2:
		for i := 0; i < n; i++ {
			s := int16(binary.LittleEndian.Uint16(payload[2*i:]))
			out[i] = float32(s) / 32768
		}
	case f.AudioFormat == formatPCM && width == 3:
		for i := 0; i < n; i++ {
			b := payload[3*i:]
			s := int32(b[0])<<8 | int32(b[1])<<16 | int32(b[2])<<24
			out[i] = float32(s>>8) / 8388608
		}
	case f.AudioFormat == formatPCM && width == 4:
		for i := 0; i < n; i++ {
			s := int32(binary.LittleEndian.Uint32(payload[4*i:]))
			out[i] = float32(float64(s) / 2147483648)
		}
	case f.AudioFormat == formatIEEEFloat && width == 4:
		for i := 0; i < n; i++ {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[4*i:]))
		}
	default:
		return nil, fmt.Errorf("%w: format %d with %d bits", ErrUnsupported, f.AudioFormat, f.BitsPerSample)
	}

	return out, nil
}
