package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dooshek/cablespeak/internal/logger"
	"github.com/dooshek/cablespeak/pkg/wav"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

var ErrFFmpegNotInstalled = fmt.Errorf("FFmpeg is not installed. Please install FFmpeg to play compressed audio")

func init() {
	ffmpeg.LogCompiledCommand = false
}

// CheckFFmpegInstalled verifies the ffmpeg binary is on PATH
func CheckFFmpegInstalled() error {
	cmd := exec.Command("ffmpeg", "-version")
	if err := cmd.Run(); err != nil {
		return ErrFFmpegNotInstalled
	}
	return nil
}

// Decoder turns an audio file into a sample buffer
type Decoder interface {
	Decode(ctx context.Context, path string) (Buffer, error)
}

// FFmpegDecoder decodes anything ffmpeg understands (mp3, mp4, ogg, ...)
type FFmpegDecoder struct{}

type probeResult struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// killGrace bounds how long Wait lingers on output pipes after a cancelled
// ffmpeg is killed
const killGrace = 500 * time.Millisecond

func (FFmpegDecoder) Decode(ctx context.Context, path string) (Buffer, error) {
	if err := ctx.Err(); err != nil {
		return Buffer{}, err
	}

	rate, channels, err := probeAudio(ctx, path)
	if err != nil {
		return Buffer{}, err
	}

	var out, stderr bytes.Buffer
	cmd := ffmpeg.OutputContext(ctx, []*ffmpeg.Stream{ffmpeg.Input(path)}, "pipe:", ffmpeg.KwArgs{
		"map":      "0:a:0",
		"ar":       rate,
		"ac":       channels,
		"format":   "f32le",
		"acodec":   "pcm_f32le",
		"loglevel": "error",
	}).
		WithOutput(&out).
		WithErrorOutput(&stderr).
		Compile()
	cmd.WaitDelay = killGrace
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Buffer{}, ctxErr
		}
		return Buffer{}, fmt.Errorf("ffmpeg decode %s: %w: %s", filepath.Base(path), err, strings.TrimSpace(stderr.String()))
	}
	if err := ctx.Err(); err != nil {
		return Buffer{}, err
	}

	raw := out.Bytes()
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	// drop a trailing partial frame
	samples = samples[:len(samples)-len(samples)%channels]

	logger.Debugf("Decoded %s: %d frames, %d Hz, %d channels", filepath.Base(path), len(samples)/channels, rate, channels)
	return Buffer{Samples: samples, SampleRate: rate, Channels: channels}, nil
}

// probeAudio reads the format of the first audio stream, the one Decode maps
func probeAudio(ctx context.Context, path string) (int, int, error) {
	args := ffmpeg.ConvertKwargsToCmdLineArgs(ffmpeg.KwArgs{
		"show_streams":   "",
		"select_streams": "a:0",
		"of":             "json",
		"loglevel":       "error",
	})
	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffprobe", append(args, path)...)
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	cmd.WaitDelay = killGrace
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, 0, ctxErr
		}
		return 0, 0, fmt.Errorf("probe %s: %w: %s", filepath.Base(path), err, strings.TrimSpace(stderr.String()))
	}

	var result probeResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		return 0, 0, fmt.Errorf("parse probe output: %w", err)
	}

	for _, s := range result.Streams {
		if s.CodecType != "audio" {
			continue
		}
		rate, err := strconv.Atoi(s.SampleRate)
		if err != nil || rate <= 0 || s.Channels <= 0 {
			return 0, 0, fmt.Errorf("invalid audio stream: rate %q, %d channels", s.SampleRate, s.Channels)
		}
		return rate, s.Channels, nil
	}
	return 0, 0, fmt.Errorf("no audio stream in %s", filepath.Base(path))
}

// WAVDecoder decodes PCM WAV files without external tools
type WAVDecoder struct{}

func (WAVDecoder) Decode(ctx context.Context, path string) (Buffer, error) {
	if err := ctx.Err(); err != nil {
		return Buffer{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Buffer{}, err
	}
	samples, f, err := wav.Decode(data)
	if err != nil {
		return Buffer{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return Buffer{Samples: samples, SampleRate: f.SampleRate, Channels: f.Channels}, nil
}

// AutoDecoder uses WAV for RIFF files and Fallback for everything else
type AutoDecoder struct {
	WAV      Decoder
	Fallback Decoder
}

// NewAutoDecoder returns the default decoder chain
func NewAutoDecoder() *AutoDecoder {
	return &AutoDecoder{WAV: WAVDecoder{}, Fallback: FFmpegDecoder{}}
}

func (d *AutoDecoder) Decode(ctx context.Context, path string) (Buffer, error) {
	if isWAVFile(path) {
		return d.WAV.Decode(ctx, path)
	}
	return d.Fallback.Decode(ctx, path)
}

func isWAVFile(path string) bool {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return true
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, 12)
	n, _ := f.Read(header)
	return wav.IsWAV(header[:n])
}
