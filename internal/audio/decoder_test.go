package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/dooshek/cablespeak/pkg/wav"
)

type recordingDecoder struct {
	called bool
}

func (d *recordingDecoder) Decode(ctx context.Context, path string) (Buffer, error) {
	d.called = true
	return Buffer{SampleRate: 1, Channels: 1}, nil
}

func TestWAVDecoder(t *testing.T) {
	data, err := wav.EncodeFloat32([]float32{0.1, -0.1, 0.2, -0.2}, 2, 16000)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	buf, err := WAVDecoder{}.Decode(context.Background(), path)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if buf.SampleRate != 16000 || buf.Channels != 2 || buf.Frames() != 2 {
		t.Errorf("Decode() = %d Hz, %d ch, %d frames", buf.SampleRate, buf.Channels, buf.Frames())
	}
}

func TestAutoDecoder_Dispatch(t *testing.T) {
	dir := t.TempDir()
	riff, _ := wav.ConvertPCMToWAV([]byte{0, 0}, 1, 8000)

	files := map[string][]byte{
		"speech.wav":     []byte("not checked"),
		"renamed.bin":    riff,
		"podcast.mp3":    []byte("ID3..."),
		"temp_audio.mp3": {0xFF, 0xFB},
		"clip.mp4":       []byte("....ftyp"),
	}
	wantWAV := map[string]bool{"speech.wav": true, "renamed.bin": true}

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatal(err)
		}

		wavDec, fallback := &recordingDecoder{}, &recordingDecoder{}
		d := &AutoDecoder{WAV: wavDec, Fallback: fallback}
		if _, err := d.Decode(context.Background(), path); err != nil {
			t.Fatalf("%s: Decode() error = %v", name, err)
		}
		if wavDec.called != wantWAV[name] || fallback.called == wantWAV[name] {
			t.Errorf("%s: wav=%v fallback=%v", name, wavDec.called, fallback.called)
		}
	}
}

func TestBuffer_Frames(t *testing.T) {
	if (Buffer{Samples: make([]float32, 10), Channels: 2}).Frames() != 5 {
		t.Error("Frames() for stereo buffer")
	}
	if (Buffer{Samples: make([]float32, 10)}).Frames() != 0 {
		t.Error("Frames() with zero channels should be 0")
	}
}

const stereoProbe = `{"streams":[{"codec_type":"audio","sample_rate":"48000","channels":2}]}`

// installTools puts shell scripts named ffprobe and ffmpeg first on PATH
func installTools(t *testing.T, ffprobe, ffmpeg string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts as tools need a POSIX shell")
	}
	dir := t.TempDir()
	for name, body := range map[string]string{"ffprobe": ffprobe, "ffmpeg": ffmpeg} {
		script := "#!/bin/sh\n" + body + "\n"
		if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return dir
}

func TestFFmpegDecoder_DecodesFirstAudioStream(t *testing.T) {
	dir := installTools(t,
		`echo "$@" > "$TOOL_DIR/ffprobe.args"; echo '`+stereoProbe+`'`,
		// two stereo frames of 1.0 plus a stray sample
		`echo "$@" > "$TOOL_DIR/ffmpeg.args"; for i in 1 2 3 4 5; do printf '\000\000\200\077'; done`,
	)
	t.Setenv("TOOL_DIR", dir)

	buf, err := FFmpegDecoder{}.Decode(context.Background(), "/media/film.mkv")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if buf.SampleRate != 48000 || buf.Channels != 2 || buf.Frames() != 2 {
		t.Errorf("Decode() = %d Hz, %d ch, %d frames", buf.SampleRate, buf.Channels, buf.Frames())
	}
	for i, v := range buf.Samples {
		if v != 1 {
			t.Errorf("sample %d = %v, want 1", i, v)
		}
	}

	probeArgs, _ := os.ReadFile(filepath.Join(dir, "ffprobe.args"))
	if !strings.Contains(string(probeArgs), "-select_streams a:0") {
		t.Errorf("ffprobe args = %q", probeArgs)
	}
	ffmpegArgs, _ := os.ReadFile(filepath.Join(dir, "ffmpeg.args"))
	for _, want := range []string{"-i /media/film.mkv", "-map 0:a:0", "-ac 2", "-ar 48000", "-f f32le"} {
		if !strings.Contains(string(ffmpegArgs), want) {
			t.Errorf("ffmpeg args %q missing %q", ffmpegArgs, want)
		}
	}
}

func TestFFmpegDecoder_CancelStopsDecode(t *testing.T) {
	installTools(t, `echo '`+stereoProbe+`'`, `exec sleep 5`)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	_, err := FFmpegDecoder{}.Decode(ctx, "/media/long.mp3")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Decode() error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Decode() returned %v after cancel", elapsed)
	}
}

func TestFFmpegDecoder_CancelStopsProbe(t *testing.T) {
	installTools(t, `exec sleep 5`, `exit 1`)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	_, err := FFmpegDecoder{}.Decode(ctx, "/media/long.mp3")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Decode() error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Decode() returned %v after cancel", elapsed)
	}
}

func TestFFmpegDecoder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		ffprobe string
		ffmpeg  string
		want    string
	}{
		{"probe fails", `echo "moov atom not found" >&2; exit 1`, `exit 0`, "moov atom not found"},
		{"no audio", `echo '{"streams":[{"codec_type":"video"}]}'`, `exit 0`, "no audio stream"},
		{"bad stream", `echo '{"streams":[{"codec_type":"audio","sample_rate":"x","channels":2}]}'`, `exit 0`, "invalid audio stream"},
		{"decode fails", `echo '` + stereoProbe + `'`, `echo "Invalid data found" >&2; exit 1`, "Invalid data found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			installTools(t, tt.ffprobe, tt.ffmpeg)
			_, err := FFmpegDecoder{}.Decode(context.Background(), "/media/broken.mp4")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Decode() error = %v, want %q", err, tt.want)
			}
		})
	}
}
