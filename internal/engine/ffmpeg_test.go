package engine

import (
	"context"
	"strings"
	"testing"
)

func TestParseDecodeTime(t *testing.T) {
	tests := []struct {
		name      string
		stderr    string
		want      float64
		expectErr bool
	}{
		{
			"plain progress line",
			"size=N/A time=00:00:12.42 bitrate=N/A speed= 300x",
			12.42,
			false,
		},
		{
			"takes last timestamp",
			"time=00:00:05.00 ...\nsize=N/A time=00:01:02.50 bitrate=N/A",
			62.5,
			false,
		},
		{
			"hours carry over",
			"time=01:02:03.25 speed=1x",
			3723.25,
			false,
		},
		{"no timestamp", "Output file is empty", 0, true},
		{"zero duration", "time=00:00:00.00 speed=0x", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDecodeTime(tt.stderr)
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got %f", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("parseDecodeTime = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestProbeDurationUsesNullDecode(t *testing.T) {
	runner := newFakeRunner("size=N/A time=00:00:03.50 bitrate=N/A")
	tc := NewToolchain("", runner)

	if tc.FFmpegPath != "ffmpeg" {
		t.Fatalf("empty path should default to ffmpeg, got %q", tc.FFmpegPath)
	}

	dur, err := tc.ProbeDuration(context.Background(), "/audio/in.mp3")
	if err != nil {
		t.Fatalf("ProbeDuration error: %v", err)
	}
	if dur != 3.5 {
		t.Fatalf("duration = %f, want 3.5", dur)
	}

	if len(runner.commands) != 1 {
		t.Fatalf("expected one command, got %d", len(runner.commands))
	}
	args := strings.Join(runner.commands[0].Args, " ")
	if !strings.Contains(args, "-f null") {
		t.Fatalf("probe must decode to the null muxer, args: %s", args)
	}
}

func TestCanonicalArgsCarryFixedFormat(t *testing.T) {
	args := strings.Join(canonicalArgs("/tmp/out.mp3"), " ")
	for _, want := range []string{"libmp3lame", "44100", "128k", "-ac 2"} {
		if !strings.Contains(args, want) {
			t.Fatalf("canonical args missing %q: %s", want, args)
		}
	}
}
