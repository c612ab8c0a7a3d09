package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Canonical output format. Every segment is re-encoded to this exact
// parameter set before concatenation; joining compressed streams with
// differing codec parameters produces clicks, dropped samples or decode
// failure.
const (
	CanonicalCodec      = "libmp3lame"
	CanonicalSampleRate = "44100"
	CanonicalBitrate    = "128k"
	CanonicalChannels   = "2"

	// CanonicalExt is the file extension of canonical-format segments.
	CanonicalExt = ".mp3"
)

// Toolchain wraps the ffmpeg media primitives: duration probe, sub-range
// extraction into the canonical format, and demuxer-level concatenation.
type Toolchain struct {
	FFmpegPath string
	Runner     Runner
}

// NewToolchain builds a Toolchain resolving ffmpeg from PATH unless
// ffmpegPath overrides it.
func NewToolchain(ffmpegPath string, runner Runner) *Toolchain {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if runner == nil {
		runner = &ExecRunner{}
	}
	return &Toolchain{FFmpegPath: ffmpegPath, Runner: runner}
}

// Check verifies the ffmpeg binary is reachable.
func (tc *Toolchain) Check() error {
	if _, err := exec.LookPath(tc.FFmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not available at %q: %w", tc.FFmpegPath, err)
	}
	return nil
}

// ProbeDuration returns the decoded duration of an audio file in seconds.
// It runs a full null-muxer decode and reads the final progress timestamp,
// because container header durations can be off by tens of milliseconds and
// cause audible glitches at splice boundaries.
func (tc *Toolchain) ProbeDuration(ctx context.Context, path string) (float64, error) {
	res, err := tc.Runner.Run(ctx, Command{
		Name: tc.FFmpegPath,
		Args: []string{"-hide_banner", "-nostdin", "-i", path, "-f", "null", "-"},
	})
	if err != nil {
		return 0, NewProbeError(path, fmt.Errorf("%w: %s", err, lastLine(res.Stderr)))
	}

	dur, err := parseDecodeTime(res.Stderr)
	if err != nil {
		return 0, NewProbeError(path, err)
	}
	return dur, nil
}

// Extract re-encodes src's [start, start+duration) range into the canonical
// format at dst. Seeking happens on the output side of the decode, so the
// cut is sample accurate rather than keyframe aligned.
func (tc *Toolchain) Extract(ctx context.Context, src string, start, duration float64, dst string) error {
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", src,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
	}
	args = append(args, canonicalArgs(dst)...)

	res, err := tc.Runner.Run(ctx, Command{Name: tc.FFmpegPath, Args: args})
	if err != nil {
		return fmt.Errorf("%w: %s", err, lastLine(res.Stderr))
	}
	return nil
}

// Normalize re-encodes the whole of src into the canonical format at dst.
func (tc *Toolchain) Normalize(ctx context.Context, src, dst string) error {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", src}
	args = append(args, canonicalArgs(dst)...)

	res, err := tc.Runner.Run(ctx, Command{Name: tc.FFmpegPath, Args: args})
	if err != nil {
		return fmt.Errorf("%w: %s", err, lastLine(res.Stderr))
	}
	return nil
}

// Concat joins the listed files, already in canonical format, into dst via
// the concat demuxer with stream copy. No re-decode happens here; per-segment
// encoding already normalized the streams and a second lossy pass would
// degrade them.
func (tc *Toolchain) Concat(ctx context.Context, listPath, dst string) error {
	res, err := tc.Runner.Run(ctx, Command{
		Name: tc.FFmpegPath,
		Args: []string{
			"-hide_banner", "-nostdin", "-y",
			"-f", "concat",
			"-safe", "0",
			"-i", listPath,
			"-c", "copy",
			dst,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %s", err, lastLine(res.Stderr))
	}
	return nil
}

// WriteConcatList writes a concat-demuxer list file naming inputs in order.
func WriteConcatList(listPath string, inputs []string) error {
	var sb strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", in, err)
		}
		fmt.Fprintf(&sb, "file '%s'\n", strings.ReplaceAll(abs, "'", "'\\''"))
	}
	return os.WriteFile(listPath, []byte(sb.String()), 0o644)
}

func canonicalArgs(dst string) []string {
	return []string{
		"-acodec", CanonicalCodec,
		"-ar", CanonicalSampleRate,
		"-b:a", CanonicalBitrate,
		"-ac", CanonicalChannels,
		dst,
	}
}

var decodeTimeRe = regexp.MustCompile(`time=(\d+):(\d{2}):(\d+(?:\.\d+)?)`)

// parseDecodeTime extracts the last progress timestamp from ffmpeg stderr.
func parseDecodeTime(stderr string) (float64, error) {
	matches := decodeTimeRe.FindAllStringSubmatch(stderr, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("no decode timestamp in ffmpeg output")
	}
	m := matches[len(matches)-1]
	h, _ := strconv.ParseFloat(m[1], 64)
	min, _ := strconv.ParseFloat(m[2], 64)
	sec, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, fmt.Errorf("bad decode timestamp %q: %w", m[0], err)
	}
	dur := h*3600 + min*60 + sec
	if dur <= 0 {
		return 0, fmt.Errorf("non-positive decoded duration %f", dur)
	}
	return dur, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
