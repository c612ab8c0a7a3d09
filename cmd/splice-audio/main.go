// splice-audio replaces a time window of an MP3 file with another MP3 clip,
// re-encoding everything to one canonical format so the result plays as a
// single continuous stream. Optionally it also rewrites a transcript JSON
// file so token timestamps stay aligned with the new audio.
//
// Usage:
//
//	splice-audio -in original.mp3 -replacement word.mp3 -start 2.5 -end 3.1 -out edited.mp3
//	splice-audio ... -transcript words.json -start-index 4 -end-index 6 -text "better words"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/revoicehq/revoice/internal/engine"
	"github.com/revoicehq/revoice/internal/transcript"
)

func main() {
	var (
		inPath          string
		replacementPath string
		outPath         string
		start           float64
		end             float64
		ffmpegPath      string
		timeoutSec      int

		transcriptPath string
		startIndex     int
		endIndex       int
		newText        string
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -in FILE -replacement FILE -start SEC -end SEC -out FILE [options]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.StringVar(&inPath, "in", "", "Path to the original MP3 file (required)")
	flag.StringVar(&replacementPath, "replacement", "", "Path to the replacement MP3 clip (required)")
	flag.StringVar(&outPath, "out", "", "Path for the spliced MP3 output (required)")
	flag.Float64Var(&start, "start", 0, "Cut window start in seconds")
	flag.Float64Var(&end, "end", 0, "Cut window end in seconds")
	flag.StringVar(&ffmpegPath, "ffmpeg", "ffmpeg", "Path to the ffmpeg binary")
	flag.IntVar(&timeoutSec, "timeout", 120, "Per-invocation ffmpeg timeout in seconds")
	flag.StringVar(&transcriptPath, "transcript", "", "Optional transcript JSON to reconcile in place")
	flag.IntVar(&startIndex, "start-index", -1, "First replaced token index (with -transcript)")
	flag.IntVar(&endIndex, "end-index", -1, "Last replaced token index (with -transcript)")
	flag.StringVar(&newText, "text", "", "Replacement text (with -transcript)")
	flag.Parse()

	if inPath == "" || replacementPath == "" || outPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -in, -replacement and -out are required")
		flag.Usage()
		os.Exit(2)
	}
	if transcriptPath != "" && (startIndex < 0 || endIndex < 0 || newText == "") {
		fmt.Fprintln(os.Stderr, "Error: -transcript requires -start-index, -end-index and -text")
		flag.Usage()
		os.Exit(2)
	}

	runner := &engine.ExecRunner{DefaultTimeout: time.Duration(timeoutSec) * time.Second}
	tools := engine.NewToolchain(ffmpegPath, runner)
	if err := tools.Check(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	splicer := engine.NewSplicer(tools, os.TempDir(), 4)

	ctx := context.Background()
	data, err := splicer.Splice(ctx, engine.Request{
		OriginalPath:    inPath,
		ReplacementPath: replacementPath,
		StartTime:       start,
		EndTime:         end,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: splice failed: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot write %s: %v\n", outPath, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", outPath, len(data))

	if transcriptPath == "" {
		return
	}
	if err := reconcileFile(ctx, splicer, transcriptPath, replacementPath, startIndex, endIndex, newText); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Reconciled %s\n", transcriptPath)
}

// reconcileFile rewrites the transcript with the replacement clip's probed
// duration so token timestamps keep matching the spliced audio.
func reconcileFile(ctx context.Context, splicer *engine.Splicer, path, clipPath string, startIndex, endIndex int, newText string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read transcript %s: %w", path, err)
	}
	var tokens []transcript.Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return fmt.Errorf("cannot parse transcript %s: %w", path, err)
	}

	measured, err := splicer.ProbeDuration(ctx, clipPath)
	if err != nil {
		return fmt.Errorf("cannot probe replacement clip: %w", err)
	}

	next, err := transcript.ReconcileWithDuration(transcript.New(tokens), startIndex, endIndex, newText, measured)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(next.Tokens, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(out, '\n'), 0o644)
}
