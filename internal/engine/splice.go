package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// timeEpsilon absorbs probing precision: an "after" remainder smaller than
// this is treated as absent so the concat never sees a zero-length segment.
const timeEpsilon = 0.001

// Request describes one splice operation over files on disk.
type Request struct {
	// OriginalPath is the source track being edited.
	OriginalPath string

	// ReplacementPath is the synthesized clip to insert. Any playable input
	// encoding is accepted; it is always re-encoded to the canonical format.
	ReplacementPath string

	// StartTime and EndTime bound the removed window [StartTime, EndTime)
	// in seconds. Equal values mean pure insertion at that timestamp.
	StartTime float64
	EndTime   float64
}

// Splicer stitches [before?, replacement, after?] into one continuous track
// in the canonical format. Each invocation owns a fresh scratch directory
// that is removed on every exit path; concurrent invocations share nothing.
type Splicer struct {
	tools       *Toolchain
	scratchRoot string
	slots       *semaphore.Weighted
}

// NewSplicer builds a Splicer writing scratch files under scratchRoot
// (the system temp dir when empty). maxConcurrent caps simultaneous ffmpeg
// processes across all invocations; zero or negative means 4.
func NewSplicer(tools *Toolchain, scratchRoot string, maxConcurrent int) *Splicer {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Splicer{
		tools:       tools,
		scratchRoot: scratchRoot,
		slots:       semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Splice performs the timestamp-driven segment replacement and returns the
// bytes of the new track.
//
// The original's duration is probed fresh on every call (upstream edits
// change it), the up-to-three extraction steps run concurrently, and the
// final join is a demuxer-level concat of already-normalized segments.
// Any step failing aborts the whole operation with a typed engine error;
// partial output is never returned.
func (s *Splicer) Splice(ctx context.Context, req Request) ([]byte, error) {
	if req.StartTime < 0 || req.StartTime > req.EndTime {
		return nil, NewInvalidRangeError(req.StartTime, req.EndTime, 0)
	}

	duration, err := s.probe(ctx, req.OriginalPath)
	if err != nil {
		return nil, err
	}
	if req.StartTime > duration+timeEpsilon {
		return nil, NewInvalidRangeError(req.StartTime, req.EndTime, duration)
	}

	scratch, err := os.MkdirTemp(s.scratchRoot, "splice_"+uuid.NewString()[:8]+"_")
	if err != nil {
		return nil, NewExtractError("scratch", err)
	}
	// best-effort cleanup; a removal failure must not mask the splice result
	defer func() { _ = os.RemoveAll(scratch) }()

	var (
		beforePath  = filepath.Join(scratch, "before"+CanonicalExt)
		replPath    = filepath.Join(scratch, "replacement"+CanonicalExt)
		afterPath   = filepath.Join(scratch, "after"+CanonicalExt)
		afterStart  = req.EndTime
		afterLength = duration - req.EndTime
		hasBefore   = req.StartTime > 0
		hasAfter    = afterLength > timeEpsilon
	)

	// The three segment jobs read disjoint inputs and write disjoint
	// outputs; only the concat depends on all of them.
	g, gctx := errgroup.WithContext(ctx)
	if hasBefore {
		g.Go(func() error {
			return s.extract(gctx, "before", req.OriginalPath, 0, req.StartTime, beforePath)
		})
	}
	g.Go(func() error {
		return s.normalize(gctx, req.ReplacementPath, replPath)
	})
	if hasAfter {
		g.Go(func() error {
			return s.extract(gctx, "after", req.OriginalPath, afterStart, afterLength, afterPath)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var inputs []string
	if hasBefore {
		inputs = append(inputs, beforePath)
	}
	inputs = append(inputs, replPath)
	if hasAfter {
		inputs = append(inputs, afterPath)
	}

	listPath := filepath.Join(scratch, "concat.txt")
	if err := WriteConcatList(listPath, inputs); err != nil {
		return nil, NewConcatError(err)
	}

	outPath := filepath.Join(scratch, "output"+CanonicalExt)
	if err := s.concat(ctx, listPath, outPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, NewConcatError(err)
	}
	return data, nil
}

// ProbeDuration exposes the decode-level duration probe, throttled by the
// same ffmpeg slot pool as splicing. The orchestrator uses it to measure
// synthesized clips for measured-timing reconciliation.
func (s *Splicer) ProbeDuration(ctx context.Context, path string) (float64, error) {
	return s.probe(ctx, path)
}

func (s *Splicer) probe(ctx context.Context, path string) (float64, error) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return 0, NewProbeError(path, err)
	}
	defer s.slots.Release(1)
	return s.tools.ProbeDuration(ctx, path)
}

func (s *Splicer) extract(ctx context.Context, segment, src string, start, length float64, dst string) error {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return NewExtractError(segment, err)
	}
	defer s.slots.Release(1)
	if err := s.tools.Extract(ctx, src, start, length, dst); err != nil {
		return NewExtractError(segment, err)
	}
	return nil
}

func (s *Splicer) normalize(ctx context.Context, src, dst string) error {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return NewExtractError("replacement", err)
	}
	defer s.slots.Release(1)
	if err := s.tools.Normalize(ctx, src, dst); err != nil {
		return NewExtractError("replacement", err)
	}
	return nil
}

func (s *Splicer) concat(ctx context.Context, listPath, dst string) error {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return NewConcatError(err)
	}
	defer s.slots.Release(1)
	if err := s.tools.Concat(ctx, listPath, dst); err != nil {
		return NewConcatError(err)
	}
	return nil
}
