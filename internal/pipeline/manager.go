// Package pipeline wraps the inference engine with single-flight admission
// control and the post-processing re-encode fallback.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/classlens/engagement-backend-go/internal/inference"
	"github.com/classlens/engagement-backend-go/internal/models"
)

// Result is the outcome of one Process call.
type Result struct {
	Records []models.TrackingRecord
	// VideoPath is the playable annotated video: the H.264 re-encode when
	// ffmpeg succeeded, otherwise the engine's original artifact.
	VideoPath string
	// Elapsed covers lock wait, inference, and the re-encode attempt.
	Elapsed time.Duration
}

// Manager owns the loaded inference engine and serializes access to it.
// The engine's tracker state is not reentrant, so all Process calls pass
// through a capacity-1 mutex: a second caller blocks until the first
// returns. Construct explicitly with NewManager and pass by reference;
// there is no package-level instance.
type Manager struct {
	engine    inference.Engine
	ffmpegBin string
	mu        sync.Mutex
}

// NewManager wraps an engine. ffmpegBin names the transcode tool used for
// the H.264 fallback step; pass "" to use "ffmpeg" from PATH.
func NewManager(engine inference.Engine, ffmpegBin string) *Manager {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	return &Manager{engine: engine, ffmpegBin: ffmpegBin}
}

// Ready reports whether the underlying engine has completed its load.
func (m *Manager) Ready() bool {
	return m.engine.Ready()
}

// Process runs inference on inputPath, writing the annotated video to
// outputPath, then attempts the H.264 re-encode. Exactly one Process call
// is ever mid-flight; concurrent callers queue on the mutex in arrival
// order with no bound and no timeout.
//
// Returns inference.ErrNotReady before the engine is loaded. A failed or
// unavailable re-encode is not an error: the result falls back to the
// engine's original artifact.
func (m *Manager) Process(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	if !m.engine.Ready() {
		return nil, inference.ErrNotReady
	}

	start := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.runInference(ctx, inputPath, outputPath)
	if err != nil {
		return nil, err
	}

	videoPath := reencodeH264(ctx, m.ffmpegBin, outputPath)

	return &Result{
		Records:   records,
		VideoPath: videoPath,
		Elapsed:   time.Since(start),
	}, nil
}

// runInference dispatches the blocking engine call to its own goroutine
// and waits for it, converting a worker panic into an ordinary error so a
// bad video cannot take the process down.
func (m *Manager) runInference(ctx context.Context, inputPath, outputPath string) ([]models.TrackingRecord, error) {
	type inferResult struct {
		records []models.TrackingRecord
		err     error
	}

	done := make(chan inferResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- inferResult{err: fmt.Errorf("inference panicked: %v", r)}
			}
		}()
		records, err := m.engine.Infer(ctx, inputPath, outputPath)
		done <- inferResult{records: records, err: err}
	}()

	res := <-done
	if res.err != nil {
		return nil, fmt.Errorf("inference failed: %w", res.err)
	}
	return res.records, nil
}
