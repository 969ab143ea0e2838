// Package inference defines the interface to the external vision-model
// pipeline (detection, tracking, engagement classification) and a
// command-line adapter for it.
package inference

import (
	"context"
	"errors"

	"github.com/classlens/engagement-backend-go/internal/models"
)

// ErrNotReady is returned when inference is requested before the engine
// finished its one-time load.
var ErrNotReady = errors.New("inference engine not loaded")

// Engine runs the detection → tracking → classification pipeline over one
// video. Implementations are NOT safe for concurrent invocation: the
// tracker carries internal state across frames, so callers must serialize
// Infer calls (see pipeline.Manager).
type Engine interface {
	// Ready reports whether the one-time load has completed.
	Ready() bool

	// Infer processes inputPath, writes the annotated video to outputPath,
	// and returns one record per detected person per frame. An empty
	// result means no persons were detected.
	Infer(ctx context.Context, inputPath, outputPath string) ([]models.TrackingRecord, error)
}
