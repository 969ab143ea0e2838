package inference

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/classlens/engagement-backend-go/internal/models"
)

// TrackingCSVName is the per-frame data file the pipeline command writes
// next to the annotated output video.
const TrackingCSVName = "tracking_data.csv"

// CommandEngine shells out to the ML pipeline worker for each video. The
// worker annotates the video and writes the tracking CSV; this adapter
// parses the CSV back into records.
type CommandEngine struct {
	bin   string
	args  []string
	ready atomic.Bool // Load writes, request goroutines read
}

// NewCommandEngine builds an engine around the given worker command.
// Call Load before Infer.
func NewCommandEngine(bin string, args ...string) *CommandEngine {
	return &CommandEngine{bin: bin, args: args}
}

// Load verifies the worker command is invocable. Call once at startup;
// the pipeline manager rejects Infer until this succeeds.
func (e *CommandEngine) Load(ctx context.Context) error {
	if _, err := exec.LookPath(e.bin); err != nil {
		return fmt.Errorf("pipeline worker not found: %w", err)
	}

	start := time.Now()
	e.ready.Store(true)
	log.Printf("Inference worker ready in %v (%s)", time.Since(start), e.bin)
	return nil
}

// Ready reports whether Load has completed.
func (e *CommandEngine) Ready() bool {
	return e.ready.Load()
}

// Infer runs the worker on inputPath and parses the tracking CSV it
// produces next to outputPath.
func (e *CommandEngine) Infer(ctx context.Context, inputPath, outputPath string) ([]models.TrackingRecord, error) {
	if !e.ready.Load() {
		return nil, ErrNotReady
	}

	csvPath := filepath.Join(filepath.Dir(outputPath), TrackingCSVName)

	args := append(append([]string{}, e.args...),
		"--input", inputPath,
		"--output", outputPath,
		"--csv", csvPath,
	)

	cmd := exec.CommandContext(ctx, e.bin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pipeline worker failed: %w\noutput: %s", err, output)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("worker produced no tracking data: %w", err)
	}
	defer f.Close()

	records, err := ParseTrackingCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parsing tracking data: %w", err)
	}
	return records, nil
}
