package service

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ValidateExtension checks the filename against the allow-list.
func ValidateExtension(filename string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// stageUpload writes the uploaded video into a job-scoped temp directory.
// Directories are namespaced by job ID so queued jobs never collide on
// disk. maxBytes bounds the copy; exceeding it aborts the staging.
func stageUpload(tempDir, jobID, filename string, src io.Reader, maxBytes int64) (stagingDir, inputPath string, err error) {
	stagingDir = filepath.Join(tempDir, jobID)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create staging directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	inputPath = filepath.Join(stagingDir, "input"+ext)

	dst, err := os.Create(inputPath)
	if err != nil {
		cleanupStaging(stagingDir)
		return "", "", fmt.Errorf("failed to create staging file: %w", err)
	}
	defer dst.Close()

	// Copy one byte past the ceiling so oversize input is detectable
	// without trusting the declared length.
	n, err := io.Copy(dst, io.LimitReader(src, maxBytes+1))
	if err != nil {
		cleanupStaging(stagingDir)
		return "", "", fmt.Errorf("failed to stage upload: %w", err)
	}
	if n > maxBytes {
		cleanupStaging(stagingDir)
		return "", "", &ValidationError{
			Message: fmt.Sprintf("file too large, max %d MB", maxBytes/(1024*1024)),
		}
	}

	log.Printf("Staged upload %s (%.1f MB)", inputPath, float64(n)/1024/1024)
	return stagingDir, inputPath, nil
}

// cleanupStaging removes a job's temp directory.
func cleanupStaging(stagingDir string) {
	if stagingDir == "" {
		return
	}
	if err := os.RemoveAll(stagingDir); err != nil {
		log.Printf("WARN: failed to clean staging dir %s: %v", stagingDir, err)
		return
	}
	log.Printf("Cleaned up staging dir: %s", stagingDir)
}
