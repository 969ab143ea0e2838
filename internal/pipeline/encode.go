package pipeline

import (
	"context"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// reencodeH264 converts the engine's mp4v artifact to H.264 so browsers
// can play it. One-shot, best-effort: if ffmpeg is missing or the encode
// fails, the original path is returned and a warning is logged. Never
// fails the job.
func reencodeH264(ctx context.Context, ffmpegBin, srcPath string) string {
	if _, err := exec.LookPath(ffmpegBin); err != nil {
		log.Printf("WARN: %s not found, skipping H.264 re-encode; video may not play in browser", ffmpegBin)
		return srcPath
	}

	ext := filepath.Ext(srcPath)
	dstPath := strings.TrimSuffix(srcPath, ext) + "_h264" + ext

	cmd := exec.CommandContext(ctx, ffmpegBin,
		"-y",
		"-i", srcPath,
		"-vcodec", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-movflags", "+faststart",
		"-an", // classroom video, drop audio
		dstPath,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		log.Printf("WARN: H.264 re-encode failed (%v), using original artifact\noutput: %s", err, output)
		return srcPath
	}

	// Drop the mp4v original to save disk.
	if err := os.Remove(srcPath); err != nil {
		log.Printf("WARN: could not remove pre-encode artifact %s: %v", srcPath, err)
	}

	log.Printf("H.264 re-encode complete: %s", dstPath)
	return dstPath
}
