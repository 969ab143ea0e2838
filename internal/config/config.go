package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string

	// Upload limits
	MaxVideoBytes     int64
	AllowedExtensions []string

	// Paths
	TempDir string
	BlobDir string

	// Pipeline
	PipelineCmd  string // worker binary, e.g. "engagement-pipeline"
	PipelineArgs []string
	FFmpegBin    string

	SignedURLTTL time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	maxMB := envInt("MAX_VIDEO_SIZE_MB", 200)

	cmdline := strings.Fields(envStr("PIPELINE_CMD", "engagement-pipeline"))
	cmd := cmdline[0]
	var args []string
	if len(cmdline) > 1 {
		args = cmdline[1:]
	}

	return &Config{
		Port:              envStr("PORT", ":8080"),
		DBPath:            envStr("DB_PATH", "./data/engagement.db"),
		JWTSecret:         envStr("JWT_SECRET", "your-secret-key-change-in-production"),
		MaxVideoBytes:     int64(maxMB) * 1024 * 1024,
		AllowedExtensions: splitExts(envStr("ALLOWED_EXTENSIONS", ".mp4,.avi,.mov,.mkv")),
		TempDir:           envStr("TEMP_DIR", "./data/temp"),
		BlobDir:           envStr("BLOB_DIR", "./data/blobs"),
		PipelineCmd:       cmd,
		PipelineArgs:      args,
		FFmpegBin:         envStr("FFMPEG_BIN", "ffmpeg"),
		SignedURLTTL:      time.Duration(envInt("SIGNED_URL_TTL_SECONDS", 3600)) * time.Second,
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitExts(s string) []string {
	var exts []string
	for _, e := range strings.Split(s, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			exts = append(exts, e)
		}
	}
	return exts
}
