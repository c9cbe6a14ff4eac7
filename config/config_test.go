package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.RootDirectory != "music" {
		t.Errorf("RootDirectory = %q, want music", cfg.RootDirectory)
	}
	if cfg.SegmentSkipStart != 0.1 || cfg.SegmentSkipEnd != 0.1 {
		t.Errorf("skip fractions = %v/%v, want 0.1/0.1", cfg.SegmentSkipStart, cfg.SegmentSkipEnd)
	}
	if cfg.SegmentLength != 3*time.Second {
		t.Errorf("SegmentLength = %v, want 3s", cfg.SegmentLength)
	}
	if cfg.ExportFormat != "flac" {
		t.Errorf("ExportFormat = %q, want flac", cfg.ExportFormat)
	}
	if cfg.PreloadCount != 3 {
		t.Errorf("PreloadCount = %d, want 3", cfg.PreloadCount)
	}
	if cfg.RedisEnabled {
		t.Error("RedisEnabled defaults to true, want false")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ROOT_DIRECTORY", "/srv/music")
	t.Setenv("SEGMENT_LENGTH", "0.5")
	t.Setenv("SEGMENT_SKIP_START", "0.25")
	t.Setenv("PRELOAD_COUNT", "5")
	t.Setenv("REDIS_ENABLED", "true")

	cfg := Load()

	if cfg.RootDirectory != "/srv/music" {
		t.Errorf("RootDirectory = %q, want /srv/music", cfg.RootDirectory)
	}
	if cfg.SegmentLength != 500*time.Millisecond {
		t.Errorf("SegmentLength = %v, want 500ms", cfg.SegmentLength)
	}
	if cfg.SegmentSkipStart != 0.25 {
		t.Errorf("SegmentSkipStart = %v, want 0.25", cfg.SegmentSkipStart)
	}
	if cfg.PreloadCount != 5 {
		t.Errorf("PreloadCount = %d, want 5", cfg.PreloadCount)
	}
	if !cfg.RedisEnabled {
		t.Error("RedisEnabled not read from environment")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SEGMENT_SKIP_START", "lots")
	t.Setenv("PRELOAD_COUNT", "many")

	cfg := Load()

	if cfg.SegmentSkipStart != 0.1 {
		t.Errorf("SegmentSkipStart = %v, want default 0.1", cfg.SegmentSkipStart)
	}
	if cfg.PreloadCount != 3 {
		t.Errorf("PreloadCount = %d, want default 3", cfg.PreloadCount)
	}
}
