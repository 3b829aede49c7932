package obslog

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestBuild_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "board.log")
	logger, err := Build(Options{Level: "debug", Format: "json", ToFile: true, FilePath: path})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	logger.Info("relay_accept")
	_ = logger.Sync()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("expected log output in %s", path)
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("WARNING") != zapcore.WarnLevel {
		t.Fatalf("warning should map to warn")
	}
	if parseLevel("nonsense") != zapcore.InfoLevel {
		t.Fatalf("unknown level should default to info")
	}
}
