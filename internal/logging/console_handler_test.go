package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bookshelf/internal/logging"
)

func TestConsoleHandlerHeaderAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	tracker := logging.NewComponentLogger(logger, "tracker")
	tracker.Info("record updated",
		logging.Args(
			logging.String(logging.FieldRecordKey, "2024:7"),
			logging.String(logging.FieldStatus, "TRACKED"),
			logging.Int(logging.FieldAttempts, 2),
		)...)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(content)

	if !strings.Contains(out, "[tracker]") {
		t.Fatalf("expected component header, got %q", out)
	}
	if !strings.Contains(out, "Record 2024:7") {
		t.Fatalf("expected record subject in header, got %q", out)
	}
	if !strings.Contains(out, "status: TRACKED") {
		t.Fatalf("expected status field line, got %q", out)
	}
	if !strings.Contains(out, "attempts: 2") {
		t.Fatalf("expected attempts field line, got %q", out)
	}
}

func TestConsoleHandlerGroupsFlatten(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("search finished",
		logging.Args(logging.Group("remote",
			logging.String("entity_type", "book"),
			logging.String("api_id", "12345"),
		))...)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(content)

	if !strings.Contains(out, "remote.entity_type: book") {
		t.Fatalf("expected flattened group key, got %q", out)
	}
	if !strings.Contains(out, "remote.api_id: 12345") {
		t.Fatalf("expected flattened group key, got %q", out)
	}
}
