// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_JSONFormat(t *testing.T) {
	logger, closer := NewLogger("info", "json", "", "robotd")
	defer closer.Close()
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewLogger_TextFormat(t *testing.T) {
	logger, closer := NewLogger("debug", "text", "", "robotping")
	defer closer.Close()
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewLogger_DefaultFormat(t *testing.T) {
	// Formato desconhecido cai no default (JSON).
	logger, closer := NewLogger("info", "unknown", "", "robotd")
	defer closer.Close()
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewLogger_AllLevels(t *testing.T) {
	levels := []string{"debug", "info", "warn", "warning", "error", "unknown"}
	for _, level := range levels {
		logger, closer := NewLogger(level, "json", "", "robotd")
		defer closer.Close()
		if logger == nil {
			t.Errorf("expected non-nil logger for level %q", level)
		}
	}
}

func TestNewLogger_WithFileOutput(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "robotd.log")

	logger, closer := NewLogger("info", "json", logFile, "robotd")
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}

	logger.Info("session started", "robot", "Mnau")
	closer.Close()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	content := string(data)
	if !strings.Contains(content, "session started") {
		t.Errorf("expected log file to contain 'session started', got: %s", content)
	}
	if !strings.Contains(content, "Mnau") {
		t.Errorf("expected log file to contain the robot attr, got: %s", content)
	}
}

func TestNewLogger_WithFileOutput_InvalidPath(t *testing.T) {
	// Path inválido: loga warning em stderr e retorna logger funcional.
	logger, closer := NewLogger("info", "json", "/nonexistent/dir/robotd.log", "robotd")
	defer closer.Close()

	if logger == nil {
		t.Fatal("expected non-nil logger even with invalid file path")
	}
	logger.Info("still works")
}

func TestNewLogger_ComponentAttrTagsEveryRecord(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "robotping.log")

	logger, closer := NewLogger("info", "json", logFile, "robotping")
	logger.Info("probe ok", "target", "robotd-1")
	closer.Close()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), `"component":"robotping"`) {
		t.Errorf("expected every record to carry the component attr, got: %s", string(data))
	}
}

func TestNewLogger_NoComponentOmitsAttr(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "plain.log")

	logger, closer := NewLogger("info", "json", logFile, "")
	logger.Info("no component tagging")
	closer.Close()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if strings.Contains(string(data), `"component"`) {
		t.Errorf("expected no component attr when component is empty, got: %s", string(data))
	}
}
