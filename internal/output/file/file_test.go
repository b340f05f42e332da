package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hejijunhao/khmerid/internal/model"
	"github.com/hejijunhao/khmerid/internal/output"
)

func testEvent(id uint64, valid bool) model.VerdictEvent {
	ev := model.VerdictEvent{
		Session:      "session-1",
		FrameID:      id,
		Source:       "dir",
		Timestamp:    time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
		Valid:        valid,
		Score:        2,
		Matched:      []string{"ID Number"},
		SourceLength: 14,
	}
	if valid {
		ev.Score = 8
		ev.Matched = []string{"ID Number", "MRZ", "Name", "KHM"}
	}
	return ev
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestWriteProducesValidNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	out, err := New(path, output.Standard)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := out.Write(context.Background(), testEvent(uint64(i), true)); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}
	out.Close()

	lines := readLines(t, path)
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5", len(lines))
	}
	for i, line := range lines {
		var ev model.VerdictEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Errorf("line %d: invalid JSON: %v", i, err)
		}
		if ev.FrameID != uint64(i) {
			t.Errorf("line %d: frame_id = %d, want %d", i, ev.FrameID, i)
		}
		if !ev.Valid {
			t.Errorf("line %d: valid = false, want true", i)
		}
	}
}

func TestAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	if err := os.WriteFile(path, []byte("{\"frame_id\":0}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := New(path, output.Minimal)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	out.Write(context.Background(), testEvent(1, false))
	out.Close()

	if lines := readLines(t, path); len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
}

func TestRotationTriggersAtMaxSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	// Each line is well over 100 bytes, so every write after the first rotates.
	out, err := New(path, output.Full, WithMaxSize(200))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := out.Write(context.Background(), testEvent(uint64(i), true)); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}
	out.Close()

	if _, err := os.Stat(path + ".1"); os.IsNotExist(err) {
		t.Error("expected rotated file .1 to exist")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("current file stat error: %v", err)
	}
	if info.Size() == 0 {
		t.Error("current file is empty after rotation")
	}
}

func TestRotationKeepsMaxBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	out, err := New(path, output.Full, WithMaxSize(10), WithMaxBackups(2))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	for i := 0; i < 6; i++ {
		if err := out.Write(context.Background(), testEvent(uint64(i), true)); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}
	out.Close()

	for _, suffix := range []string{"", ".1", ".2"} {
		if _, err := os.Stat(path + suffix); err != nil {
			t.Errorf("expected %s to exist: %v", path+suffix, err)
		}
	}
	if _, err := os.Stat(fmt.Sprintf("%s.%d", path, 3)); !os.IsNotExist(err) {
		t.Error("backup .3 should not exist with WithMaxBackups(2)")
	}

	// Newest event lives in the current file, the one before it in .1.
	var ev model.VerdictEvent
	json.Unmarshal([]byte(readLines(t, path)[0]), &ev)
	if ev.FrameID != 5 {
		t.Errorf("current file frame_id = %d, want 5", ev.FrameID)
	}
	json.Unmarshal([]byte(readLines(t, path+".1")[0]), &ev)
	if ev.FrameID != 4 {
		t.Errorf(".1 frame_id = %d, want 4", ev.FrameID)
	}
}

func TestCloseFlushesData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	out, err := New(path, output.Standard)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	out.Write(context.Background(), testEvent(1, true))
	out.Close()

	data, _ := os.ReadFile(path)
	if len(data) == 0 {
		t.Error("file is empty: Close did not flush buffered data")
	}
}

func TestFlushWithoutClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	out, err := New(path, output.Standard)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer out.Close()

	out.Write(context.Background(), testEvent(1, true))
	if err := out.Flush(); err != nil {
		t.Fatalf("Flush error: %v", err)
	}

	if lines := readLines(t, path); len(lines) != 1 {
		t.Fatalf("got %d lines after Flush, want 1", len(lines))
	}
}

func TestVerbosityMinimalStripsFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	out, err := New(path, output.Minimal)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	out.Write(context.Background(), testEvent(1, true))
	out.Close()

	var ev map[string]any
	json.Unmarshal([]byte(readLines(t, path)[0]), &ev)

	for _, key := range []string{"score", "matched", "source_length"} {
		if _, ok := ev[key]; ok {
			t.Errorf("Minimal verbosity should strip %q", key)
		}
	}
	if ev["valid"] != true {
		t.Errorf("valid = %v, want true", ev["valid"])
	}
}

func TestOpenFailsForMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.jsonl")
	if _, err := New(path, output.Standard); err == nil {
		t.Fatal("expected error opening file in missing directory")
	}
}

func TestConcurrentWritesSafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	out, err := New(path, output.Standard)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			out.Write(context.Background(), testEvent(id, id%2 == 0))
		}(uint64(i))
	}
	wg.Wait()
	out.Close()

	lines := readLines(t, path)
	if len(lines) != 50 {
		t.Errorf("got %d lines, want 50", len(lines))
	}
}
