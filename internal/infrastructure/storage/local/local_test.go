package local

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSnapshotStorage_PutObject(t *testing.T) {
	root := filepath.Join(t.TempDir(), "snapshots")
	storage, err := NewSnapshotStorage(root)
	if err != nil {
		t.Fatalf("NewSnapshotStorage() error = %v", err)
	}

	path, err := storage.PutObject(context.Background(), "weapon/cam0_1767225600.jpg", "image/jpeg", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}

	want := filepath.Join(root, "weapon", "cam0_1767225600.jpg")
	if path != want {
		t.Fatalf("path = %s, want %s", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) != 3 {
		t.Fatalf("unexpected file content %v %v", data, err)
	}
}

func TestSnapshotStorage_RejectsEscapingKeys(t *testing.T) {
	storage, err := NewSnapshotStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewSnapshotStorage() error = %v", err)
	}

	for _, key := range []string{"", "../escape.jpg", "/etc/passwd", "weapon/../../x.jpg"} {
		if _, err := storage.PutObject(context.Background(), key, "image/jpeg", nil); err == nil {
			t.Errorf("key %q: expected error", key)
		}
	}
}

func TestSnapshotStorage_CanceledContext(t *testing.T) {
	storage, _ := NewSnapshotStorage(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := storage.PutObject(ctx, "weapon/a.jpg", "image/jpeg", nil); err == nil {
		t.Fatal("expected context error")
	}
}

func TestAlertLog_AppendFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "alert_log.txt")
	log, err := OpenAlertLog(path)
	if err != nil {
		t.Fatalf("OpenAlertLog() error = %v", err)
	}
	log.now = func() time.Time { return time.Date(2026, 3, 1, 9, 5, 7, 0, time.Local) }

	if err := log.Append("Camera 0 started"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if got, want := string(data), "[2026-03-01 09:05:07] Camera 0 started\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if err := log.Append("after close"); err == nil {
		t.Fatal("expected error after Close")
	}
}

func TestAlertLog_ReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alert_log.txt")
	for i := 0; i < 2; i++ {
		log, err := OpenAlertLog(path)
		if err != nil {
			t.Fatalf("OpenAlertLog() error = %v", err)
		}
		_ = log.Append(fmt.Sprintf("run %d", i))
		_ = log.Close()
	}

	data, _ := os.ReadFile(path)
	if strings.Count(string(data), "\n") != 2 {
		t.Fatalf("expected 2 lines, got %q", data)
	}
}

func TestAlertLog_ConcurrentAppendsDoNotInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alert_log.txt")
	log, err := OpenAlertLog(path)
	if err != nil {
		t.Fatalf("OpenAlertLog() error = %v", err)
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = log.Append(fmt.Sprintf("Email sent for Camera %d (Weapon) #%d", w, i))
			}
		}(w)
	}
	wg.Wait()
	_ = log.Close()

	file, _ := os.Open(path)
	defer file.Close()

	line := regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] Email sent for Camera \d \(Weapon\) #\d+$`)
	scanner := bufio.NewScanner(file)
	count := 0
	for scanner.Scan() {
		if !line.MatchString(scanner.Text()) {
			t.Fatalf("malformed line %q", scanner.Text())
		}
		count++
	}
	if count != 400 {
		t.Fatalf("expected 400 lines, got %d", count)
	}
}
