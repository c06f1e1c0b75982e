package main

import (
	"testing"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/source/directory"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/source/httpsnapshot"
	"github.com/PavithraS-567/Video-Surveillance-System/pkg/config"
	"github.com/PavithraS-567/Video-Surveillance-System/pkg/logger"
)

func TestNewFrameSource(t *testing.T) {
	src, err := newFrameSource(config.CameraConfig{Source: "dir", SourceRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("dir source: %v", err)
	}
	if _, ok := src.(*directory.Source); !ok {
		t.Fatalf("dir source type = %T", src)
	}

	src, err = newFrameSource(config.CameraConfig{Source: "http", SnapshotURL: "http://cam/{id}.jpg"})
	if err != nil {
		t.Fatalf("http source: %v", err)
	}
	if _, ok := src.(*httpsnapshot.Source); !ok {
		t.Fatalf("http source type = %T", src)
	}

	if _, err := newFrameSource(config.CameraConfig{Source: "rtsp"}); err == nil {
		t.Fatal("expected error for unsupported source")
	}
}

func TestBuildMonitors(t *testing.T) {
	log := logger.New("error")

	cfg, err := config.LoadFromMap(map[string]string{
		"CAMERA_IDS":         "0,1,garage",
		"CAMERA_SOURCE_ROOT": t.TempDir(),
	})
	if err != nil {
		t.Fatalf("LoadFromMap: %v", err)
	}

	runners, err := buildMonitors(cfg, nil, nil, nil, nil, log)
	if err != nil {
		t.Fatalf("buildMonitors: %v", err)
	}
	if len(runners) != 3 {
		t.Fatalf("runners = %d, want 3", len(runners))
	}
	for i, id := range []string{"0", "1", "garage"} {
		if runners[i].CameraID() != id {
			t.Fatalf("runner %d camera = %q, want %q", i, runners[i].CameraID(), id)
		}
	}

	cfg.Detector.ClassCategories = map[string]string{"0": "Not A Category!"}
	if _, err := buildMonitors(cfg, nil, nil, nil, nil, log); err == nil {
		t.Fatal("expected error for invalid class category")
	}
}
