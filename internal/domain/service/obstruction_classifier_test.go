package service

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

func grayFrame(w, h int, fill func(x, y int) uint8) valueobject.Frame {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: fill(x, y)})
		}
	}
	return valueobject.Frame{Image: img, CapturedAt: time.Unix(0, 0)}
}

func TestObstructionClassifier_Classify(t *testing.T) {
	c := NewObstructionClassifier(DefaultObstructionThresholds())

	tests := []struct {
		name  string
		frame valueobject.Frame
		want  valueobject.ObstructionState
	}{
		{
			name:  "uniform dark is fully blocked",
			frame: grayFrame(10, 10, func(int, int) uint8 { return 5 }),
			want:  valueobject.FullyBlocked,
		},
		{
			name:  "bright frame is clear",
			frame: grayFrame(10, 10, func(int, int) uint8 { return 200 }),
			want:  valueobject.Clear,
		},
		{
			name: "left 60 percent dark is partially blocked",
			frame: grayFrame(10, 10, func(x, _ int) uint8 {
				if x < 6 {
					return 0
				}
				return 250
			}),
			want: valueobject.PartiallyBlocked,
		},
		{
			name: "exactly half dark is clear",
			frame: grayFrame(10, 10, func(x, _ int) uint8 {
				if x < 5 {
					return 0
				}
				return 250
			}),
			want: valueobject.Clear,
		},
		{
			name: "mostly dark with low mean prefers fully blocked",
			frame: grayFrame(10, 10, func(x, _ int) uint8 {
				if x < 9 {
					return 0
				}
				return 255
			}),
			want: valueobject.FullyBlocked,
		},
		{
			name:  "brightness exactly at threshold is not dark",
			frame: grayFrame(4, 4, func(int, int) uint8 { return 30 }),
			want:  valueobject.Clear,
		},
		{
			name:  "empty frame is clear",
			frame: valueobject.Frame{Image: image.NewGray(image.Rect(0, 0, 0, 0))},
			want:  valueobject.Clear,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.frame); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestObstructionClassifier_Measure(t *testing.T) {
	c := NewObstructionClassifier(DefaultObstructionThresholds())
	frame := grayFrame(2, 2, func(x, y int) uint8 {
		if x == 0 && y == 0 {
			return 0
		}
		return 100
	})

	stats := c.Measure(frame)
	if stats.Pixels != 4 {
		t.Fatalf("expected 4 pixels, got %d", stats.Pixels)
	}
	if stats.Mean != 75 {
		t.Errorf("expected mean 75, got %.2f", stats.Mean)
	}
	if stats.DarkRatio != 0.25 {
		t.Errorf("expected dark ratio 0.25, got %.2f", stats.DarkRatio)
	}
}

func TestObstructionClassifier_RGBAMatchesGray(t *testing.T) {
	c := NewObstructionClassifier(DefaultObstructionThresholds())
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 10, B: 10, A: 255})
		}
	}

	state := c.Classify(valueobject.Frame{Image: img})
	if state != valueobject.FullyBlocked {
		t.Fatalf("expected fully blocked for dark RGBA frame, got %s", state)
	}
}

func TestObstructionClassifier_CustomThresholds(t *testing.T) {
	c := NewObstructionClassifier(ObstructionThresholds{
		DarkPixelThreshold:  60,
		FullBlockBrightness: 10,
		PartialDarkRatio:    0.2,
	})
	frame := grayFrame(10, 1, func(x, _ int) uint8 {
		if x < 3 {
			return 50
		}
		return 200
	})

	if got := c.Classify(frame); got != valueobject.PartiallyBlocked {
		t.Fatalf("expected partially blocked with custom thresholds, got %s", got)
	}
}
