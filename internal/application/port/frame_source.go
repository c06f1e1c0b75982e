package port

import (
	"context"
	"errors"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

// ErrEndOfStream возвращается FrameStream.Read, когда кадры закончились
var ErrEndOfStream = errors.New("end of stream")

// FrameSource открывает поток кадров камеры (Port)
// Реализации: воспроизведение каталога, опрос HTTP snapshot
type FrameSource interface {
	Open(ctx context.Context, cameraID string) (FrameStream, error)
}

// FrameStream - открытый поток кадров одной камеры.
// Кадры возвращаются строго в порядке захвата.
type FrameStream interface {
	// Read блокируется до следующего кадра; ErrEndOfStream при исчерпании источника
	Read(ctx context.Context) (valueobject.Frame, error)

	Close() error
}
