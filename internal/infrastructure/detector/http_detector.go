package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

const maxResponseBytes = 1 << 20

// HTTPDetector отправляет кадр во внешний сервис инференса (YOLO-совместимый)
// и разбирает список детекций.
//
// Запрос: POST <endpoint>?conf=<порог>&imgsz=<размер>, тело - JPEG.
// Ответ: {"detections":[{"label":"weapon","class_id":0,"confidence":0.91,"box":[x1,y1,x2,y2]}]}
//
// Безопасен для одновременного вызова из мониторов всех камер.
type HTTPDetector struct {
	endpoint string
	client   *http.Client
	quality  int
}

// NewHTTPDetector создает клиент; timeout ограничивает один запрос
func NewHTTPDetector(endpoint string, timeout time.Duration) (*HTTPDetector, error) {
	endpoint = strings.TrimSpace(endpoint)
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid detector endpoint: %q", endpoint)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPDetector{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		quality:  85,
	}, nil
}

type inferenceResponse struct {
	Detections []inferenceDetection `json:"detections"`
}

type inferenceDetection struct {
	Label      string     `json:"label"`
	ClassID    int        `json:"class_id"`
	Confidence float64    `json:"confidence"`
	Box        [4]float64 `json:"box"`
}

// Detect возвращает детекции с уверенностью не ниже порога
func (d *HTTPDetector) Detect(ctx context.Context, frame valueobject.Frame, confidenceThreshold float64, inferenceSize int) ([]valueobject.Detection, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("frame is empty")
	}

	var body bytes.Buffer
	if err := jpeg.Encode(&body, frame.Image, &jpeg.Options{Quality: d.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.requestURL(confidenceThreshold, inferenceSize), &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read inference response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed inferenceResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode inference response: %w", err)
	}

	bounds := frame.Image.Bounds()
	detections := make([]valueobject.Detection, 0, len(parsed.Detections))
	for _, item := range parsed.Detections {
		detection := valueobject.Detection{
			Label:      strings.ToLower(strings.TrimSpace(item.Label)),
			ClassID:    item.ClassID,
			Confidence: item.Confidence,
			Box: image.Rect(
				int(item.Box[0]), int(item.Box[1]),
				int(item.Box[2]), int(item.Box[3]),
			).Add(bounds.Min),
		}
		if err := detection.Validate(); err != nil {
			return nil, fmt.Errorf("invalid detection from inference service: %w", err)
		}
		// Сервис может не учитывать conf: фильтруем сами
		if !detection.Qualifies(confidenceThreshold) {
			continue
		}
		detections = append(detections, detection)
	}

	return detections, nil
}

func (d *HTTPDetector) requestURL(confidenceThreshold float64, inferenceSize int) string {
	query := url.Values{}
	query.Set("conf", strconv.FormatFloat(confidenceThreshold, 'f', -1, 64))
	if inferenceSize > 0 {
		query.Set("imgsz", strconv.Itoa(inferenceSize))
	}

	sep := "?"
	if strings.Contains(d.endpoint, "?") {
		sep = "&"
	}
	return d.endpoint + sep + query.Encode()
}
