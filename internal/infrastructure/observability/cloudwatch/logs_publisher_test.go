package cloudwatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	applicationPort "github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
)

type fakeLogEvents struct {
	mu            sync.Mutex
	puts          []*cloudwatchlogs.PutLogEventsInput
	putErr        error
	groupErr      error
	streamCreated bool
}

func (f *fakeLogEvents) PutLogEvents(_ context.Context, params *cloudwatchlogs.PutLogEventsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, params)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &cloudwatchlogs.PutLogEventsOutput{}, nil
}

func (f *fakeLogEvents) CreateLogGroup(context.Context, *cloudwatchlogs.CreateLogGroupInput, ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error) {
	if f.groupErr != nil {
		return nil, f.groupErr
	}
	return &cloudwatchlogs.CreateLogGroupOutput{}, nil
}

func (f *fakeLogEvents) CreateLogStream(context.Context, *cloudwatchlogs.CreateLogStreamInput, ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	f.streamCreated = true
	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func TestConvertToLogEvent(t *testing.T) {
	p := &LogsPublisher{
		logGroupName:  "/surveillance/monitor",
		logStreamName: "test-stream",
	}

	timestamp := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)
	entry := applicationPort.LogEntry{
		Timestamp: timestamp,
		Level:     applicationPort.LogLevelInfo,
		Message:   "Alert dispatched",
		Fields: map[string]interface{}{
			"camera_id": "2",
			"category":  "weapon",
			"count":     42,
		},
	}

	event, err := p.convertToLogEvent(entry)
	if err != nil {
		t.Fatalf("Failed to convert log entry: %v", err)
	}

	// Verify timestamp
	expectedTimestamp := timestamp.UnixMilli()
	if event.Timestamp == nil || *event.Timestamp != expectedTimestamp {
		t.Errorf("Expected Timestamp=%d, got %v", expectedTimestamp, event.Timestamp)
	}

	// Verify message is valid JSON
	if event.Message == nil {
		t.Fatal("Expected Message to be set")
	}

	var logData map[string]interface{}
	if err := json.Unmarshal([]byte(*event.Message), &logData); err != nil {
		t.Fatalf("Failed to parse log message as JSON: %v", err)
	}

	// Verify structured fields
	if logData["level"] != string(applicationPort.LogLevelInfo) {
		t.Errorf("Expected level=INFO, got %v", logData["level"])
	}

	if logData["message"] != "Alert dispatched" {
		t.Errorf("Expected message='Alert dispatched', got %v", logData["message"])
	}

	fields, ok := logData["fields"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected fields to be a map")
	}

	if fields["camera_id"] != "2" {
		t.Errorf("Expected camera_id=2, got %v", fields["camera_id"])
	}

	if fields["category"] != "weapon" {
		t.Errorf("Expected category=weapon, got %v", fields["category"])
	}

	// Note: JSON numbers are float64
	if count, ok := fields["count"].(float64); !ok || count != 42 {
		t.Errorf("Expected count=42, got %v", fields["count"])
	}
}

func TestConvertToLogEvent_NoFields(t *testing.T) {
	p := &LogsPublisher{
		logGroupName:  "/surveillance/monitor",
		logStreamName: "test-stream",
	}

	timestamp := time.Now()
	entry := applicationPort.LogEntry{
		Timestamp: timestamp,
		Level:     applicationPort.LogLevelError,
		Message:   "Snapshot upload failed",
		Fields:    nil,
	}

	event, err := p.convertToLogEvent(entry)
	if err != nil {
		t.Fatalf("Failed to convert log entry: %v", err)
	}

	if event.Message == nil {
		t.Fatal("Expected Message to be set")
	}

	var logData map[string]interface{}
	if err := json.Unmarshal([]byte(*event.Message), &logData); err != nil {
		t.Fatalf("Failed to parse log message as JSON: %v", err)
	}

	if logData["level"] != string(applicationPort.LogLevelError) {
		t.Errorf("Expected level=ERROR, got %v", logData["level"])
	}

	if logData["message"] != "Snapshot upload failed" {
		t.Errorf("Expected message='Snapshot upload failed', got %v", logData["message"])
	}
}

func TestConvertToLogEvent_Truncation(t *testing.T) {
	p := &LogsPublisher{
		logGroupName:  "/surveillance/monitor",
		logStreamName: "test-stream",
	}

	// Create a very large message that exceeds CloudWatch limit
	largeMessage := string(make([]byte, maxLogEventSize+1000))

	timestamp := time.Now()
	entry := applicationPort.LogEntry{
		Timestamp: timestamp,
		Level:     applicationPort.LogLevelInfo,
		Message:   largeMessage,
		Fields:    nil,
	}

	event, err := p.convertToLogEvent(entry)
	if err != nil {
		t.Fatalf("Failed to convert log entry: %v", err)
	}

	if event.Message == nil {
		t.Fatal("Expected Message to be set")
	}

	// Verify message was truncated
	messageLen := len(*event.Message)
	if messageLen > maxLogEventSize {
		t.Errorf("Expected message to be truncated to %d bytes, got %d", maxLogEventSize, messageLen)
	}

	// Verify truncation marker
	if messageLen >= 3 {
		lastThree := (*event.Message)[messageLen-3:]
		if lastThree != "..." {
			t.Error("Expected truncation marker '...' at end of message")
		}
	}
}

func TestLogsConfigNormalization(t *testing.T) {
	tests := []struct {
		name      string
		config    LogsPublisherConfig
		expectErr bool
	}{
		{
			name: "valid config",
			config: LogsPublisherConfig{
				LogGroupName:  "/surveillance/monitor",
				LogStreamName: "test-stream",
				Region:        "us-east-1",
			},
		},
		{
			name:      "missing log group",
			config:    LogsPublisherConfig{LogStreamName: "test-stream", Region: "us-east-1"},
			expectErr: true,
		},
		{
			name:      "missing log stream",
			config:    LogsPublisherConfig{LogGroupName: "/surveillance/monitor", Region: "us-east-1"},
			expectErr: true,
		},
		{
			name:      "missing region",
			config:    LogsPublisherConfig{LogGroupName: "/surveillance/monitor", LogStreamName: "test-stream"},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			err := normalizeLogsConfig(&cfg)
			if (err != nil) != tt.expectErr {
				t.Fatalf("normalizeLogsConfig() error = %v, expectErr %v", err, tt.expectErr)
			}
			if !tt.expectErr && (cfg.BufferSize != 50 || cfg.FlushInterval != 5*time.Second) {
				t.Errorf("defaults not applied: %+v", cfg)
			}
		})
	}
}

func TestChronologicalOrdering(t *testing.T) {
	client := &fakeLogEvents{}
	p := newLogsPublisher(client, LogsPublisherConfig{
		LogGroupName:  "/surveillance/monitor",
		LogStreamName: "test-stream",
		BufferSize:    10,
		FlushInterval: time.Hour,
	})
	defer p.Close(context.Background())

	now := time.Now()
	entries := []applicationPort.LogEntry{
		{Timestamp: now.Add(5 * time.Second), Level: applicationPort.LogLevelInfo, Message: "Third"},
		{Timestamp: now, Level: applicationPort.LogLevelInfo, Message: "First"},
		{Timestamp: now.Add(2 * time.Second), Level: applicationPort.LogLevelInfo, Message: "Second"},
	}

	if err := p.PublishBatch(context.Background(), entries); err != nil {
		t.Fatalf("PublishBatch() error = %v", err)
	}
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if len(client.puts) != 1 {
		t.Fatalf("expected 1 PutLogEvents call, got %d", len(client.puts))
	}
	events := client.puts[0].LogEvents
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i := 0; i < len(events)-1; i++ {
		if *events[i+1].Timestamp < *events[i].Timestamp {
			t.Errorf("Entries not in chronological order at index %d", i)
		}
	}
}

func TestLogsPublisher_KeepsBufferOnFailure(t *testing.T) {
	client := &fakeLogEvents{putErr: errors.New("service unavailable")}
	p := newLogsPublisher(client, LogsPublisherConfig{
		LogGroupName:  "/surveillance/monitor",
		LogStreamName: "test-stream",
		BufferSize:    10,
		FlushInterval: time.Hour,
	})

	entry := applicationPort.LogEntry{Timestamp: time.Now(), Level: applicationPort.LogLevelWarn, Message: "SMS delivery failed"}
	if err := p.Publish(context.Background(), entry); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Flush(ctx); err == nil {
		t.Fatal("expected flush error")
	}
	if len(p.buffer) != 1 {
		t.Errorf("buffer should be retained after failure, got %d entries", len(p.buffer))
	}

	client.putErr = nil
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if len(p.buffer) != 0 {
		t.Error("buffer should be empty after successful close")
	}
}

func TestEnsureLogGroupAndStream_IgnoresExisting(t *testing.T) {
	client := &fakeLogEvents{groupErr: &types.ResourceAlreadyExistsException{}}
	p := newLogsPublisher(client, LogsPublisherConfig{LogGroupName: "/surveillance/monitor", LogStreamName: "s", BufferSize: 1, FlushInterval: time.Hour})
	defer p.Close(context.Background())

	if err := p.ensureLogGroupAndStream(context.Background()); err != nil {
		t.Fatalf("ensureLogGroupAndStream() error = %v", err)
	}
	if !client.streamCreated {
		t.Error("expected log stream to be created")
	}
}
