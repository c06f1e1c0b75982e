package dynamodb

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
)

const (
	defaultListLimit  = 20
	maxListLimit      = 100
	maxBatchWriteSize = 25
	maxBatchRetries   = 5

	alertsAllGSI1 = "GSI1"
	allCamerasPK  = "ALERTS"

	attrPK          = "PK"
	attrSK          = "SK"
	attrGSI1PK      = "GSI1PK"
	attrGSI1SK      = "GSI1SK"
	attrEventID     = "event_id"
	attrCameraID    = "camera_id"
	attrCategory    = "category"
	attrReason      = "reason"
	attrSnapshotKey = "snapshot_key"
	attrSnapshotURL = "snapshot_url"
	attrDetections  = "detections"
	attrOccurredAt  = "occurred_at"
	attrRecordedAt  = "recorded_at"
	attrExpiresAt   = "expires_at"
)

var cameraIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

type Config struct {
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	TTLDays         int
	StrongReads     bool
}

// tableAPI - подмножество клиента DynamoDB, которое использует репозиторий
type tableAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// AlertRepository хранит аудит тревог в одной таблице:
// PK=CAMERA#<id>, SK=TS#<ms>#EVT#<hash>; GSI1 собирает все камеры под одним ключом.
type AlertRepository struct {
	client      tableAPI
	tableName   string
	ttl         time.Duration
	strongReads bool
	retryDelay  time.Duration
}

func NewAlertRepository(ctx context.Context, cfg Config) (*AlertRepository, error) {
	if strings.TrimSpace(cfg.TableName) == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}

	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	accessKeyID := strings.TrimSpace(cfg.AccessKeyID)
	secretAccessKey := strings.TrimSpace(cfg.SecretAccessKey)
	if accessKeyID != "" || secretAccessKey != "" {
		if accessKeyID == "" || secretAccessKey == "" {
			return nil, fmt.Errorf("both dynamodb access key id and secret access key are required for static credentials")
		}
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config for dynamodb: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(options *dynamodb.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			options.BaseEndpoint = &endpoint
		}
	})

	return newAlertRepository(client, cfg), nil
}

func newAlertRepository(client tableAPI, cfg Config) *AlertRepository {
	var ttl time.Duration
	if cfg.TTLDays > 0 {
		ttl = time.Duration(cfg.TTLDays) * 24 * time.Hour
	}

	return &AlertRepository{
		client:      client,
		tableName:   strings.TrimSpace(cfg.TableName),
		ttl:         ttl,
		strongReads: cfg.StrongReads,
		retryDelay:  100 * time.Millisecond,
	}
}

// Save записывает одну тревогу
func (r *AlertRepository) Save(ctx context.Context, record port.AlertRecord) error {
	return r.SaveBatch(ctx, []port.AlertRecord{record})
}

// SaveBatch записывает тревоги пачками по 25 с повтором необработанных элементов
func (r *AlertRepository) SaveBatch(ctx context.Context, records []port.AlertRecord) error {
	if len(records) == 0 {
		return nil
	}

	for start := 0; start < len(records); start += maxBatchWriteSize {
		end := start + maxBatchWriteSize
		if end > len(records) {
			end = len(records)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, record := range records[start:end] {
			item, err := r.toItem(record)
			if err != nil {
				return err
			}
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := r.writeBatchWithRetry(ctx, requests); err != nil {
			return err
		}
	}

	return nil
}

// ListByCamera возвращает последние тревоги, новые первыми. Пустой cameraID - все камеры через GSI1.
func (r *AlertRepository) ListByCamera(ctx context.Context, cameraID string, limit int) ([]port.AlertRecord, error) {
	cameraID = strings.TrimSpace(cameraID)
	if cameraID != "" && !cameraIDPattern.MatchString(cameraID) {
		return nil, fmt.Errorf("invalid camera_id")
	}

	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	input := &dynamodb.QueryInput{
		TableName:                 &r.tableName,
		Limit:                     int32Pointer(int32(limit)),
		ScanIndexForward:          boolPointer(false),
		ExpressionAttributeNames:  map[string]string{},
		ExpressionAttributeValues: map[string]types.AttributeValue{},
	}

	if cameraID != "" {
		input.ConsistentRead = boolPointer(r.strongReads)
		input.ExpressionAttributeNames["#pk"] = attrPK
		input.ExpressionAttributeValues[":pk"] = &types.AttributeValueMemberS{Value: buildPK(cameraID)}
		input.KeyConditionExpression = stringPointer("#pk = :pk")
	} else {
		input.IndexName = stringPointer(alertsAllGSI1)
		input.ExpressionAttributeNames["#gsi1pk"] = attrGSI1PK
		input.ExpressionAttributeValues[":pk"] = &types.AttributeValueMemberS{Value: allCamerasPK}
		input.KeyConditionExpression = stringPointer("#gsi1pk = :pk")
	}

	output, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("dynamodb query failed: %w", err)
	}

	records := make([]port.AlertRecord, 0, len(output.Items))
	for _, raw := range output.Items {
		record, err := fromItem(raw)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

func (r *AlertRepository) writeBatchWithRetry(ctx context.Context, requests []types.WriteRequest) error {
	if len(requests) == 0 {
		return nil
	}

	pending := map[string][]types.WriteRequest{
		r.tableName: requests,
	}

	for attempt := 0; attempt < maxBatchRetries; attempt++ {
		output, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return fmt.Errorf("dynamodb batch write failed: %w", err)
		}

		if len(output.UnprocessedItems) == 0 {
			return nil
		}

		pending = output.UnprocessedItems

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * r.retryDelay):
		}
	}

	return fmt.Errorf("dynamodb batch write has unprocessed items after retries")
}

func (r *AlertRepository) toItem(record port.AlertRecord) (map[string]types.AttributeValue, error) {
	eventID := strings.TrimSpace(record.ID)
	cameraID := strings.TrimSpace(record.CameraID)
	category := strings.TrimSpace(record.Category)
	if eventID == "" {
		return nil, fmt.Errorf("event_id is required")
	}
	if !cameraIDPattern.MatchString(cameraID) {
		return nil, fmt.Errorf("invalid camera_id")
	}
	if category == "" {
		return nil, fmt.Errorf("category is required")
	}

	occurredAt := record.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	recordedAt := record.RecordedAt.UTC()
	if recordedAt.IsZero() {
		recordedAt = occurredAt
	}

	occurredAtMS := occurredAt.UnixMilli()

	item := map[string]types.AttributeValue{
		attrPK:         &types.AttributeValueMemberS{Value: buildPK(cameraID)},
		attrSK:         &types.AttributeValueMemberS{Value: buildSK(occurredAtMS, eventID)},
		attrGSI1PK:     &types.AttributeValueMemberS{Value: allCamerasPK},
		attrGSI1SK:     &types.AttributeValueMemberS{Value: buildGSI1SK(occurredAtMS, cameraID, eventID)},
		attrEventID:    &types.AttributeValueMemberS{Value: eventID},
		attrCameraID:   &types.AttributeValueMemberS{Value: cameraID},
		attrCategory:   &types.AttributeValueMemberS{Value: category},
		attrDetections: &types.AttributeValueMemberN{Value: strconv.Itoa(record.Detections)},
		attrOccurredAt: &types.AttributeValueMemberN{Value: strconv.FormatInt(occurredAtMS, 10)},
		attrRecordedAt: &types.AttributeValueMemberN{Value: strconv.FormatInt(recordedAt.UnixMilli(), 10)},
	}

	if reason := strings.TrimSpace(record.Reason); reason != "" {
		item[attrReason] = &types.AttributeValueMemberS{Value: reason}
	}
	if key := strings.TrimSpace(record.SnapshotKey); key != "" {
		item[attrSnapshotKey] = &types.AttributeValueMemberS{Value: key}
	}
	if url := strings.TrimSpace(record.SnapshotURL); url != "" {
		item[attrSnapshotURL] = &types.AttributeValueMemberS{Value: url}
	}
	if r.ttl > 0 {
		item[attrExpiresAt] = &types.AttributeValueMemberN{Value: strconv.FormatInt(recordedAt.Add(r.ttl).Unix(), 10)}
	}

	return item, nil
}

func fromItem(item map[string]types.AttributeValue) (port.AlertRecord, error) {
	eventID, err := attrString(item, attrEventID)
	if err != nil {
		return port.AlertRecord{}, err
	}
	cameraID, err := attrString(item, attrCameraID)
	if err != nil {
		return port.AlertRecord{}, err
	}
	category, err := attrString(item, attrCategory)
	if err != nil {
		return port.AlertRecord{}, err
	}

	occurredAtMS, err := attrInt64(item, attrOccurredAt)
	if err != nil {
		return port.AlertRecord{}, err
	}

	record := port.AlertRecord{
		ID:          eventID,
		CameraID:    cameraID,
		Category:    category,
		Reason:      optionalString(item, attrReason),
		SnapshotKey: optionalString(item, attrSnapshotKey),
		SnapshotURL: optionalString(item, attrSnapshotURL),
		Detections:  int(optionalInt64(item, attrDetections)),
		OccurredAt:  time.UnixMilli(occurredAtMS).UTC(),
	}

	if recordedAtMS := optionalInt64(item, attrRecordedAt); recordedAtMS > 0 {
		record.RecordedAt = time.UnixMilli(recordedAtMS).UTC()
	}

	return record, nil
}

func buildPK(cameraID string) string {
	return "CAMERA#" + cameraID
}

func buildSK(occurredAtMS int64, eventID string) string {
	return fmt.Sprintf("TS#%013d#EVT#%s", occurredAtMS, objectHash(eventID))
}

func buildGSI1SK(occurredAtMS int64, cameraID, eventID string) string {
	return fmt.Sprintf("TS#%013d#CAM#%s#EVT#%s", occurredAtMS, cameraID, objectHash(eventID))
}

func objectHash(key string) string {
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func attrString(item map[string]types.AttributeValue, name string) (string, error) {
	raw, ok := item[name]
	if !ok {
		return "", fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok || strings.TrimSpace(value.Value) == "" {
		return "", fmt.Errorf("invalid attribute %s", name)
	}
	return value.Value, nil
}

func optionalString(item map[string]types.AttributeValue, name string) string {
	raw, ok := item[name]
	if !ok {
		return ""
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return value.Value
}

func attrInt64(item map[string]types.AttributeValue, name string) (int64, error) {
	raw, ok := item[name]
	if !ok {
		return 0, fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("invalid attribute %s", name)
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid attribute %s: %w", name, err)
	}
	return parsed, nil
}

func optionalInt64(item map[string]types.AttributeValue, name string) int64 {
	raw, ok := item[name]
	if !ok {
		return 0
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func boolPointer(v bool) *bool {
	return &v
}

func int32Pointer(v int32) *int32 {
	return &v
}

func stringPointer(v string) *string {
	return &v
}
