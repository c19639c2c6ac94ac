package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mikey/reply-assistant/internal/core"
	"go.uber.org/zap"
)

// dynamodbAPI is the part of *dynamodb.Client used by DynamoDBStore
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoDBStore persists replies in a DynamoDB table keyed by email_id.
// Expiry relies on the table's TTL attribute expires_at.
type DynamoDBStore struct {
	api       dynamodbAPI
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewDynamoDBStore creates a store over an existing table
func NewDynamoDBStore(api dynamodbAPI, tableName string, logger *zap.Logger) (*DynamoDBStore, error) {
	if api == nil {
		return nil, errors.New("dynamodb store: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("dynamodb store: table name must not be empty")
	}
	return &DynamoDBStore{
		api:       api,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (s *DynamoDBStore) key(emailID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"email_id": &types.AttributeValueMemberS{Value: emailID},
	}
}

// Get retrieves a live entry. TTL deletion is lazy, so expired items are
// filtered here.
func (s *DynamoDBStore) Get(ctx context.Context, emailID string) (*core.StoredReply, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(emailID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb store: get %q: %w", emailID, err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, core.ErrNotFound
	}

	entry, err := itemToEntry(out.Item)
	if err != nil {
		return nil, fmt.Errorf("dynamodb store: decode %q: %w", emailID, err)
	}
	if !entry.ExpiresAt.IsZero() && !s.now().Before(entry.ExpiresAt) {
		return nil, core.ErrNotFound
	}
	return entry, nil
}

// Upsert writes every attribute except status, which is kept while the
// stored item is live. An item past its expiry that TTL has not reaped yet
// starts over with the status of entry.
func (s *DynamoDBStore) Upsert(ctx context.Context, entry *core.StoredReply) error {
	err := s.update(ctx, entry, true)
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		s.logger.Debug("Replacing expired item", zap.String("email_id", entry.EmailID))
		err = s.update(ctx, entry, false)
	}
	if err != nil {
		return fmt.Errorf("dynamodb store: upsert %q: %w", entry.EmailID, err)
	}
	return nil
}

func (s *DynamoDBStore) update(ctx context.Context, entry *core.StoredReply, keepStatus bool) error {
	status := entry.Status
	if status == "" {
		status = core.StatusPending
	}

	values := map[string]types.AttributeValue{
		":sender":       &types.AttributeValueMemberS{Value: entry.Sender},
		":subject":      &types.AttributeValueMemberS{Value: entry.Subject},
		":received_at":  numberAttr(unixTime(entry.ReceivedAt)),
		":intent_label": &types.AttributeValueMemberS{Value: entry.IntentLabel},
		":keywords":     &types.AttributeValueMemberS{Value: encodeKeywords(entry.Keywords)},
		":sentiment":    &types.AttributeValueMemberS{Value: string(entry.Sentiment)},
		":priority":     &types.AttributeValueMemberS{Value: string(entry.Priority)},
		":reply_text":   &types.AttributeValueMemberS{Value: entry.ReplyText},
		":generated_by": &types.AttributeValueMemberS{Value: entry.GeneratedBy},
		":processed_at": numberAttr(unixTime(entry.ProcessedAt)),
		":expires_at":   numberAttr(unixTime(entry.ExpiresAt)),
		":status":       &types.AttributeValueMemberS{Value: string(status)},
	}

	statusExpr := "#status = :status"
	var condition *string
	if keepStatus {
		statusExpr = "#status = if_not_exists(#status, :status)"
		// Zero expiry means the item never expires.
		condition = aws.String("attribute_not_exists(expires_at) OR expires_at = :zero OR expires_at > :now")
		values[":zero"] = numberAttr(0)
		values[":now"] = numberAttr(s.now().Unix())
	}

	_, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(entry.EmailID),
		UpdateExpression: aws.String("SET sender = :sender, subject = :subject, received_at = :received_at, " +
			"intent_label = :intent_label, keywords = :keywords, sentiment = :sentiment, priority = :priority, " +
			"reply_text = :reply_text, generated_by = :generated_by, processed_at = :processed_at, " +
			"expires_at = :expires_at, " + statusExpr),
		ConditionExpression: condition,
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: values,
	})
	return err
}

// SetStatus updates the status of an existing item
func (s *DynamoDBStore) SetStatus(ctx context.Context, emailID string, status core.Status) error {
	_, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 s.key(emailID),
		UpdateExpression:    aws.String("SET #status = :status"),
		ConditionExpression: aws.String("attribute_exists(email_id)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return core.ErrNotFound
		}
		return fmt.Errorf("dynamodb store: set status %q: %w", emailID, err)
	}
	return nil
}

// Delete removes an item
func (s *DynamoDBStore) Delete(ctx context.Context, emailID string) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(emailID),
	})
	if err != nil {
		return fmt.Errorf("dynamodb store: delete %q: %w", emailID, err)
	}
	return nil
}

// Cleanup is a no-op; DynamoDB TTL removes expired items
func (s *DynamoDBStore) Cleanup(ctx context.Context) error {
	s.logger.Debug("Skipping cleanup, expiry handled by DynamoDB TTL", zap.String("table", s.tableName))
	return nil
}

func numberAttr(n int64) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

func itemToEntry(item map[string]types.AttributeValue) (*core.StoredReply, error) {
	id, err := strAttr(item, "email_id")
	if err != nil {
		return nil, err
	}

	entry := &core.StoredReply{EmailID: id}
	entry.Sender, _ = strAttr(item, "sender")
	entry.Subject, _ = strAttr(item, "subject")
	entry.IntentLabel, _ = strAttr(item, "intent_label")
	entry.ReplyText, _ = strAttr(item, "reply_text")
	entry.GeneratedBy, _ = strAttr(item, "generated_by")

	keywords, _ := strAttr(item, "keywords")
	entry.Keywords = decodeKeywords(keywords)
	sentiment, _ := strAttr(item, "sentiment")
	entry.Sentiment = core.Sentiment(sentiment)
	priority, _ := strAttr(item, "priority")
	entry.Priority = core.Priority(priority)
	status, _ := strAttr(item, "status")
	entry.Status = core.Status(status)

	for attr, dst := range map[string]*time.Time{
		"received_at":  &entry.ReceivedAt,
		"processed_at": &entry.ProcessedAt,
		"expires_at":   &entry.ExpiresAt,
	} {
		sec, err := int64Attr(item, attr)
		if err != nil {
			return nil, err
		}
		*dst = fromUnix(sec)
	}
	return entry, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("attribute %q is not a string", key)
	}
	return s.Value, nil
}

// int64Attr reads a numeric attribute; a missing one reads as 0
func int64Attr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, nil
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
