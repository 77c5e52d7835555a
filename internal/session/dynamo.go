package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoStore persists sessions in a DynamoDB table keyed by session id.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

// dynamoSession is the DynamoDB item layout.
type dynamoSession struct {
	ID        string `dynamodbav:"id"`
	Token     string `dynamodbav:"token"`
	UserID    string `dynamodbav:"user_id"`
	Role      string `dynamodbav:"role"`
	CreatedAt string `dynamodbav:"created_at"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

func (ds *DynamoStore) Save(ctx context.Context, sess *Session) error {
	now := time.Now()
	createdAt := sess.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	item := dynamoSession{
		ID:        sess.ID,
		Token:     sess.Token,
		UserID:    sess.UserID,
		Role:      sess.Role,
		CreatedAt: createdAt.Format(time.RFC3339Nano),
		UpdatedAt: now.Format(time.RFC3339Nano),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sess.ID, err)
	}

	_, err = ds.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(ds.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

func (ds *DynamoStore) Load(ctx context.Context, id string) (*Session, bool, error) {
	out, err := ds.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(ds.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load session %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, false, nil
	}

	var item dynamoSession
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, false, fmt.Errorf("unmarshal session %s: %w", id, err)
	}

	sess := &Session{
		ID:     item.ID,
		Token:  item.Token,
		UserID: item.UserID,
		Role:   item.Role,
	}
	if t, err := time.Parse(time.RFC3339Nano, item.CreatedAt); err == nil {
		sess.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, item.UpdatedAt); err == nil {
		sess.UpdatedAt = t
	}
	return sess, true, nil
}

func (ds *DynamoStore) Delete(ctx context.Context, id string) error {
	_, err := ds.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(ds.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
