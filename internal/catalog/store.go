package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/storefrontd/storefront/internal/aws"
)

// Store-level sentinels, mapped to service failures by the caller.
var (
	// ErrVersionConflict means a conditional write lost to a concurrent writer.
	ErrVersionConflict = errors.New("product version conflict")
	// ErrAlreadyExists means a product with the same id is already stored.
	ErrAlreadyExists = errors.New("product already exists")
	// ErrMissing means the product is not in the table.
	ErrMissing = errors.New("product missing")
)

// Store encapsulates operations on the products table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new products Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Put creates a new product. Fails with ErrAlreadyExists when the id is taken.
func (s *Store) Put(ctx context.Context, p Product) error {
	now := s.nowFunc()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(product_id)"),
	})
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}

// Get fetches a product by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, productID string) (*Product, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var p Product
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}
	return &p, nil
}

// List scans the whole products table. The catalog is unbounded by design;
// pagination pages are followed until exhaustion.
func (s *Store) List(ctx context.Context) ([]Product, error) {
	var products []Product
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:         &s.tableName,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan products: %w", err)
		}
		for _, item := range out.Items {
			var p Product
			if err := attributevalue.UnmarshalMap(item, &p); err != nil {
				return nil, fmt.Errorf("unmarshal product: %w", err)
			}
			products = append(products, p)
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return products, nil
}

// Replace writes back a full product conditioned on the version the caller
// read. The stored version is bumped; a concurrent writer that got there first
// fails the condition and the caller retries from a fresh read.
func (s *Store) Replace(ctx context.Context, p Product, seenVersion int64) error {
	p.Version = seenVersion + 1
	p.UpdatedAt = s.nowFunc()

	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("version = :seen"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":seen": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", seenVersion)},
		},
	})
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrVersionConflict
		}
		return fmt.Errorf("replace product: %w", err)
	}
	return nil
}

// Delete removes a product. Fails with ErrMissing when it does not exist.
func (s *Store) Delete(ctx context.Context, productID string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
		ConditionExpression: awsString("attribute_exists(product_id)"),
	})
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrMissing
		}
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
