package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/storefrontd/storefront/internal/aws"
	"github.com/storefrontd/storefront/internal/idempotency"
)

// userIndex is the GSI keyed on user_id for per-user order listings.
const userIndex = "user_id-index"

// ErrStatusMismatch means a status-guarded update found the order in a
// different state than expected.
var ErrStatusMismatch = errors.New("status mismatch/conditional failed")

// Store encapsulates operations on the orders table.
type Store struct {
	client     aws.DynamoDBAPI
	tableName  string
	idempTable string
	nowFunc    func() time.Time
}

// NewStore creates a new orders Store bound to the orders and idempotency tables.
func NewStore(client aws.DynamoDBAPI, tableName, idempotencyTable string) *Store {
	return &Store{
		client:     client,
		tableName:  tableName,
		idempTable: idempotencyTable,
		nowFunc:    time.Now,
	}
}

// CreateWithIdempotency writes the order and refreshes the caller's
// idempotency reservation in one TransactWriteItems call, so a DONE record
// can never point at a missing order. The caller must already hold the key
// (reserved via the idempotency store); duplicate detection happens there,
// not here.
func (s *Store) CreateWithIdempotency(ctx context.Context, rec idempotency.Record, order Order) error {
	recMap, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}

	now := s.nowFunc()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	orderMap, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	input := &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					// overwrites the held reservation with a fresh record
					TableName: &s.idempTable,
					Item:      recMap,
				},
			},
			{
				Put: &types.Put{
					TableName:           &s.tableName,
					Item:                orderMap,
					ConditionExpression: awsString("attribute_not_exists(order_id)"),
				},
			},
		},
	}

	_, err = s.client.TransactWriteItems(ctx, input)
	if err != nil {
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// ListByUser queries the user GSI for all orders owned by userID.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	var result []Order
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Query(ctx, &dyn.QueryInput{
			TableName:              &s.tableName,
			IndexName:              awsString(userIndex),
			KeyConditionExpression: awsString("user_id = :uid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uid": &types.AttributeValueMemberS{Value: userID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("query orders by user: %w", err)
		}
		for _, item := range out.Items {
			var o Order
			if err := attributevalue.UnmarshalMap(item, &o); err != nil {
				return nil, fmt.Errorf("unmarshal order: %w", err)
			}
			result = append(result, o)
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return result, nil
}

// MarkPaid transitions created -> paid and stamps the payment result. The
// condition guards against re-paying an already paid or delivered order.
func (s *Store) MarkPaid(ctx context.Context, orderID string, res PaymentResult) (*Order, error) {
	resMap, err := attributevalue.MarshalMap(res)
	if err != nil {
		return nil, fmt.Errorf("marshal payment result: %w", err)
	}
	now := s.nowFunc()

	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET #s = :paid, is_paid = :t, paid_at = :now, payment_result = :pr, updated_at = :now"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":paid":     &types.AttributeValueMemberS{Value: StatusPaid},
			":t":        &types.AttributeValueMemberBOOL{Value: true},
			":now":      &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
			":pr":       &types.AttributeValueMemberM{Value: resMap},
			":expected": &types.AttributeValueMemberS{Value: StatusCreated},
		},
		ConditionExpression: awsString("#s = :expected"),
		ReturnValues:        types.ReturnValueAllNew,
	})
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return nil, ErrStatusMismatch
		}
		return nil, fmt.Errorf("update item (mark paid): %w", err)
	}

	var o Order
	if err := attributevalue.UnmarshalMap(out.Attributes, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// MarkDelivered transitions paid -> delivered. Delivering an unpaid or
// already-delivered order fails the condition.
func (s *Store) MarkDelivered(ctx context.Context, orderID string) (*Order, error) {
	now := s.nowFunc()

	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET #s = :delivered, is_delivered = :t, delivered_at = :now, updated_at = :now"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":delivered": &types.AttributeValueMemberS{Value: StatusDelivered},
			":t":         &types.AttributeValueMemberBOOL{Value: true},
			":now":       &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
			":expected":  &types.AttributeValueMemberS{Value: StatusPaid},
		},
		ConditionExpression: awsString("#s = :expected"),
		ReturnValues:        types.ReturnValueAllNew,
	})
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return nil, ErrStatusMismatch
		}
		return nil, fmt.Errorf("update item (mark delivered): %w", err)
	}

	var o Order
	if err := attributevalue.UnmarshalMap(out.Attributes, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

func awsString(s string) *string { return &s }
