// Package dynamo is the DynamoDB store.Store.
//
// Items map one-to-one onto DynamoDB items; attribute values go through
// attributevalue so numbers come back as float64, maps as map[string]any and
// lists as []any. SavePartial is a single UpdateItem whose ConditionExpression
// requires every changed attribute to still hold the value the caller read
// (or to still be absent).
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/unkn0wn-root/ddbsession/store"
)

// API is the subset of *dynamodb.Client the store needs.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// Store talks to one table.
type Store struct {
	table      string
	consistent bool

	// exactly one of api / build is set; build runs once on first use
	api   API
	build func(context.Context) (API, error)
	once  sync.Once
	err   error
}

var _ store.Store = (*Store)(nil)

type Option func(*Store)

// WithConsistentRead toggles strongly consistent GetItem (default true).
func WithConsistentRead(on bool) Option {
	return func(s *Store) { s.consistent = on }
}

// New returns a Store over an existing client.
func New(api API, table string, opts ...Option) (*Store, error) {
	if table == "" {
		return nil, store.ErrMissingTable
	}
	if api == nil {
		return nil, errors.New("dynamo: nil client")
	}
	s := &Store{table: table, consistent: true, api: api}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Open validates cfg and returns a Store whose client is built lazily on the
// first call. If the client cannot be built every call fails with an error
// wrapping store.ErrUnavailable.
func Open(cfg Config) (*Store, error) {
	if cfg.Table == "" {
		return nil, store.ErrMissingTable
	}
	s := &Store{
		table:      cfg.Table,
		consistent: cfg.ConsistentRead == nil || *cfg.ConsistentRead,
		build: func(ctx context.Context) (API, error) {
			return NewClient(ctx, cfg)
		},
	}
	return s, nil
}

// Table returns the table name.
func (s *Store) Table() string { return s.table }

func (s *Store) client(ctx context.Context) (API, error) {
	if s.build == nil {
		return s.api, nil
	}
	s.once.Do(func() {
		api, err := s.build(context.WithoutCancel(ctx))
		if err != nil {
			s.err = fmt.Errorf("%w: %v", store.ErrUnavailable, err)
			return
		}
		s.api = api
	})
	return s.api, s.err
}

func keyAttr(k store.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		k.Name: &types.AttributeValueMemberS{Value: k.Value},
	}
}

func (s *Store) Fetch(ctx context.Context, key store.Key) (store.Item, error) {
	api, err := s.client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            keyAttr(key),
		ConsistentRead: aws.Bool(s.consistent),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo: GetItem(%s): %w", s.table, err)
	}
	if len(out.Item) == 0 {
		return nil, store.ErrNotFound
	}
	var m map[string]any
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return nil, fmt.Errorf("dynamo: decode item: %w", err)
	}
	return store.Item(m), nil
}

func (s *Store) SavePartial(ctx context.Context, key store.Key, changes []store.Change) error {
	if len(changes) == 0 {
		return nil
	}
	in, err := s.updateInput(key, changes)
	if err != nil {
		return err
	}
	api, err := s.client(ctx)
	if err != nil {
		return err
	}
	_, err = api.UpdateItem(ctx, in)
	if err == nil {
		return nil
	}
	var cfe *types.ConditionalCheckFailedException
	if errors.As(err, &cfe) {
		return fmt.Errorf("%w: %s", store.ErrConflict, aws.ToString(cfe.Message))
	}
	return fmt.Errorf("dynamo: UpdateItem(%s): %w", s.table, err)
}

// updateInput builds SET/REMOVE clauses plus one condition per change.
func (s *Store) updateInput(key store.Key, changes []store.Change) (*dynamodb.UpdateItemInput, error) {
	var upd expression.UpdateBuilder
	conds := make([]expression.ConditionBuilder, 0, len(changes))
	for _, c := range changes {
		name := expression.Name(c.Name)
		if c.Delete {
			upd = upd.Remove(name)
		} else {
			upd = upd.Set(name, expression.Value(c.Value))
		}
		if c.Existed {
			conds = append(conds, name.Equal(expression.Value(c.Expected)))
		} else {
			conds = append(conds, expression.AttributeNotExists(name))
		}
	}
	cond := conds[0]
	if len(conds) > 1 {
		cond = expression.And(conds[0], conds[1], conds[2:]...)
	}

	expr, err := expression.NewBuilder().WithUpdate(upd).WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("dynamo: build update: %w", err)
	}
	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       keyAttr(key),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}

func (s *Store) Delete(ctx context.Context, key store.Key) error {
	api, err := s.client(ctx)
	if err != nil {
		return err
	}
	if _, err := api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       keyAttr(key),
	}); err != nil {
		return fmt.Errorf("dynamo: DeleteItem(%s): %w", s.table, err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Store) Close(context.Context) error { return nil }
