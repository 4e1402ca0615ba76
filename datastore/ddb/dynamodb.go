/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/suparena/persist/datastore"
	"github.com/suparena/persist/errors"
	"github.com/suparena/persist/logger"
	"github.com/suparena/persist/schema"
	"github.com/suparena/persist/storagemodels"
)

// EntityTypeAttribute is the item attribute naming the entity an item belongs
// to in a single-table layout.
const EntityTypeAttribute = "EntityType"

// API is the subset of the DynamoDB client used by Client.
type API interface {
	sdk.ScanAPIClient
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
}

// Client implements datastore.Client on a DynamoDB table.
type Client struct {
	api        API
	tableName  string
	entityType string
	keyFields  []string
	keyMap     map[string]string
	options    storagemodels.StreamOptions
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithEntityType restricts query reads to items whose EntityType attribute
// equals entityType.
func WithEntityType(entityType string) Option {
	return func(c *Client) {
		c.entityType = entityType
	}
}

// WithKeyFields names the record fields that make up the entity key, in order.
func WithKeyFields(fields ...string) Option {
	return func(c *Client) {
		c.keyFields = append([]string(nil), fields...)
	}
}

// WithKeyMap sets the table key templates, e.g. {"PK": "EMPLOYEE#{id}", "SK": "PROFILE"}.
// Each {field} macro is replaced with the key value of that field. Without a
// key map the key fields are used as table key attributes directly.
func WithKeyMap(keyMap map[string]string) Option {
	return func(c *Client) {
		c.keyMap = keyMap
	}
}

// WithStreamOptions sets paging, retry and progress behavior for scans.
func WithStreamOptions(opts ...storagemodels.StreamOption) Option {
	return func(c *Client) {
		for _, opt := range opts {
			opt(&c.options)
		}
	}
}

// WithLogger sets the logger (default: logger.Get()).
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client for tableName using api.
func New(api API, tableName string, opts ...Option) *Client {
	c := &Client{
		api:       api,
		tableName: tableName,
		options:   storagemodels.DefaultStreamOptions(),
		logger:    logger.Get(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.With(zap.String("table", tableName))
	return c
}

// Config holds the connection settings for NewFromConfig.
type Config struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string `yaml:"endpoint"`
	Table    string `yaml:"table"`
}

// NewDynamoDBClient initializes a DynamoDB SDK client. Static credentials are
// used when both keys are set; otherwise the default credential chain applies.
func NewDynamoDBClient(ctx context.Context, cfg Config) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewFromConfig builds the SDK client and wraps it in a Client.
func NewFromConfig(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if cfg.Table == "" {
		return nil, errors.NewValidationError("table", "DynamoDB table name is required")
	}
	api, err := NewDynamoDBClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c := New(api, cfg.Table, opts...)
	c.logger.Info("DynamoDB client initialized", zap.String("region", cfg.Region))
	return c, nil
}

// ReadQuery scans the items of the configured entity type, projected onto the
// scalar members of the request shape.
func (c *Client) ReadQuery(ctx context.Context, req datastore.ReadRequest) (datastore.Stream, error) {
	input := &sdk.ScanInput{TableName: aws.String(c.tableName)}
	names := make(map[string]string)

	if proj := projection(req.Shape, names); proj != "" {
		input.ProjectionExpression = aws.String(proj)
	}
	if c.entityType != "" {
		names["#et"] = EntityTypeAttribute
		input.FilterExpression = aws.String("#et = :et")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":et": &types.AttributeValueMemberS{Value: c.entityType},
		}
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}
	return c.scan(ctx, req, input)
}

// ReadTableAsStream scans the whole table with every attribute of every item.
func (c *Client) ReadTableAsStream(ctx context.Context, req datastore.ReadRequest) (datastore.Stream, error) {
	return c.scan(ctx, req, &sdk.ScanInput{TableName: aws.String(c.tableName)})
}

// ReadByKey fetches one item with GetItem.
func (c *Client) ReadByKey(ctx context.Context, req datastore.KeyRequest) (datastore.Record, error) {
	values, err := c.keyValues(req.Entity, req.Key)
	if err != nil {
		return nil, err
	}
	key, err := c.tableKey(values)
	if err != nil {
		return nil, errors.NewBackendError(fmt.Sprintf("%s: failed to build key: %v", req.Entity, err), err)
	}

	input := &sdk.GetItemInput{
		TableName: aws.String(c.tableName),
		Key:       key,
	}
	names := make(map[string]string)
	if proj := projection(req.Shape, names); proj != "" {
		input.ProjectionExpression = aws.String(proj)
		input.ExpressionAttributeNames = names
	}

	out, err := c.api.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, errors.NewRowNotFoundError(req.Entity, req.Key)
	}
	return decodeItem(req.Entity, out.Item, req.TypeMap)
}

// keyValues maps each key field to its value from a dispatched key.
func (c *Client) keyValues(entity string, key any) (map[string]any, error) {
	if composite, ok := key.(map[string]any); ok {
		return composite, nil
	}
	if len(c.keyFields) != 1 {
		return nil, errors.NewBackendError(fmt.Sprintf("%s: single key value given but client has key fields %v", entity, c.keyFields), nil)
	}
	return map[string]any{c.keyFields[0]: key}, nil
}

// tableKey builds the GetItem key from key field values.
func (c *Client) tableKey(values map[string]any) (map[string]types.AttributeValue, error) {
	if len(c.keyMap) == 0 {
		return attributevalue.MarshalMap(values)
	}
	expanded, err := expandMacros(c.keyMap, values)
	if err != nil {
		return nil, err
	}
	key := make(map[string]types.AttributeValue, len(expanded))
	for attr, v := range expanded {
		if v == "" {
			return nil, fmt.Errorf("key attribute %q expanded to an empty value", attr)
		}
		key[attr] = &types.AttributeValueMemberS{Value: v}
	}
	return key, nil
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// expandMacros replaces every {field} in each template with the string form of
// values[field]. Missing or non-scalar values expand to "".
func expandMacros(templates map[string]string, values map[string]any) (map[string]string, error) {
	av, err := attributevalue.MarshalMap(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key values: %w", err)
	}

	res := make(map[string]string, len(templates))
	for attr, template := range templates {
		res[attr] = macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			switch tv := av[strings.Trim(macro, "{}")].(type) {
			case *types.AttributeValueMemberS:
				return tv.Value
			case *types.AttributeValueMemberN:
				return tv.Value
			case *types.AttributeValueMemberBOOL:
				return fmt.Sprintf("%v", tv.Value)
			default:
				return ""
			}
		})
	}
	return res, nil
}

// projection renders the scalar members of shape as a ProjectionExpression,
// registering placeholder names in names.
func projection(shape *schema.Shape, names map[string]string) string {
	if shape == nil {
		return ""
	}
	parts := make([]string, 0, len(shape.Fields))
	for _, f := range shape.Fields {
		if f.Relation {
			continue
		}
		placeholder := fmt.Sprintf("#p%d", len(parts))
		names[placeholder] = f.Name
		parts = append(parts, placeholder)
	}
	return strings.Join(parts, ", ")
}

// decodeItem converts a DynamoDB item into a coerced record.
func decodeItem(entity string, item map[string]types.AttributeValue, typeMap map[string]string) (datastore.Record, error) {
	record := make(datastore.Record, len(item))
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, errors.NewBackendError(fmt.Sprintf("%s: failed to unmarshal item: %v", entity, err), err)
	}
	if err := datastore.CoerceRecord(record, typeMap); err != nil {
		return nil, errors.NewBackendError(fmt.Sprintf("%s: %v", entity, err), err)
	}
	return record, nil
}
