// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dynamodbadapter is the DynamoDB backend. Every entity shares one
// table ("dbal_records") keyed by a composite (entity, id) primary key, the
// same shape the relational adapters use, since DynamoDB also has no notion
// of "create a table from this YAML schema at request time" — the table is
// provisioned once, ahead of any entity being known.
package dynamodbadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/pkg/uuidv7"
)

const tableName = "dbal_records"

type dynamoAdapter struct {
	client *dynamodb.Client
}

// New builds a DynamoDB-backed [adapter.Adapter]. The URL may carry an
// endpoint override for local/dynamodb-local testing
// (dynamodb://localhost:8000) or be bare ("dynamodb://") to use the
// environment's default AWS credential chain and region.
func New(ctx context.Context, cfg adapter.Config) (adapter.Adapter, error) {
	endpoint := strings.TrimPrefix(cfg.DatabaseURL, "dynamodb://")

	var opts []func(*awsconfig.LoadOptions) error
	if endpoint != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = ptr("http://" + endpoint)
		}
	})

	if err := ensureTable(ctx, client); err != nil {
		return nil, err
	}

	return &dynamoAdapter{client: client}, nil
}

func ptr(s string) *string { return &s }

func ensureTable(ctx context.Context, client *dynamodb.Client) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: ptr(tableName)})
	if err == nil {
		return nil
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: ptr(tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: ptr("entity"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: ptr("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: ptr("entity"), KeyType: types.KeyTypeHash},
			{AttributeName: ptr("id"), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	return err
}

func (d *dynamoAdapter) Create(ctx context.Context, entity string, doc adapter.Document) (adapter.Document, error) {
	if id, ok := doc["id"].(string); !ok || id == "" {
		doc["id"] = uuidv7.New()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	doc["createdAt"] = now
	doc["updatedAt"] = now
	return d.put(ctx, entity, doc)
}

func (d *dynamoAdapter) put(ctx context.Context, entity string, doc adapter.Document) (adapter.Document, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	id := doc["id"].(string)
	tenantID, _ := doc["tenantId"].(string)

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: ptr(tableName),
		Item: map[string]types.AttributeValue{
			"entity":   &types.AttributeValueMemberS{Value: entity},
			"id":       &types.AttributeValueMemberS{Value: id},
			"tenantId": &types.AttributeValueMemberS{Value: tenantID},
			"data":     &types.AttributeValueMemberS{Value: string(raw)},
		},
	})
	if err != nil {
		return nil, apperr.DatabaseError(err)
	}
	return doc, nil
}

func (d *dynamoAdapter) Read(ctx context.Context, entity, id string) (adapter.Document, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: ptr(tableName),
		Key: map[string]types.AttributeValue{
			"entity": &types.AttributeValueMemberS{Value: entity},
			"id":     &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, apperr.DatabaseError(err)
	}
	if out.Item == nil {
		return nil, apperr.NotFound(entity)
	}
	return decodeItem(out.Item)
}

func (d *dynamoAdapter) Update(ctx context.Context, entity, id string, doc adapter.Document) (adapter.Document, error) {
	if _, err := d.Read(ctx, entity, id); err != nil {
		return nil, err
	}
	doc["id"] = id
	doc["updatedAt"] = time.Now().UTC().Format(time.RFC3339)
	return d.put(ctx, entity, doc)
}

func (d *dynamoAdapter) Remove(ctx context.Context, entity, id string) error {
	if _, err := d.Read(ctx, entity, id); err != nil {
		return err
	}
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: ptr(tableName),
		Key: map[string]types.AttributeValue{
			"entity": &types.AttributeValueMemberS{Value: entity},
			"id":     &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return apperr.DatabaseError(err)
	}
	return nil
}

func (d *dynamoAdapter) List(ctx context.Context, entity string, opts adapter.ListOptions) (adapter.ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}

	out, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              ptr(tableName),
		KeyConditionExpression: ptr("entity = :entity"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":entity": &types.AttributeValueMemberS{Value: entity},
		},
	})
	if err != nil {
		return adapter.ListResult{}, apperr.DatabaseError(err)
	}

	var items []adapter.Document
	for _, rawItem := range out.Items {
		doc, err := decodeItem(rawItem)
		if err != nil {
			return adapter.ListResult{}, err
		}
		items = append(items, doc)
	}

	total := len(items)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return adapter.ListResult{Items: items[start:end], Total: total}, nil
}

// BeginTransaction is unsupported by this adapter's own contract even though
// DynamoDB offers TransactWriteItems: a cross-request, incrementally-built
// transaction scope would require holding item state client-side across
// several handler calls, which this package deliberately keeps stateless.
func (d *dynamoAdapter) BeginTransaction(ctx context.Context) (adapter.Transaction, error) {
	return nil, apperr.CapabilityNotSupported("transactions")
}

func (d *dynamoAdapter) Capabilities() map[adapter.Capability]bool {
	return map[adapter.Capability]bool{adapter.CapabilityTransactions: false}
}

func (d *dynamoAdapter) Close() error { return nil }

func decodeItem(item map[string]types.AttributeValue) (adapter.Document, error) {
	dataAttr, ok := item["data"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, apperr.Internal(fmt.Errorf("dynamodbadapter: item missing string \"data\" attribute"))
	}
	var doc adapter.Document
	if err := json.Unmarshal([]byte(dataAttr.Value), &doc); err != nil {
		return nil, apperr.Internal(err)
	}
	return doc, nil
}
