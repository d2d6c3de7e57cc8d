// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package mongoadapter is the MongoDB backend. Unlike the relational
// adapters it stores each entity as a native collection of documents rather
// than rows in a shared table — mongo's document model maps directly onto
// [adapter.Document] with no translation layer needed.
package mongoadapter

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/internal/platform/dberr"
	"github.com/meridiandb/dbal/pkg/uuidv7"
)

const connectTimeout = 10 * time.Second

type mongoAdapter struct {
	client   *mongo.Client
	database *mongo.Database
}

// New connects to MongoDB and returns an [adapter.Adapter]. The database name
// is taken from the URL path (mongodb://host/dbname); "dbal" is used if
// absent, matching the daemon's own default database convention.
func New(ctx context.Context, cfg adapter.Config) (adapter.Adapter, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.DatabaseURL))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(connectCtx)
		return nil, err
	}

	return &mongoAdapter{client: client, database: client.Database(databaseNameFrom(cfg.DatabaseURL))}, nil
}

func databaseNameFrom(databaseURL string) string {
	rest := strings.TrimPrefix(databaseURL, "mongodb://")
	if idx := strings.Index(rest, "/"); idx >= 0 {
		name := rest[idx+1:]
		if q := strings.Index(name, "?"); q >= 0 {
			name = name[:q]
		}
		if name != "" {
			return name
		}
	}
	return "dbal"
}

func (m *mongoAdapter) collection(entity string) *mongo.Collection {
	return m.database.Collection(entity)
}

func (m *mongoAdapter) Create(ctx context.Context, entity string, doc adapter.Document) (adapter.Document, error) {
	if id, ok := doc["id"].(string); !ok || id == "" {
		doc["id"] = uuidv7.New()
	}
	doc["_id"] = doc["id"]
	now := time.Now().UTC()
	doc["createdAt"] = now
	doc["updatedAt"] = now

	if _, err := m.collection(entity).InsertOne(ctx, doc); err != nil {
		return nil, dberr.Wrap(err)
	}
	return doc, nil
}

func (m *mongoAdapter) Read(ctx context.Context, entity, id string) (adapter.Document, error) {
	var doc adapter.Document
	err := m.collection(entity).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound(entity)
	}
	if err != nil {
		return nil, dberr.Wrap(err)
	}
	return doc, nil
}

func (m *mongoAdapter) Update(ctx context.Context, entity, id string, doc adapter.Document) (adapter.Document, error) {
	doc["updatedAt"] = time.Now().UTC()
	result, err := m.collection(entity).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(doc)})
	if err != nil {
		return nil, dberr.Wrap(err)
	}
	if result.MatchedCount == 0 {
		return nil, apperr.NotFound(entity)
	}
	return m.Read(ctx, entity, id)
}

func (m *mongoAdapter) Remove(ctx context.Context, entity, id string) error {
	result, err := m.collection(entity).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return dberr.Wrap(err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound(entity)
	}
	return nil
}

func (m *mongoAdapter) List(ctx context.Context, entity string, opts adapter.ListOptions) (adapter.ListResult, error) {
	limit := int64(opts.Limit)
	if limit <= 0 {
		limit = 50
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	skip := int64(page-1) * limit

	filter := bson.M{}
	for field, value := range opts.Filters {
		filter[field] = value
	}

	total, err := m.collection(entity).CountDocuments(ctx, filter)
	if err != nil {
		return adapter.ListResult{}, dberr.Wrap(err)
	}

	findOpts := options.Find().SetLimit(limit).SetSkip(skip)
	cursor, err := m.collection(entity).Find(ctx, filter, findOpts)
	if err != nil {
		return adapter.ListResult{}, dberr.Wrap(err)
	}
	defer cursor.Close(ctx)

	items := make([]adapter.Document, 0, limit)
	for cursor.Next(ctx) {
		var doc adapter.Document
		if err := cursor.Decode(&doc); err != nil {
			return adapter.ListResult{}, dberr.Wrap(err)
		}
		items = append(items, doc)
	}

	return adapter.ListResult{Items: items, Total: int(total)}, nil
}

func (m *mongoAdapter) BeginTransaction(ctx context.Context) (adapter.Transaction, error) {
	session, err := m.client.StartSession()
	if err != nil {
		return nil, dberr.Wrap(err)
	}
	if err := session.StartTransaction(); err != nil {
		session.EndSession(ctx)
		return nil, dberr.Wrap(err)
	}
	return &mongoTx{adapter: m, session: session}, nil
}

func (m *mongoAdapter) Capabilities() map[adapter.Capability]bool {
	return map[adapter.Capability]bool{adapter.CapabilityTransactions: true}
}

func (m *mongoAdapter) Close() error {
	return m.client.Disconnect(context.Background())
}

// mongoTx wraps a session-bound sequence of operations. Mongo transactions
// require a replica set; any resulting error is returned to the caller
// rather than silently downgrading to non-transactional writes.
type mongoTx struct {
	adapter *mongoAdapter
	session mongo.Session
}

func (t *mongoTx) Create(ctx context.Context, entity string, doc adapter.Document) (adapter.Document, error) {
	var result adapter.Document
	err := mongo.WithSession(ctx, t.session, func(sessCtx mongo.SessionContext) error {
		created, err := t.adapter.Create(sessCtx, entity, doc)
		result = created
		return err
	})
	return result, dberr.Wrap(err)
}

func (t *mongoTx) Update(ctx context.Context, entity, id string, doc adapter.Document) (adapter.Document, error) {
	var result adapter.Document
	err := mongo.WithSession(ctx, t.session, func(sessCtx mongo.SessionContext) error {
		updated, err := t.adapter.Update(sessCtx, entity, id, doc)
		result = updated
		return err
	})
	return result, dberr.Wrap(err)
}

func (t *mongoTx) Remove(ctx context.Context, entity, id string) error {
	err := mongo.WithSession(ctx, t.session, func(sessCtx mongo.SessionContext) error {
		return t.adapter.Remove(sessCtx, entity, id)
	})
	return dberr.Wrap(err)
}

func (t *mongoTx) Commit(ctx context.Context) error {
	defer t.session.EndSession(ctx)
	return dberr.Wrap(t.session.CommitTransaction(ctx))
}

func (t *mongoTx) Rollback(ctx context.Context) error {
	defer t.session.EndSession(ctx)
	return dberr.Wrap(t.session.AbortTransaction(ctx))
}
