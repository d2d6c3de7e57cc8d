// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package adapter

// These tag constants mirror connurl's canonical adapter tags. Kept here
// too (rather than importing connurl from the daemon wiring code) so
// cmd/dbal's registration list reads as plain adapter names without a
// second import just for string constants.
const (
	TagSQLite      = "sqlite"
	TagPostgres    = "postgres"
	TagMySQL       = "mysql"
	TagMongoDB     = "mongodb"
	TagRedis       = "redis"
	TagElastic     = "elasticsearch"
	TagCassandra   = "cassandra"
	TagSurrealDB   = "surrealdb"
	TagSupabase    = "supabase"
	TagPrisma      = "prisma"
	TagDynamoDB    = "dynamodb"
	TagCockroachDB = "cockroachdb"
	TagTiDB        = "tidb"
)
