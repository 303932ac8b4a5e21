// Package storage provides persistent storage for the scenario engine
// using BoltDB. Entities are stored as JSON documents in per-table
// buckets, with composite keys for join tables and a hash index for
// dataset deduplication. All access goes through a Tx so each engine
// operation is a single atomic transaction.
package storage
