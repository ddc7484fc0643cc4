// Copyright 2025 Scribelab
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package storage defines the vector store abstraction and shared
// helpers for its backend implementations.
//
// A VectorStore persists chunks together with their embedding vectors.
// Implementations exist for Postgres/pgvector, SQL Server,
// Elasticsearch, Redis, Qdrant and Badger, plus a dry-run store that
// prints instead of writing. All of them are interchangeable behind
// the interface; the backend is selected by configuration at startup.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all
// public backend constructors:
//
//	store, err := pgvector.New(cfg)  // returns storage.VectorStore
//
// This design decision prioritizes:
//   - Abstraction: prevents accidental coupling to one backend's client
//   - Swappability: DB_TYPE switches backends without code changes
//   - Testing: consumers substitute the dry-run or Badger store freely
//
// Internal constructors may return concrete types since they are only
// used within the implementation package.
//
// # Write Semantics
//
// Records are keyed by the deterministic chunk id, so re-running the
// same sources overwrites records instead of duplicating them. Every
// backend's WriteBatch is an upsert.
//
// # Thread Safety
//
// A VectorStore is used by a single writer goroutine per run.
// Implementations are not required to support concurrent WriteBatch
// calls.
package storage
