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

package storage

import "errors"

var (
	// ErrProvision indicates the backing schema could not be created
	// or inspected.
	ErrProvision = errors.New("provision failed")

	// ErrDimensionMismatch indicates an existing schema was provisioned
	// for a different vector width than the current model produces.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrWrite indicates a batch write failed.
	ErrWrite = errors.New("write failed")

	// ErrNotProvisioned indicates WriteBatch was called before Provision.
	ErrNotProvisioned = errors.New("store not provisioned")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)
