// Copyright 2025 Poiesic Systems
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


// Package storage defines the persistence contract used by the result and
// embedding caches, together with the binary encoding of cached values.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the storage.BlobStore
// interface so callers are not coupled to BadgerDB:
//
//	store, err := badger.NewBlobStore(path)  // returns storage.BlobStore
//
// # Encoding
//
// Cached values are encoded with MUS (github.com/mus-format/mus-go), a
// compact length-prefixed binary format. Every record starts with a format
// version so incompatible entries are detected and recomputed rather than
// misread.
//
// # Thread Safety
//
// All BlobStore implementations must be safe for concurrent use.
package storage
