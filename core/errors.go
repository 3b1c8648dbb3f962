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


package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput indicates a document or job description with no text.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnreadableDocument indicates text could not be extracted.
	ErrUnreadableDocument = errors.New("unreadable document")

	// ErrEmbeddingService indicates the embedding backend failed.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrCompletionService indicates the completion backend failed.
	ErrCompletionService = errors.New("completion service error")

	// ErrScoring indicates model output could not be parsed into a result.
	ErrScoring = errors.New("scoring failed")

	// ErrContextOverflow indicates the job description alone does not fit
	// the token budget.
	ErrContextOverflow = errors.New("job description exceeds token budget")

	// ErrNoChunks indicates retrieval was asked to work on an empty chunk set.
	ErrNoChunks = errors.New("no chunks")

	// ErrInvalidTopK indicates a non-positive top-k.
	ErrInvalidTopK = errors.New("top-k must be positive")

	// ErrDimensionMismatch indicates vectors of differing length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidPooling indicates an unknown pooling strategy name.
	ErrInvalidPooling = errors.New("invalid pooling strategy")

	// ErrDuplicateDocument indicates two documents in one batch share an ID.
	ErrDuplicateDocument = errors.New("duplicate document id")

	// ErrProfileExtraction indicates model output could not be read as a
	// structured profile.
	ErrProfileExtraction = errors.New("profile extraction failed")

	// ErrInvalidScore indicates a score outside [0,100].
	ErrInvalidScore = errors.New("score out of range")
)

// ScoringError is returned when model output could not be parsed after
// every attempt. Raw holds the last completion for diagnostics.
type ScoringError struct {
	Raw      string
	Attempts int
	Err      error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("%s after %d attempt(s): %v", ErrScoring, e.Attempts, e.Err)
}

func (e *ScoringError) Unwrap() []error {
	return []error{ErrScoring, e.Err}
}

// Stage names the pipeline step where a document failed.
type Stage string

const (
	StageExtract  Stage = "extract"
	StageChunk    Stage = "chunk"
	StageEmbed    Stage = "embed"
	StageRetrieve Stage = "retrieve"
	StageScore    Stage = "score"
	StageCache    Stage = "cache"
)

// DocumentError scopes a failure to a single document.
type DocumentError struct {
	DocumentID string
	Stage      Stage
	Err        error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %q: %s: %v", e.DocumentID, e.Stage, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err came from an external service and may
// succeed if the same request is made again.
func IsTransient(err error) bool {
	return errors.Is(err, ErrEmbeddingService) || errors.Is(err, ErrCompletionService)
}
