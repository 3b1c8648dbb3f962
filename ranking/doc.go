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


// Package ranking orchestrates matching résumés against a job description.
//
// A Pipeline runs each document through chunking, embedding, retrieval and
// scoring, with both embeddings and final results served from caches when
// possible. WithProfiles adds structured résumé and job profiles to the
// scoring prompt. Rank fans documents out over a bounded worker pool and returns
// the successes ordered by score alongside a per-document failure map. One
// bad document never fails the batch.
//
// # Usage
//
//	pipeline, err := ranking.NewPipeline(provider, embeddings, results,
//	    ranking.WithPoolSize(4),
//	    ranking.WithTopK(5),
//	    ranking.WithPooling(core.PoolingWeighted),
//	)
//	if err != nil {
//	    return err
//	}
//	defer pipeline.Release()
//
//	batch, err := pipeline.Rank(ctx, docs, core.NewJobDescription(jdText))
package ranking
