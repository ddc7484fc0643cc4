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

// Package ai abstracts the embedding service behind a small interface.
//
// The Embedder interface is the only contract the rest of the program
// depends on. Two implementations are provided:
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//     (Ollama, LocalAI, vLLM, the OpenAI API itself)
//   - ai/mock: deterministic test double with behavior injection
//
// Public constructors return the ai.Embedder interface to keep callers
// decoupled from the concrete client. The mock constructor returns the
// concrete type so tests can inject behavior and count calls.
//
// Embedding models do not advertise their vector width through the
// OpenAI-compatible API, so Dimension embeds a single probe text at
// startup and measures the result. Storage backends use that width to
// provision their schemas before any chunk is written.
package ai
