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


// Package ai defines the collaborator boundaries between docquery and
// external AI services: text embedding, answer generation, and optional
// fine-grained relevance scoring.
//
// The openai subpackage implements these interfaces for OpenAI-compatible
// APIs (Ollama, LocalAI, vLLM, OpenAI itself); the mock subpackage
// provides deterministic test doubles.
//
// GeneratorCache wraps a Generator factory so the expensive backend is
// built once, lazily, and shared by every query in flight. Generation
// failures are surfaced as the typed *GenerationError.
package ai
