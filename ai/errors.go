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


package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrGeneratorFactoryRequired is returned when a generator cache is
	// created without a factory.
	ErrGeneratorFactoryRequired = errors.New("generator factory required")

	// ErrCacheClosed is returned when a closed generator cache is used.
	ErrCacheClosed = errors.New("generator cache is closed")
)

// GenerationError is the typed failure surfaced when the generation backend
// cannot produce a completion. It terminates a query once the orchestrator's
// bounded retry is exhausted.
type GenerationError struct {
	// Attempts is how many times the call was tried before giving up.
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
