// Copyright 2026 The RateDesk Authors
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

// Package id generates identifiers for persisted records. UUIDv7 keeps
// identifiers time-ordered so index pages stay mostly append-only.
package id

import "github.com/google/uuid"

// NewUUIDv7 returns a new time-ordered UUID. It falls back to a random
// UUIDv4 in the unlikely case the system clock source fails.
func NewUUIDv7() string {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return u.String()
}

// Parse validates that s is a well-formed UUID and returns it.
func Parse(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
