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

package authz

import "errors"

// Domain errors
//
// Configuration errors (duplicates, unknown codes, cycles) are raised at
// registration time so the decision path never sees them. Request-time
// denials are ordinary Decision values, never errors; the only errors a
// decision call can return are ErrEntityNotFound and ErrUnknownAction.
var (
	ErrDuplicatePermission = errors.New("permission already registered")
	ErrDuplicateRole       = errors.New("role already registered")
	ErrInvalidPermission   = errors.New("invalid permission name")
	ErrUnknownPermission   = errors.New("permission not registered")
	ErrUnknownRole         = errors.New("role not registered")
	ErrCyclicHierarchy     = errors.New("role hierarchy edge would create a cycle")
	ErrEntityNotFound      = errors.New("entity not found")
	ErrUnknownAction       = errors.New("no permissions configured for action")
)
