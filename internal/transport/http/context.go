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

package http

import (
	"context"

	"github.com/ratedesk/ratedesk/internal/authz"
)

type contextKey string

const principalKey contextKey = "principal"

// GetPrincipal retrieves the authenticated user snapshot from context.
// The second return value is false on unauthenticated requests.
func GetPrincipal(ctx context.Context) (authz.User, bool) {
	val, ok := ctx.Value(principalKey).(authz.User)
	return val, ok
}

// WithPrincipal returns a context carrying the authenticated user snapshot.
func WithPrincipal(ctx context.Context, user authz.User) context.Context {
	return context.WithValue(ctx, principalKey, user)
}
