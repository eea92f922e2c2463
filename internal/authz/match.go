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

import "strings"

// Matches reports whether a granted permission string covers a requested one.
//
// A grant matches exactly, or as a prefix when it ends in '*' (the category
// wildcard form, e.g. "rates:*" covers "rates:create"). A '*' anywhere other
// than the final character is an ordinary character and only matches itself.
// The bare grant "*" covers everything.
//
// Matches is pure and total: any pair of strings, including empty ones, is a
// valid input.
func Matches(granted, requested string) bool {
	if granted == requested {
		return true
	}
	if strings.HasSuffix(granted, "*") {
		return strings.HasPrefix(requested, granted[:len(granted)-1])
	}
	return false
}
