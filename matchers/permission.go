/* Copyright 2026 the marketbot authors
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package matchers

import (
	"github.com/csmkt/marketbot/match"
)

// Permission tests the caller's role and permission grants.  Config
// "operator": has (default), hasAny, hasAll acting on
// user.permissions; role, roleIn acting on user.role.
type Permission struct{}

func (m *Permission) Name() string {
	return "permission"
}

func (m *Permission) Match(c *match.CustomCondition, ctx match.Context) (bool, match.Bindings, error) {
	switch configString(c.Config, "operator", "has") {
	case "has":
		return hasPerm(ctx, c.Value), nil, nil
	case "hasAny":
		for _, want := range asSlice(c.Value) {
			if hasPerm(ctx, want) {
				return true, nil, nil
			}
		}
		return false, nil, nil
	case "hasAll":
		wants := asSlice(c.Value)
		if len(wants) == 0 {
			return false, nil, nil
		}
		for _, want := range wants {
			if !hasPerm(ctx, want) {
				return false, nil, nil
			}
		}
		return true, nil, nil
	case "role":
		role, have := first(ctx, "user.role", "role")
		if !have {
			return false, nil, nil
		}
		return match.Equal(role, c.Value), nil, nil
	case "roleIn":
		role, have := first(ctx, "user.role", "role")
		if !have {
			return false, nil, nil
		}
		return match.Member(asSlice(c.Value), role), nil, nil
	}
	return false, nil, nil
}

func hasPerm(ctx match.Context, want interface{}) bool {
	perms, have := first(ctx, "user.permissions", "permissions")
	if !have {
		return false
	}
	return match.Member(asSlice(perms), want)
}

func asSlice(x interface{}) []interface{} {
	switch vv := x.(type) {
	case []interface{}:
		return vv
	case []string:
		acc := make([]interface{}, len(vv))
		for i, s := range vv {
			acc[i] = s
		}
		return acc
	case nil:
		return nil
	}
	return []interface{}{x}
}
