package permkit

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultPatternCacheSize is the default bound for the compiled-pattern cache.
const DefaultPatternCacheSize = 100

// PermissionMatcher handles permission matching with wildcard support.
//
// Supported patterns:
//   - "*" matches all permissions
//   - "resource.*" matches all actions on a resource (e.g., "posts.*" matches "posts.read")
//   - "*.action" matches an action on all resources (e.g., "*.read" matches "posts.read")
//   - "a.*.c" matches any single segment in that position
//   - "exact.match" matches exactly
//
// Matching is positional and anchored: "users.*" never matches "usersx.read",
// and a pattern with explicit segments only matches permissions with the same
// segment count. The one exception is the trailing-wildcard form "prefix.*",
// which covers every permission under the prefix regardless of depth.
//
// Compiled patterns are cached in a bounded LRU keyed by the pattern string, so
// many distinct custom permission strings cannot grow memory without bound.
// Insertion races are harmless: the same pattern always compiles to the same
// program, so the loser of a race only duplicates work.
type PermissionMatcher struct {
	compiled *lru.Cache[string, *regexp.Regexp]
}

// NewPermissionMatcher creates a PermissionMatcher with the default cache size.
func NewPermissionMatcher() *PermissionMatcher {
	return NewPermissionMatcherWithCacheSize(DefaultPatternCacheSize)
}

// NewPermissionMatcherWithCacheSize creates a PermissionMatcher whose
// compiled-pattern cache holds at most size entries.
func NewPermissionMatcherWithCacheSize(size int) *PermissionMatcher {
	if size < 1 {
		size = 1
	}
	cache, _ := lru.New[string, *regexp.Regexp](size)
	return &PermissionMatcher{compiled: cache}
}

// HasPermission checks if a set of granted permission strings satisfies a
// required permission.
//
// Examples:
//
//	HasPermission([]string{"*"}, "posts.delete")     // true
//	HasPermission([]string{"posts.*"}, "posts.read") // true
//	HasPermission([]string{"posts.*"}, "users.read") // false
//	HasPermission([]string{"*.read"}, "posts.read")  // true
//	HasPermission(nil, "posts.read")                 // false
func (pm *PermissionMatcher) HasPermission(granted []string, required string) bool {
	if len(granted) == 0 {
		return false
	}

	// Literal hits first, no compilation needed.
	for _, g := range granted {
		if g == "*" || g == required {
			return true
		}
	}

	for _, g := range granted {
		if !strings.Contains(g, "*") {
			continue
		}
		if pm.Match(g, required) {
			return true
		}
	}

	return false
}

// Match checks if a single permission pattern matches a required permission.
//
// Examples:
//
//	Match("*", "posts.read")          // true - wildcard matches all
//	Match("posts.*", "posts.read")    // true - resource wildcard
//	Match("posts.*", "posts.a.b")     // true - trailing wildcard covers subtrees
//	Match("*.read", "posts.read")     // true - action wildcard
//	Match("posts.read", "posts.read") // true - exact match
//	Match("posts.*", "users.read")    // false - different resource
//	Match("users.*", "usersx.read")   // false - segment boundary respected
func (pm *PermissionMatcher) Match(pattern, permission string) bool {
	if pattern == permission {
		return true
	}
	if pattern == "*" {
		return true
	}

	// Fast path: wildcard is exactly the final segment. This is a plain
	// prefix match on "prefix." and covers arbitrarily deep permissions.
	if prefix, ok := trailingWildcardPrefix(pattern); ok {
		return strings.HasPrefix(permission, prefix)
	}

	if !strings.Contains(pattern, "*") {
		return false
	}

	re := pm.pattern(pattern)
	if re == nil {
		return false
	}
	return re.MatchString(permission)
}

// MatchAny checks if any of the patterns match the required permission.
func (pm *PermissionMatcher) MatchAny(patterns []string, permission string) bool {
	for _, pattern := range patterns {
		if pm.Match(pattern, permission) {
			return true
		}
	}
	return false
}

// trailingWildcardPrefix reports whether pattern has the shape "prefix.*"
// with no other wildcard segments, returning "prefix." when it does.
func trailingWildcardPrefix(pattern string) (string, bool) {
	if !strings.HasSuffix(pattern, ".*") {
		return "", false
	}
	prefix := pattern[:len(pattern)-1] // keep the trailing dot
	if strings.Contains(prefix, "*") {
		return "", false
	}
	return prefix, true
}

// pattern returns the compiled positional pattern for a wildcard entry,
// consulting the bounded cache first.
func (pm *PermissionMatcher) pattern(pattern string) *regexp.Regexp {
	if re, ok := pm.compiled.Get(pattern); ok {
		return re
	}

	parts := strings.Split(pattern, ".")
	quoted := make([]string, len(parts))
	for i, part := range parts {
		if part == "*" {
			quoted[i] = `[^.]+`
		} else {
			quoted[i] = regexp.QuoteMeta(part)
		}
	}

	re, err := regexp.Compile(`^` + strings.Join(quoted, `\.`) + `$`)
	if err != nil {
		return nil
	}

	pm.compiled.Add(pattern, re)
	return re
}

// CacheLen returns the number of compiled patterns currently cached.
func (pm *PermissionMatcher) CacheLen() int {
	return pm.compiled.Len()
}

// ClearCache drops all compiled patterns. Mainly useful in tests.
func (pm *PermissionMatcher) ClearCache() {
	pm.compiled.Purge()
}

// Validate checks if a permission string is valid.
// A valid permission is either "*" or a dot-separated string of identifiers.
func (pm *PermissionMatcher) Validate(permission string) error {
	if permission == "" {
		return NewError(ErrInvalidPermission, "permission cannot be empty")
	}

	if permission == "*" {
		return nil
	}

	parts := strings.Split(permission, ".")
	if len(parts) < 2 {
		return NewError(ErrInvalidPermission, "permission must have at least two parts (resource.action)")
	}

	for _, part := range parts {
		if part == "" {
			return NewError(ErrInvalidPermission, "permission parts cannot be empty")
		}
		// Allow * as a part
		if part == "*" {
			continue
		}
		// Check for valid identifier characters (alphanumeric, underscore, dash)
		for _, c := range part {
			if !isValidPermissionChar(c) {
				return NewError(ErrInvalidPermission, "permission contains invalid character")
			}
		}
	}

	return nil
}

func isValidPermissionChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_' || c == '-'
}

// DefaultMatcher is the default permission matcher instance.
var DefaultMatcher = NewPermissionMatcher()

// HasPermission is a convenience function using the default matcher.
func HasPermission(granted []string, required string) bool {
	return DefaultMatcher.HasPermission(granted, required)
}

// MatchPermission is a convenience function using the default matcher.
func MatchPermission(pattern, permission string) bool {
	return DefaultMatcher.Match(pattern, permission)
}

// MatchAnyPermission is a convenience function using the default matcher.
func MatchAnyPermission(patterns []string, permission string) bool {
	return DefaultMatcher.MatchAny(patterns, permission)
}
