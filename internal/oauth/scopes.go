package oauth

import "strings"

// ParseScopes splits a space-separated scope string, dropping empties.
func ParseScopes(s string) []string {
	return strings.Fields(s)
}

// JoinScopes renders a scope list back to its wire form.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}

// ScopesSubset reports whether every element of requested is in allowed.
func ScopesSubset(requested, allowed []string) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, s := range allowed {
		set[s] = struct{}{}
	}
	for _, s := range requested {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}

// HasScopes reports whether granted contains every required scope.
func HasScopes(granted string, required []string) bool {
	return ScopesSubset(required, ParseScopes(granted))
}
