// Package redact masks secret material before it reaches logs.
package redact

import (
	"strings"
)

const redactedValue = "***REDACTED***"

// setFlags take a key=value argument whose value may carry credentials.
var setFlags = map[string]bool{
	"--set":        true,
	"--set-string": true,
	"--set-file":   true,
	"--set-json":   true,
}

// CommandLine masks the value half of helm --set style arguments in a
// space-joined command line. Override values routinely carry passwords and
// API tokens, and the command line is logged on every subprocess failure.
func CommandLine(cmd string) string {
	fields := strings.Fields(cmd)
	for i := 0; i < len(fields); i++ {
		if setFlags[fields[i]] && i+1 < len(fields) {
			fields[i+1] = maskAssignment(fields[i+1])
			i++
			continue
		}
		// --set=key=value form
		if flag, rest, ok := strings.Cut(fields[i], "="); ok && setFlags[flag] {
			fields[i] = flag + "=" + maskAssignment(rest)
		}
	}
	return strings.Join(fields, " ")
}

func maskAssignment(arg string) string {
	if key, _, ok := strings.Cut(arg, "="); ok {
		return key + "=" + redactedValue
	}
	return redactedValue
}

// sensitiveKey reports whether a values key looks like credential material.
func sensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, marker := range []string{"password", "secret", "token", "apikey", "api_key", "credential"} {
		if strings.Contains(k, marker) {
			return true
		}
	}
	return false
}

// Values returns a copy of a release values map with credential-looking
// entries masked. Nested maps are walked; everything else passes through.
func Values(values map[string]interface{}) map[string]interface{} {
	if values == nil {
		return nil
	}
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		switch {
		case sensitiveKey(k):
			out[k] = redactedValue
		default:
			if nested, ok := v.(map[string]interface{}); ok {
				out[k] = Values(nested)
			} else {
				out[k] = v
			}
		}
	}
	return out
}
