// Package validate provides input validation for API path and body parameters.
// Every check runs before a subprocess or network call is made.
package validate

import (
	"regexp"
	"strings"
)

// K8s name regex: DNS subdomain (RFC 1123) — lowercase alphanumeric, '-' or '.', max 253.
var k8sNameRe = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?(\.[a-z0-9]([-a-z0-9]*[a-z0-9])?)*$`)

// DNS label for subdomains: single label, no dots, 1–63 chars.
var dnsLabelRe = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// Name validates a Kubernetes resource or release name: valid DNS subdomain.
func Name(name string) bool {
	if name == "" || len(name) > 253 {
		return false
	}
	return k8sNameRe.MatchString(name)
}

// Namespace validates a namespace name shape (prefix check is separate).
func Namespace(ns string) bool {
	if ns == "" || len(ns) > 63 {
		return false
	}
	return dnsLabelRe.MatchString(ns)
}

// WorkspaceNamespace reports whether ns is a valid namespace carrying the
// configured workspace prefix.
func WorkspaceNamespace(ns, prefix string) bool {
	return Namespace(ns) && strings.HasPrefix(ns, prefix)
}

// Subdomain validates a single DNS label used for tunnel hostnames.
func Subdomain(s string) bool {
	if s == "" || len(s) > 63 {
		return false
	}
	return dnsLabelRe.MatchString(strings.ToLower(s))
}
