// Package scope derives per-block identifiers so that independently running
// blocks never share element ids, SVG fragment references or resource URLs.
package scope

import (
	"fmt"
	"strings"
)

const (
	// Separator joins block namespace and local id. Local ids must not
	// contain it, otherwise different ids may map to the same scoped id.
	Separator = "::"
	// URLScheme is the private scheme blocks use to reference their own
	// resources.
	URLScheme = "vdom://"
	// ClassPrefix starts every generated wrapper class name.
	ClassPrefix = "vdom-"
)

// ID returns the scoped form of localID within namespace.
//
// ID never fails. Scoping an already scoped id is not detected: ID("b",
// "b::x") is "b::b::x".
func ID(namespace, localID string) string {
	return namespace + Separator + localID
}

// CheckLocalID reports local ids which would break injectivity of ID.
func CheckLocalID(localID string) error {
	if strings.Contains(localID, Separator) {
		return fmt.Errorf("local id %q contains scope separator %q", localID, Separator)
	}
	return nil
}

// Fragment scopes same-document reference ("#id"). Anything else is
// returned as is.
func Fragment(namespace, ref string) string {
	if !strings.HasPrefix(ref, "#") {
		return ref
	}
	return "#" + ID(namespace, ref[1:])
}

// URL rewrites block relative resource reference ("vdom:///path") into
// absolute one ("vdom://namespace/path"). URLs using other schemes are
// returned unchanged. False is returned for vdom URLs with explicit host -
// blocks are not allowed to reference resources of other blocks.
func URL(namespace, raw string) (string, bool) {
	if !IsBlockURL(raw) {
		return raw, true
	}
	rest := raw[len(URLScheme):]
	if !strings.HasPrefix(rest, "/") {
		return raw, false
	}
	return URLScheme + namespace + rest, true
}

// IsBlockURL checks if raw uses private block scheme.
func IsBlockURL(raw string) bool {
	return strings.HasPrefix(raw, URLScheme)
}

// ClassName returns wrapper class for namespace. Every byte outside of
// [A-Za-z0-9-] is hex escaped as "_xx" so the result is a valid CSS
// identifier and different namespaces never share a class.
func ClassName(namespace string) string {
	var sb strings.Builder
	sb.Grow(len(ClassPrefix) + len(namespace))
	sb.WriteString(ClassPrefix)
	for i := 0; i < len(namespace); i++ {
		c := namespace[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '-':
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "_%02x", c)
		}
	}
	return sb.String()
}
