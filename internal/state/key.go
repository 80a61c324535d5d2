package state

import (
	"fmt"
	"strconv"
	"strings"
)

// Key identifies a cached query: a resource name followed by its parameters,
// e.g. Key{"products", 2, Absent, true, ""}.
type Key []any

type absent struct{}

func (absent) String() string { return "_" }

// Absent is the stable placeholder for a parameter that was not supplied.
// Keys always carry every dimension so that two queries differing in one
// filter never collide.
var Absent any = absent{}

// String renders the key canonically; equal keys render identically.
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = part(p)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// HasPrefix reports whether k starts with every element of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if part(k[i]) != part(prefix[i]) {
			return false
		}
	}
	return true
}

func part(p any) string {
	switch v := p.(type) {
	case nil:
		return "null"
	case absent:
		return v.String()
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case fmt.Stringer:
		return strconv.Quote(v.String())
	default:
		return fmt.Sprintf("%v", v)
	}
}
