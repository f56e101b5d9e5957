// Package workflowid orders workflow identifiers that are decimal integers stored as text.
package workflowid

import (
	"sort"
	"strings"
)

// Valid reports whether id is a non-empty string of ASCII digits.
func Valid(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}

// Compare returns -1, 0 or 1 comparing a and b by integer value.
// Digits are compared without conversion so identifiers of any length work.
// Identifiers that are not decimal integers sort after every valid one and
// compare lexicographically among themselves.
func Compare(a, b string) int {
	va, vb := Valid(a), Valid(b)
	switch {
	case va && !vb:
		return -1
	case !va && vb:
		return 1
	case !va && !vb:
		return strings.Compare(a, b)
	}

	a = trimZeros(a)
	b = trimZeros(b)
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// Less reports whether a sorts before b in ascending numeric order.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Sort orders ids in place, ascending or descending by integer value.
func Sort(ids []string, descending bool) {
	sort.SliceStable(ids, func(i, j int) bool {
		if descending {
			return Compare(ids[i], ids[j]) > 0
		}
		return Compare(ids[i], ids[j]) < 0
	})
}

func trimZeros(s string) string {
	t := strings.TrimLeft(s, "0")
	if t == "" {
		return "0"
	}
	return t
}
