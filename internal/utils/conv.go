// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// ParseInt64Default parses s as a base-10 int64, returning def when s is
// empty or not a valid integer. Surrounding whitespace is not trimmed.
//
//	n := utils.ParseInt64Default("42", 0) // 42
//	n = utils.ParseInt64Default("x", -1)  // -1
func ParseInt64Default(s string, def int64) int64 {
	if s == "" {
		return def
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return def
}
