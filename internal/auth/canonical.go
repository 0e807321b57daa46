package auth

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// CanonicalID normalizes an identifier so that representations coming from
// different layers (JSON numbers, strings, UUID text) compare equal.
// It is the only id normalizer used for ownership decisions.
func CanonicalID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return canonicalString(id)
	case json.Number:
		return canonicalString(id.String())
	case int:
		return strconv.FormatInt(int64(id), 10)
	case int32:
		return strconv.FormatInt(int64(id), 10)
	case int64:
		return strconv.FormatInt(id, 10)
	case uint:
		return strconv.FormatUint(uint64(id), 10)
	case uint32:
		return strconv.FormatUint(uint64(id), 10)
	case uint64:
		return strconv.FormatUint(id, 10)
	case float64:
		return canonicalFloat(id)
	case float32:
		return canonicalFloat(float64(id))
	case uuid.UUID:
		return id.String()
	case fmt.Stringer:
		return canonicalString(id.String())
	default:
		return canonicalString(fmt.Sprint(id))
	}
}

// SameID reports whether two identifiers are equal after canonicalization.
// Empty identifiers never match.
func SameID(a, b any) bool {
	ca := CanonicalID(a)
	return ca != "" && ca == CanonicalID(b)
}

func canonicalString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if u, err := uuid.Parse(s); err == nil {
		return u.String()
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && isIntegral(f) {
		return canonicalFloat(f)
	}
	return s
}

func canonicalFloat(f float64) string {
	if isIntegral(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func isIntegral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f) && math.Abs(f) < 1<<53
}
