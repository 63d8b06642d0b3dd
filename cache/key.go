package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Params is the key material for one logical request: parameter name to
// primitive value. Supported value types are string, Fold, bool, all
// integer kinds, float32 and float64. Anything else fails encoding with
// ErrInvalidKeyMaterial.
//
// Every parameter participates in the key. Page numbers and cursor tokens
// are deliberately not special-cased: under-keying paginated lookups would
// let one page answer for another.
type Params map[string]any

// Fold is a string parameter that is case-insensitive for key purposes,
// such as a record identifier ("PMC123" and "pmc123" name the same record).
// Free-text search terms must stay plain strings — they are never folded.
type Fold string

// maxInlineParams caps the length of the parameter segment kept readable in
// the key. Longer canonical forms are replaced by a 128-bit digest; the
// operation and class prefixes stay readable either way.
const maxInlineParams = 160

// encodeKey builds the canonical key for a logical request:
//
//	v{namespace}:{operation}:{class}:{params}:s{schema}
//
// Two requests that are semantically identical (same operation, same
// parameters in any insertion order, same class, same versions) always
// produce the same key, and any difference in any field produces a
// different key. Separator characters inside operation names and parameter
// values are percent-escaped so the segments cannot bleed into one another.
func encodeKey(namespace int64, schema int, op string, params Params, class DataClass) (string, error) {
	canonical, err := canonicalParams(params)
	if err != nil {
		return "", errors.Wrapf(err, "operation %q", op)
	}
	if len(canonical) > maxInlineParams {
		sum := sha256.Sum256([]byte(canonical))
		canonical = "#" + hex.EncodeToString(sum[:16])
	}
	return fmt.Sprintf("v%d:%s:%s:%s:s%d", namespace, escapeKeyPart(op), class, canonical, schema), nil
}

// namespacePrefix is the key prefix shared by every key in a namespace
// generation, used for bulk deletion after a namespace bump.
func namespacePrefix(namespace int64) string {
	return fmt.Sprintf("v%d:", namespace)
}

// canonicalParams renders params as sorted, escaped k=v pairs joined by
// commas. The empty parameter set renders as "-", which no non-empty set
// can produce since pairs always contain an (unescaped) "=".
func canonicalParams(params Params) (string, error) {
	if len(params) == 0 {
		return "-", nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		val, err := canonicalValue(params[k])
		if err != nil {
			return "", errors.Wrapf(err, "parameter %q", k)
		}
		sb.WriteString(escapeKeyPart(k))
		sb.WriteByte('=')
		sb.WriteString(escapeKeyPart(val))
	}
	return sb.String(), nil
}

// canonicalValue converts a primitive parameter value to its single textual
// form. Floats use the shortest round-trip representation so 1.50 and 1.5
// cannot encode differently; Fold strings are lowercased.
func canonicalValue(v any) (string, error) {
	switch t := v.(type) {
	case Fold:
		return strings.ToLower(string(t)), nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.FormatInt(int64(t), 10), nil
	case int8:
		return strconv.FormatInt(int64(t), 10), nil
	case int16:
		return strconv.FormatInt(int64(t), 10), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	}
	return "", errors.Wrapf(ErrInvalidKeyMaterial, "unsupported type %T", v)
}

const keyReserved = "%:,=#"

// escapeKeyPart percent-escapes the characters the key format uses as
// structure, keeping the encoding injective.
func escapeKeyPart(s string) string {
	if !strings.ContainsAny(s, keyReserved) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 6)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(keyReserved, c) >= 0 {
			fmt.Fprintf(&sb, "%%%02X", c)
		} else {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
