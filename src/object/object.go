package object

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/r3labs/diff/v3"
)

// Mapping is an open field-keyed record, the shape every backend payload
// decodes into.
type Mapping = map[string]any

// Merge copies every mapping into a new one. Later arguments win per
// top-level key; nested mappings are not merged.
func Merge(mappings ...Mapping) Mapping {
	merged := make(Mapping)
	for _, m := range mappings {
		for key, value := range m {
			merged[key] = value
		}
	}
	return merged
}

// Extend merges the mappings recursively into a new mapping. When both
// sides hold a mapping under the same key the two are extended together,
// anything else (sequences included) is replaced by the right side.
// Nested mappings in the result are always fresh copies.
func Extend(mappings ...Mapping) Mapping {
	extended := make(Mapping)
	for _, m := range mappings {
		for key, value := range m {
			nested, ok := value.(Mapping)
			if !ok {
				extended[key] = value
				continue
			}
			current, _ := extended[key].(Mapping)
			extended[key] = Extend(current, nested)
		}
	}
	return extended
}

// RemoveEmptyKeys deletes every key holding nil and returns the same
// mapping.
func RemoveEmptyKeys(m Mapping) Mapping {
	for key, value := range m {
		if value == nil {
			delete(m, key)
		}
	}
	return m
}

// ToQueryString encodes the mapping as a percent-encoded query string with
// keys in sorted order. Nil values are dropped, sequences repeat their key
// and nested mappings are sent as JSON.
func ToQueryString(m Mapping) string {
	filtered := RemoveEmptyKeys(Merge(m))
	values := make(url.Values, len(filtered))
	for key, value := range filtered {
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				if item != nil {
					values.Add(key, formatValue(item))
				}
			}
		case []string:
			for _, item := range v {
				values.Add(key, item)
			}
		case []int:
			for _, item := range v {
				values.Add(key, strconv.Itoa(item))
			}
		default:
			values.Set(key, formatValue(v))
		}
	}
	return values.Encode()
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case Mapping:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// FromQueryString decodes a query string into a mapping. A leading '?' or
// '#' is ignored. Repeated keys collect into a sequence and a key without
// '=' maps to nil.
func FromQueryString(str string) Mapping {
	str = strings.TrimLeft(strings.TrimSpace(str), "?#&")
	parsed := make(Mapping)
	if str == "" {
		return parsed
	}

	for _, pair := range strings.Split(str, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, hasValue := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			key = rawKey
		}
		var value any
		if hasValue {
			decoded, err := url.QueryUnescape(rawValue)
			if err != nil {
				decoded = rawValue
			}
			value = decoded
		}

		existing, seen := parsed[key]
		switch {
		case !seen:
			parsed[key] = value
		case value == nil:
		default:
			if list, ok := existing.([]any); ok {
				parsed[key] = append(list, value)
			} else if existing == nil {
				parsed[key] = value
			} else {
				parsed[key] = []any{existing, value}
			}
		}
	}
	return parsed
}

// Keys returns the mapping's keys sorted.
func Keys(m Mapping) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Diff reports the field level changes needed to turn a into b.
func Diff(a, b Mapping) (diff.Changelog, error) {
	changelog, err := diff.Diff(a, b)
	if err != nil {
		return nil, fmt.Errorf("diff mappings: %w", err)
	}
	return changelog, nil
}
