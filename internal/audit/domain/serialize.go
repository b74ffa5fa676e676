package domain

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// Serialize renders a field value the way it is stored on audit entries.
// Structured values marshal to deterministic JSON so before/after diffs are
// stable across runs.
func Serialize(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case decimal.Decimal:
		return t.String()
	case []int64:
		return SerializeIDs(t)
	case map[int64]int:
		return SerializeCounts(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// SerializeIDs renders an id list as a JSON array in stored order.
func SerializeIDs(ids []int64) string {
	if ids == nil {
		ids = []int64{}
	}
	b, _ := json.Marshal(ids)
	return string(b)
}

// SerializeCounts renders a metal-count map as a JSON object with keys in
// ascending numeric order.
func SerializeCounts(counts map[int64]int) string {
	keys := make([]int64, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	buf := []byte{'{'}
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, strconv.FormatInt(k, 10))
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(counts[k]), 10)
	}
	buf = append(buf, '}')
	return string(buf)
}
