package output

import (
	"encoding/json"
	"io"
	"math"
	"unicode/utf8"

	"github.com/yndnr/respkv/internal/resp"
)

// JSONFormatter formats replies as JSON.
type JSONFormatter struct{}

// Format formats f as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, fr resp.Frame) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(JSONValue(fr))
}

// JSONValue maps a frame to a value encoding/json can marshal: nulls
// become nil, errors become {"error": msg}, bulk strings become strings
// (or byte arrays when not valid UTF-8), and non-finite doubles become
// their RESP text.
func JSONValue(f resp.Frame) any {
	switch v := f.(type) {
	case resp.SimpleString:
		return string(v)
	case resp.SimpleError:
		return map[string]string{"error": string(v)}
	case resp.Integer:
		return int64(v)
	case resp.BulkString:
		if utf8.Valid(v) {
			return string(v)
		}
		out := make([]int, len(v))
		for i, c := range v {
			out[i] = int(c)
		}
		return out
	case resp.Boolean:
		return bool(v)
	case resp.Double:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return resp.FormatDouble(float64(v))
		}
		return float64(v)
	case resp.Array:
		return jsonList(v)
	case resp.Set:
		return jsonList(v)
	case resp.Map:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = JSONValue(e)
		}
		return out
	default:
		return nil
	}
}

func jsonList(items []resp.Frame) []any {
	out := make([]any, len(items))
	for i, e := range items {
		out[i] = JSONValue(e)
	}
	return out
}
