package dataset

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/hydranet/hydranet/pkg/errdefs"
	"github.com/hydranet/hydranet/pkg/types"
)

// Point is one timeseries sample. V holds the decoded value: a number,
// nested array, object, or plain string when the source token is not
// parseable as JSON.
type Point struct {
	T time.Time   `json:"t"`
	V interface{} `json:"v"`
}

// Encode turns a raw value into its canonical byte payload for the given
// type. The result is uncompressed; compression is a storage concern
// applied afterwards.
//
//	scalar, descriptor  stringified
//	array               JSON
//	timeseries          ordered JSON table of {"t", "v"} rows with
//	                    RFC3339 nanosecond timestamps
//
// Timeseries input is either []Point or a pre-serialized JSON payload
// (string or []byte). String sample values that parse as JSON literals
// are coerced; anything else stays a string.
func Encode(dtype types.DataType, raw interface{}) ([]byte, error) {
	switch dtype {
	case types.DataTypeScalar:
		return encodeScalar(raw)
	case types.DataTypeDescriptor:
		return []byte(stringify(raw)), nil
	case types.DataTypeArray:
		return encodeArray(raw)
	case types.DataTypeTimeseries:
		return encodeTimeseries(raw)
	}
	return nil, fmt.Errorf("unknown data type %q: %w", dtype, errdefs.ErrInvalidDataType)
}

// Decode parses a stored payload back into its natural Go form,
// inflating first when the payload is compressed. Timeseries payloads
// come back as []Point in index order.
func Decode(dtype types.DataType, payload []byte) (interface{}, error) {
	payload = Inflate(payload)

	switch dtype {
	case types.DataTypeScalar:
		v, err := strconv.ParseFloat(string(payload), 64)
		if err != nil {
			return nil, fmt.Errorf("scalar payload %q: %w", payload, errdefs.ErrInvalidDataType)
		}
		return v, nil
	case types.DataTypeDescriptor:
		return string(payload), nil
	case types.DataTypeArray:
		var v []interface{}
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("array payload: %w", errdefs.ErrInvalidDataType)
		}
		return v, nil
	case types.DataTypeTimeseries:
		var pts []Point
		if err := json.Unmarshal(payload, &pts); err != nil {
			return nil, fmt.Errorf("timeseries payload: %w", errdefs.ErrInvalidDataType)
		}
		return pts, nil
	}
	return nil, fmt.Errorf("unknown data type %q: %w", dtype, errdefs.ErrInvalidDataType)
}

func encodeScalar(raw interface{}) ([]byte, error) {
	switch v := raw.(type) {
	case float64:
		return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
	case float32:
		return []byte(strconv.FormatFloat(float64(v), 'g', -1, 64)), nil
	case int:
		return []byte(strconv.Itoa(v)), nil
	case int64:
		return []byte(strconv.FormatInt(v, 10)), nil
	case string:
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("scalar value %q is not numeric: %w", v, errdefs.ErrInvalidDataType)
		}
		return []byte(v), nil
	case []byte:
		return encodeScalar(string(v))
	}
	return nil, fmt.Errorf("scalar value of type %T: %w", raw, errdefs.ErrInvalidDataType)
}

func encodeArray(raw interface{}) ([]byte, error) {
	switch v := raw.(type) {
	case string:
		return validateJSON([]byte(v))
	case []byte:
		return validateJSON(v)
	case json.RawMessage:
		return validateJSON(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("array value: %w", errdefs.ErrInvalidDataType)
		}
		return data, nil
	}
}

func encodeTimeseries(raw interface{}) ([]byte, error) {
	switch v := raw.(type) {
	case []Point:
		return marshalPoints(v)
	case string:
		return validateJSON([]byte(v))
	case []byte:
		return validateJSON(v)
	case json.RawMessage:
		return validateJSON(v)
	}
	return nil, fmt.Errorf("timeseries value of type %T: %w", raw, errdefs.ErrInvalidDataType)
}

// marshalPoints normalizes a sample list: sort by timestamp, coerce
// string values that are JSON literals, serialize with nanosecond
// timestamps.
func marshalPoints(pts []Point) ([]byte, error) {
	sorted := make([]Point, len(pts))
	copy(sorted, pts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].T.Before(sorted[j].T)
	})

	rows := make([]map[string]interface{}, 0, len(sorted))
	for _, p := range sorted {
		rows = append(rows, map[string]interface{}{
			"t": p.T.UTC().Format(time.RFC3339Nano),
			"v": coerceValue(p.V),
		})
	}
	return json.Marshal(rows)
}

// coerceValue parses string tokens that are valid JSON literals into
// their typed form. Unparseable tokens stay strings.
func coerceValue(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	var parsed interface{}
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return s
	}
	return parsed
}

func validateJSON(data []byte) ([]byte, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("payload is not valid JSON: %w", errdefs.ErrInvalidDataType)
	}
	return data, nil
}

// Compress deflates a payload when it exceeds the threshold, otherwise
// returns it untouched. There is no compression marker; readers detect
// compression by attempting to inflate.
func Compress(payload []byte, threshold int) []byte {
	if threshold <= 0 || len(payload) <= threshold {
		return payload
	}
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(payload)
	w.Close()
	return buf.Bytes()
}

// Inflate attempts zlib decompression and falls back to the raw bytes on
// any failure. An inflate error means the payload was stored
// uncompressed; this is the storage contract, not error recovery.
func Inflate(payload []byte) []byte {
	r, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return payload
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return payload
	}
	return out
}

func stringify(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return fmt.Sprintf("%v", raw)
}
