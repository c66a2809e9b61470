// Package valueobject holds small shared value types used across modules.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// ErrScanValueNotBytes indicates the database value is not a byte slice.
var ErrScanValueNotBytes = errors.New("valueobject: jsonmap scan value is not []byte")

// JSONMap stores an arbitrary JSON object, such as the extra provisioning
// claims captured at record creation. Always construct a fresh map per call;
// never reuse one as a shared default.
type JSONMap map[string]any

// Value implements driver.Valuer for JSONMap.
func (j JSONMap) Value() (driver.Value, error) {
	return json.Marshal(j)
}

// Scan implements sql.Scanner for JSONMap.
func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = JSONMap{}
		return nil
	}

	var raw []byte

	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case json.RawMessage:
		raw = []byte(v)
	case map[string]any:
		// Some drivers decode JSON columns into a map already.
		*j = JSONMap(v)
		return nil
	default:
		return ErrScanValueNotBytes
	}

	var result JSONMap
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}

	*j = result
	return nil
}

// Set adds or updates a key-value pair.
func (j JSONMap) Set(key string, value any) {
	j[key] = value
}

// Has checks if a key exists.
func (j JSONMap) Has(key string) bool {
	_, ok := j[key]
	return ok
}

// GetString returns a string value, or "" if missing or the wrong type.
func (j JSONMap) GetString(key string) string {
	if v, ok := j[key].(string); ok {
		return v
	}
	return ""
}

// GetInt returns an int value, or 0 if missing or the wrong type.
// JSON numbers unmarshal as float64, so that case is handled too.
func (j JSONMap) GetInt(key string) int {
	switch v := j[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
