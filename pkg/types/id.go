package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is an entity identifier. Upstream services encode ids as JSON numbers
// while the storefront treats them as opaque strings; both forms decode.
type ID string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Int64 returns the numeric form expected by upstream request bodies.
func (id ID) Int64() (int64, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q is not numeric: %w", string(id), err)
	}
	return n, nil
}

func (id ID) String() string {
	return string(id)
}
