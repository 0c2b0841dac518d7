// Package models defines server-side data models persisted in the database.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is the canonical identifier of users and file nodes. It holds the
// textual form of the store's UUID; conversion to and from SQL happens
// only inside the repositories.
type ID string

// RootID is the parent sentinel for top-level nodes.
const RootID ID = "0"

// IsRoot reports whether id denotes the top of the hierarchy. An empty id
// is treated as root so that omitted parents default to it.
func (id ID) IsRoot() bool {
	return id == "" || id == RootID
}

func (id ID) String() string {
	return string(id)
}

// UnmarshalJSON accepts both JSON strings and numbers, so clients may send
// the root sentinel as 0 or "0".
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid id %s", b)
	}
	*id = ID(n.String())
	return nil
}
