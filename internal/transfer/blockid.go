package transfer

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// NewBlockIDs generates n block identifiers. The service requires every
// block ID within a blob to be base64 and of equal length, so each ID
// is the base64 encoding of a fresh UUID's 16 raw bytes (24 characters).
func NewBlockIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		u := uuid.New()
		ids[i] = base64.StdEncoding.EncodeToString(u[:])
	}

	return ids
}
