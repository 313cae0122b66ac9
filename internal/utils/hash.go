package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// HashString computes a SHA-256 digest over the given string and returns it
// hex-encoded. Used for cheap content change detection in the version
// ledger: two payloads with the same hash are treated as identical.
func HashString(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// HashPayload computes a canonical SHA-256 digest over an opaque entity
// payload. Map keys are serialized in sorted order so that two maps with
// equal contents always hash identically regardless of insertion order.
func HashPayload(payload map[string]any) string {
	if len(payload) == 0 {
		return HashString("")
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		value, err := json.Marshal(payload[k])
		if err != nil {
			// non-serializable values degrade to their fmt representation
			value = []byte(fmt.Sprintf("%v", payload[k]))
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.Write(value)
		b.WriteByte(';')
	}

	return HashString(b.String())
}
