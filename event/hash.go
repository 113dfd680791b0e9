package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ContentHash generates a deterministic hash for an event name and its
// property bag. encoding/json serializes map keys in sorted order, so two
// bags with equal contents hash identically regardless of insertion order.
func ContentHash(name string, properties Properties) string {
	serialized, err := json.Marshal(properties)
	if err != nil {
		// Property bags that cannot be serialized (channels, funcs) fall back
		// to a name-only hash rather than failing the pipeline.
		serialized = nil
	}

	hash := sha256.Sum256(fmt.Appendf(nil, "%s|%s", name, serialized))
	return hex.EncodeToString(hash[:])
}
