package behavior

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Fingerprint computes a stable digest of actionName and params, used by the
// repeated_action detector (spec.md §4.6). Keys are sorted before encoding so
// identical params content produces identical output regardless of map
// iteration order (spec.md §8 "canonical-params fingerprint" round-trip).
// ~48 bits of collision resistance is sufficient per spec, so only the first
// 12 hex characters of the SHA-256 digest are kept.
func Fingerprint(actionName string, params map[string]any) string {
	h := sha256.New()
	h.Write([]byte(actionName))
	h.Write([]byte{0})
	writeCanonical(h, params)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:12]
}

func writeCanonical(h interface{ Write([]byte) (int, error) }, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		h.Write([]byte{'{'})
		for _, k := range keys {
			h.Write([]byte(k))
			h.Write([]byte{':'})
			writeCanonical(h, val[k])
			h.Write([]byte{','})
		}
		h.Write([]byte{'}'})
	case []any:
		h.Write([]byte{'['})
		for _, item := range val {
			writeCanonical(h, item)
			h.Write([]byte{','})
		}
		h.Write([]byte{']'})
	default:
		h.Write([]byte(fmt.Sprintf("%v", val)))
	}
}
