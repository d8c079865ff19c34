package permkit

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// configHashLength is the number of hex characters kept from the digest.
const configHashLength = 16

// ConfigHash computes the content digest stamped on system-managed roles:
// a truncated sha256 over the sorted permission and visibility lists.
// Reordering the inputs never changes the result, so a definition that only
// shuffles its lists is not treated as drift.
func ConfigHash(permissions, visibleFor []string) string {
	perms := append([]string(nil), permissions...)
	sort.Strings(perms)
	vis := append([]string(nil), visibleFor...)
	sort.Strings(vis)

	h := sha256.New()
	for _, p := range perms {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	// List separator so {"a"},{} and {},{"a"} never collide.
	h.Write([]byte{1})
	for _, v := range vis {
		h.Write([]byte(v))
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))[:configHashLength]
}
