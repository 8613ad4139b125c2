package entity

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent returns a stable content hash used to detect when a memory
// item's embedding has drifted out of date.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
