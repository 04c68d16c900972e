package sink

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hasher fingerprints an event from a fixed, ordered list of its fields.
type Hasher struct {
	algorithm string
	fields    []string
}

func NewHasher(algorithm string, fields []string) *Hasher {
	f := make([]string, len(fields))
	copy(f, fields)
	return &Hasher{algorithm: strings.ToLower(algorithm), fields: f}
}

// ComputeHash hashes the values of the configured fields joined by "|".
// Unknown fields hash as empty strings.
func (h *Hasher) ComputeHash(values map[string]string) (string, error) {
	if len(h.fields) == 0 {
		return "", fmt.Errorf("no fields specified for hashing")
	}

	var builder strings.Builder
	for _, field := range h.fields {
		builder.WriteString(values[field])
		builder.WriteByte('|')
	}
	input := []byte(builder.String())

	switch h.algorithm {
	case "md5":
		sum := md5.Sum(input)
		return hex.EncodeToString(sum[:]), nil
	case "sha1":
		sum := sha1.Sum(input)
		return hex.EncodeToString(sum[:]), nil
	default:
		sum := sha256.Sum256(input)
		return hex.EncodeToString(sum[:]), nil
	}
}
