// Package contenthash computes short deterministic digests over entity
// content for tamper and drift detection.
package contenthash

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"regexp"
	"strings"
)

// Algorithm names a supported digest algorithm.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	SHA1   Algorithm = "sha1"
	MD5    Algorithm = "md5"
)

// DefaultLength is the number of hex characters kept from the digest.
const DefaultLength = 8

// ErrUnsupportedAlgorithm is returned for unknown algorithm names.
var ErrUnsupportedAlgorithm = fmt.Errorf("unsupported hash algorithm")

var spaceRun = regexp.MustCompile(`[ \t]+`)

// Hasher computes truncated digests with a fixed algorithm and length.
type Hasher struct {
	algorithm Algorithm
	length    int
}

// New creates a Hasher. A zero length selects DefaultLength.
func New(algorithm Algorithm, length int) (*Hasher, error) {
	switch algorithm {
	case SHA256, SHA1, MD5:
	case "":
		algorithm = SHA256
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	if length <= 0 {
		length = DefaultLength
	}
	return &Hasher{algorithm: algorithm, length: length}, nil
}

func (h *Hasher) digest() hash.Hash {
	switch h.algorithm {
	case SHA1:
		return sha1.New()
	case MD5:
		return md5.New()
	default:
		return sha256.New()
	}
}

// Hash digests the concatenation of the given assertion texts after
// trimming trailing blank lines from each. Internal whitespace and
// formatting are preserved, so this mode round-trips document edits that
// only append trailing blank lines.
func (h *Hasher) Hash(assertions []string) string {
	parts := make([]string, len(assertions))
	for i, a := range assertions {
		parts[i] = trimTrailingBlank(a)
	}
	return h.sum(strings.Join(parts, "\n"))
}

// HashNormalized digests fully normalized content: line endings unified,
// embedded newlines collapsed to spaces, space runs collapsed to one,
// each assertion trimmed, assertions joined by a single newline. The
// result is invariant to incidental reformatting but sensitive to
// wording, capitalization, and assertion order.
func (h *Hasher) HashNormalized(assertions []string) string {
	parts := make([]string, len(assertions))
	for i, a := range assertions {
		parts[i] = Normalize(a)
	}
	return h.sum(strings.Join(parts, "\n"))
}

// Verify reports whether content hashes to expected under full
// normalization. The comparison is case-insensitive on the hash string.
func (h *Hasher) Verify(assertions []string, expected string) bool {
	return strings.EqualFold(h.HashNormalized(assertions), strings.TrimSpace(expected))
}

func (h *Hasher) sum(content string) string {
	d := h.digest()
	d.Write([]byte(content))
	hexed := hex.EncodeToString(d.Sum(nil))
	if h.length < len(hexed) {
		return hexed[:h.length]
	}
	return hexed
}

// Normalize applies the full normalization used by HashNormalized to a
// single assertion text.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\n", " ")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// trimTrailingBlank drops trailing blank lines (and trailing whitespace on
// the final line) without touching internal formatting.
func trimTrailingBlank(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimRight(s, " \t\n")
}
