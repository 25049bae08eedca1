package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Kind identifies one of the upstream resource categories the cache knows about.
type Kind string

const (
	KindUserOverview   Kind = "user-overview"
	KindWorkersList    Kind = "workers-list"
	KindWorkerDetails  Kind = "worker-details"
	KindWorkerHashrate Kind = "worker-hashrate"
	KindUserRewards    Kind = "user-rewards"
	KindPoolStats      Kind = "pool-stats"
	KindNetworkStats   Kind = "network-stats"
)

// Kinds returns every resource kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindUserOverview,
		KindWorkersList,
		KindWorkerDetails,
		KindWorkerHashrate,
		KindUserRewards,
		KindPoolStats,
		KindNetworkStats,
	}
}

const (
	keyPrefix        = "braiins"
	keyDelimiter     = ":"
	maxKeyLength     = 256
	maxIdentifierLen = 64
	paramHashLen     = 16
)

var (
	invalidIdentChars = regexp.MustCompile(`[^a-z0-9_-]`)
	underscoreRuns    = regexp.MustCompile(`_+`)
)

// BuildKey derives the cache key for (kind, identifier, params). The identifier
// and params segments are optional; params are hashed so that insertion order
// never changes the resulting key.
func BuildKey(kind Kind, identifier string, params map[string]interface{}) string {
	parts := []string{keyPrefix, string(kind)}
	if identifier != "" {
		parts = append(parts, SanitizeIdentifier(identifier))
	}
	if len(params) > 0 {
		parts = append(parts, hashParams(params))
	}

	key := strings.Join(parts, keyDelimiter)
	if len(key) > maxKeyLength {
		// Collapse the whole over-long key into a digest, keeping prefix and
		// kind so the key stays attributable.
		sum := sha256.Sum256([]byte(key))
		key = strings.Join([]string{keyPrefix, string(kind), hex.EncodeToString(sum[:])}, keyDelimiter)
	}
	return key
}

// SanitizeIdentifier normalizes a caller-supplied identifier into the character
// set allowed inside a cache key. The result is stable under repeated
// application.
func SanitizeIdentifier(id string) string {
	s := strings.ToLower(id)
	s = invalidIdentChars.ReplaceAllString(s, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	if len(s) > maxIdentifierLen {
		s = s[:maxIdentifierLen]
	}
	return s
}

// hashParams serializes params with lexicographically sorted keys and returns
// the first 16 hex characters of the SHA-256 digest.
func hashParams(params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kj, _ := json.Marshal(k)
		b.Write(kj)
		b.WriteByte(':')
		vj, err := json.Marshal(params[k])
		if err != nil {
			// Unserializable values still need a deterministic representation.
			vj = []byte(fmt.Sprintf("%q", fmt.Sprintf("%v", params[k])))
		}
		b.Write(vj)
	}
	b.WriteByte('}')

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:paramHashLen]
}

// ParsedKey is the positional decomposition of a cache key.
type ParsedKey struct {
	Prefix     string
	Kind       string
	Identifier string
	Hash       string
}

// ParseKey splits a key on the delimiter positionally. It is lenient: missing
// segments are left empty and no error is ever returned.
func ParseKey(key string) ParsedKey {
	parts := strings.SplitN(key, keyDelimiter, 4)
	var p ParsedKey
	if len(parts) > 0 {
		p.Prefix = parts[0]
	}
	if len(parts) > 1 {
		p.Kind = parts[1]
	}
	if len(parts) > 2 {
		p.Identifier = parts[2]
	}
	if len(parts) > 3 {
		p.Hash = parts[3]
	}
	return p
}
