package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

const (
	GlobalKeyPrefix = "quizcorpus"

	searchService = "search"
	corpusService = "corpus"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// CorpusGenerationKey holds a counter bumped whenever the corpus is rewritten.
func CorpusGenerationKey() string {
	return GenerateCacheKey(corpusService, "state", "generation")
}

// SearchResultKey identifies cached results for a normalized tag list under a corpus generation.
func SearchResultKey(generation int64, tagsLower []string) string {
	sum := sha256.Sum256([]byte(strings.Join(tagsLower, "\x00")))
	return GenerateCacheKey(searchService, "results", hex.EncodeToString(sum[:]), "g"+strconv.FormatInt(generation, 10))
}
