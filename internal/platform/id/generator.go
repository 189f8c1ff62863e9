package id

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Generator maps an entity kind plus its upstream identifier to a stable
// internal id. Implementations must be pure: the same inputs yield the same
// id across processes, with no store lookup.
type Generator interface {
	ForEntity(entityType, externalID string) string
}

type DeterministicGenerator struct{}

func NewDeterministicGenerator() *DeterministicGenerator {
	return &DeterministicGenerator{}
}

// ForEntity hashes "{type}:{externalId}" and renders the digest in UUID
// shape with the version nibble forced to 4. Re-imports of the same upstream
// record therefore always resolve to the same row.
func (g *DeterministicGenerator) ForEntity(entityType, externalID string) string {
	sum := md5.Sum([]byte(entityType + ":" + externalID))
	h := hex.EncodeToString(sum[:])
	return fmt.Sprintf("%s-%s-4%s-%s-%s", h[0:8], h[8:12], h[13:16], h[16:20], h[20:32])
}

var (
	nonWordRegex  = regexp.MustCompile(`[^\w\s-]`)
	separatorRuns = regexp.MustCompile(`[\s_-]+`)
	edgeDashes    = regexp.MustCompile(`^-+|-+$`)
)

// Slugify lowercases, strips non-word runes, and collapses separator runs
// into single dashes. Lossy on purpose.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonWordRegex.ReplaceAllString(slug, "")
	slug = separatorRuns.ReplaceAllString(slug, "-")
	return edgeDashes.ReplaceAllString(slug, "")
}

// SuffixSlug disambiguates a colliding slug by appending the upstream id.
// A numeric counter would not be deterministic under concurrent writers;
// the external id is unique by construction.
func SuffixSlug(slug, externalID string) string {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return slug
	}
	if slug == "" {
		return externalID
	}
	return slug + "-" + externalID
}
