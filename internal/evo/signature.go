package evo

import (
	"crypto/sha1"
	"encoding/hex"

	"heredity/internal/heredity"
)

// Fingerprint is a short stable digest of the genome signature.
func Fingerprint(genome heredity.Genome) string {
	digest := sha1.Sum([]byte(genome.Signature()))
	return hex.EncodeToString(digest[:8])
}
