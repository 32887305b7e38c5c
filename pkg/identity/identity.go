// Package identity derives the two keys every incoming row carries: a stable
// identity used for upsert uniqueness and a content hash used only for change
// detection. The split matters: edits to volatile fields (notes, status) must
// never move a record to a new identity, but must change its content hash.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/feralworks/trapper-engine/pkg/normalize"
)

// HashPrefix marks identities that were derived by digest rather than issued
// by the source system.
const HashPrefix = "hash:"

// digestLen is the number of hex characters kept from the SHA-256 digest.
const digestLen = 32

func digest(parts []string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:digestLen]
}

// ForAppointment returns the stable identity for a clinic appointment row.
// A non-zero appointment number is externally issued and preferred; otherwise
// the identity is a digest over slowly-changing fields only.
func ForAppointment(apptNumber int, apptDate, clientFirst, clientLast, address, animal string) string {
	if apptNumber > 0 {
		return strconv.Itoa(apptNumber)
	}
	clientName := strings.ToLower(normalize.Whitespace(clientFirst) + " " + normalize.Whitespace(clientLast))
	return HashPrefix + digest([]string{
		apptDate,
		clientName,
		strings.ToLower(normalize.Whitespace(address)),
		strings.ToLower(normalize.Whitespace(animal)),
	})
}

// ForSubmission returns the stable identity for a request-form submission.
// The export-assigned record ID wins when present; the digest fallback covers
// only identifying fields that do not drift between re-exports.
func ForSubmission(recordID, submitted, email, phone, address string) string {
	if recordID != "" {
		return recordID
	}
	return HashPrefix + digest([]string{
		strings.TrimSpace(submitted),
		normalize.Email(email),
		normalize.Phone(phone),
		normalize.Text(address),
	})
}

// ContentHash digests every significant content field of a row, in a fixed
// order chosen by the caller. Equal inputs always produce equal hashes; any
// tracked field changing changes the hash. Never use this for uniqueness.
func ContentHash(fields ...string) string {
	return digest(fields)
}
