// Package matching implements the tiered fuzzy-match rules that link unlinked
// source records to canonical people. The rules are fixed, explainable
// heuristics: every produced confidence is traceable to the signals recorded
// in its evidence document. Matching never writes links, only candidates.
package matching

import (
	"math"
	"sort"

	"github.com/feralworks/trapper-engine/pkg/normalize"
)

// Thresholds holds the tier boundaries and scoring weights. Kept as data
// rather than inline literals so tests can exercise boundary values directly.
type Thresholds struct {
	// Tier lower bounds on confidence.
	Tier0 float64
	Tier1 float64
	Tier2 float64

	// Floor is the hard minimum confidence; anything below is discarded.
	Floor float64

	// MaxCandidates caps how many candidates one source record may produce.
	MaxCandidates int

	// MinNameLength skips source records whose display name is shorter.
	MinNameLength int

	// NameSimilarityMin is the minimum name similarity for tier 1 and 2.
	NameSimilarityMin float64

	// MinPhoneDigits is the minimum normalized-phone length for an exact
	// phone match to count.
	MinPhoneDigits int
}

// DefaultThresholds are the production tier boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Tier0:             0.95,
		Tier1:             0.80,
		Tier2:             0.50,
		Floor:             0.40,
		MaxCandidates:     5,
		MinNameLength:     2,
		NameSimilarityMin: 0.70,
		MinPhoneDigits:    10,
	}
}

// Tier buckets a confidence value. Pure function of confidence and the
// configured boundaries; tier 3 is below the review-worthy range.
func (t Thresholds) Tier(confidence float64) int {
	switch {
	case confidence >= t.Tier0:
		return 0
	case confidence >= t.Tier1:
		return 1
	case confidence >= t.Tier2:
		return 2
	default:
		return 3
	}
}

// Subject is the source-record side of a comparison.
type Subject struct {
	DisplayName     string
	Email           string
	Phone           string
	PhoneNormalized string
	AddressDisplay  string
}

// Person is the canonical side of a comparison.
type Person struct {
	PersonID        string
	DisplayName     string
	Email           string
	Phone           string
	PhoneNormalized string
	AddressDisplay  string
}

// Evidence records which signals fired for a match. Persisted as the
// structured evidence document on the candidate row.
type Evidence struct {
	MatchedOn      []string `json:"matched_on"`
	PhoneMatch     bool     `json:"phone_match"`
	EmailMatch     bool     `json:"email_match"`
	NameSimilarity float64  `json:"name_similarity"`
	Tier           int      `json:"tier"`
	SourceName     string   `json:"source_name"`
	SourceEmail    string   `json:"source_email,omitempty"`
	SourcePhone    string   `json:"source_phone,omitempty"`
}

// Match is a scored pairing of a subject with one canonical person.
type Match struct {
	PersonID   string
	Confidence float64
	Evidence   Evidence
}

// Score compares a subject against one canonical person. Returns nil when no
// signal fired or the confidence falls below the floor.
//
// Tier 0: exact normalized phone (>= MinPhoneDigits digits) -> 1.0, or exact
// case-insensitive email -> 0.98. Signals stack as max, never sum.
// Tier 1: name similarity >= NameSimilarityMin plus matching phone area code
// or same normalized address -> 0.85 + similarity*0.10.
// Tier 2: name similarity alone -> 0.50 + similarity*0.30.
func Score(t Thresholds, subject Subject, person Person) *Match {
	var matchedOn []string
	confidence := 0.0

	if subject.PhoneNormalized != "" && subject.PhoneNormalized == person.PhoneNormalized &&
		len(subject.PhoneNormalized) >= t.MinPhoneDigits {
		matchedOn = append(matchedOn, "phone_normalized")
		confidence = math.Max(confidence, 1.0)
	}

	if subject.Email != "" && person.Email != "" &&
		normalize.Email(subject.Email) == normalize.Email(person.Email) {
		matchedOn = append(matchedOn, "email")
		confidence = math.Max(confidence, 0.98)
	}

	var nameSim float64
	if nameLen(subject.DisplayName) >= t.MinNameLength && nameLen(person.DisplayName) >= t.MinNameLength {
		nameSim = NameSimilarity(subject.DisplayName, person.DisplayName)
	}

	if nameSim >= t.NameSimilarityMin {
		matchedOn = append(matchedOn, "name_fuzzy")
		switch {
		case sameAreaCode(subject.PhoneNormalized, person.PhoneNormalized):
			matchedOn = append(matchedOn, "area_code")
			confidence = math.Max(confidence, 0.85+nameSim*0.10)
		case sameAddress(subject.AddressDisplay, person.AddressDisplay):
			matchedOn = append(matchedOn, "address")
			confidence = math.Max(confidence, 0.85+nameSim*0.10)
		default:
			confidence = math.Max(confidence, 0.50+nameSim*0.30)
		}
	}

	if len(matchedOn) == 0 || confidence < t.Floor {
		return nil
	}

	return &Match{
		PersonID:   person.PersonID,
		Confidence: round3(confidence),
		Evidence: Evidence{
			MatchedOn:      matchedOn,
			PhoneMatch:     contains(matchedOn, "phone_normalized"),
			EmailMatch:     contains(matchedOn, "email"),
			NameSimilarity: round3(nameSim),
			Tier:           t.Tier(confidence),
			SourceName:     subject.DisplayName,
			SourceEmail:    subject.Email,
			SourcePhone:    subject.Phone,
		},
	}
}

// Candidates scores a subject against every canonical person and returns the
// qualifying matches sorted by confidence descending, capped at MaxCandidates.
func Candidates(t Thresholds, subject Subject, people []Person) []Match {
	var out []Match
	for _, p := range people {
		if m := Score(t, subject, p); m != nil {
			out = append(out, *m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	if len(out) > t.MaxCandidates {
		out = out[:t.MaxCandidates]
	}
	return out
}

// NameSimilarity is normalized-string edit distance scaled to [0,1]:
// 1 - distance/max(len). Returns 0 when either name is empty.
func NameSimilarity(a, b string) float64 {
	na := normalize.Name(a)
	nb := normalize.Name(b)
	if na == "" || nb == "" {
		return 0
	}
	maxLen := len([]rune(na))
	if l := len([]rune(nb)); l > maxLen {
		maxLen = l
	}
	d := levenshtein(na, nb)
	sim := 1.0 - float64(d)/float64(maxLen)
	if sim < 0 {
		return 0
	}
	return sim
}

// levenshtein is the classic two-row dynamic program over runes.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i, c1 := range ra {
		curr[0] = i + 1
		for j, c2 := range rb {
			cost := 0
			if c1 != c2 {
				cost = 1
			}
			curr[j+1] = minInt(prev[j+1]+1, curr[j]+1, prev[j]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func nameLen(s string) int {
	return len([]rune(normalize.Name(s)))
}

func sameAreaCode(a, b string) bool {
	return len(a) >= 3 && len(b) >= 3 && a[:3] == b[:3]
}

func sameAddress(a, b string) bool {
	na := normalize.Text(a)
	return na != "" && na == normalize.Text(b)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func minInt(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
