package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/feralworks/trapper-engine/pkg/normalize"
)

// Person is the organization's authoritative record of a human. Created by
// the upsert engine the first time a source record maps to a new person key;
// never deleted, never automatically merged.
type Person struct {
	ID              uuid.UUID
	PersonKey       string
	FirstName       *string
	LastName        *string
	Email           *string
	Phone           *string
	PhoneNormalized *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DisplayName joins the name parts for matching and review screens.
func (p *Person) DisplayName() string {
	var first, last string
	if p.FirstName != nil {
		first = *p.FirstName
	}
	if p.LastName != nil {
		last = *p.LastName
	}
	return normalize.Whitespace(first + " " + last)
}

// PersonKeyFor derives the person business key: email wins, then normalized
// phone, then normalized full name. Returns "" when no key can be derived,
// which callers treat as "no person on this row".
func PersonKeyFor(first, last, email, phone string) string {
	if e := normalize.Email(email); e != "" {
		return "email:" + e
	}
	if p := normalize.Phone(phone); p != "" {
		return "phone:" + p
	}
	if n := normalize.Text(first + " " + last); n != "" {
		return "name:" + n
	}
	return ""
}

// Address is a physical location keyed by its normalized text.
type Address struct {
	ID               uuid.UUID
	AddressKey       string
	RawAddress       string
	FormattedAddress *string
	Latitude         *float64
	Longitude        *float64
	CreatedAt        time.Time
}

// AddressKeyFor derives the address business key.
func AddressKeyFor(rawAddr string) string {
	return "addr:" + normalize.Text(rawAddr)
}

// Place is a named site (colony, clinic drop point) optionally tied to an
// address. Distinct places can share one address.
type Place struct {
	ID          uuid.UUID
	PlaceKey    string
	DisplayName string
	AddressID   *uuid.UUID
	CreatedAt   time.Time
}

// PlaceKeyFor derives the place business key from an optional place name and
// the raw address it sits at.
func PlaceKeyFor(placeName, rawAddr string) string {
	baseKey := "addr:unknown"
	if rawAddr != "" {
		baseKey = AddressKeyFor(rawAddr)
	}
	if name := normalize.Text(placeName); name != "" {
		return "place:" + name + "|" + baseKey
	}
	return "place:" + baseKey
}
