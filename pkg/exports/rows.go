package exports

import (
	"io"
	"strconv"
	"time"
)

// CaseRow is one normalized case tracker row.
type CaseRow struct {
	CaseNumber string
	RecordID   string

	RawAddress string
	PlaceName  string
	FirstName  string
	LastName   string
	Email      string
	Phone      string

	RawStatus   string
	RawPriority string
	Notes       string
	CaseInfo    string

	// MergeTargetRecordID is the export record ID of the canonical case this
	// row was explicitly marked a duplicate of, when present.
	MergeTargetRecordID string

	Latitude  *float64
	Longitude *float64
}

// ReadCaseRows decodes a case tracker CSV export. Blank rows are counted and
// dropped, not errors.
func ReadCaseRows(r io.Reader) (rows []CaseRow, blanks int, err error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, 0, err
	}

	for {
		row, err := reader.Next()
		if err == io.EOF {
			return rows, blanks, nil
		}
		if err != nil {
			return nil, blanks, err
		}
		if row.IsBlank() {
			blanks++
			continue
		}

		rows = append(rows, CaseRow{
			CaseNumber: row.Field("Case Number", "case_number", "Case #", "CaseNumber"),
			RecordID:   row.Field("Record ID", "record_id", "Airtable Record ID", "source_record_id"),
			RawAddress: row.Field("Address", "Primary Address", "address", "primary_address"),
			PlaceName:  row.Field("Request Place Name", "Place Name", "place_name", "Location Name", "Colony Name"),
			FirstName:  row.Field("First Name", "first_name"),
			LastName:   row.Field("Last Name", "last_name"),
			Email:      row.Field("Clean Email", "Email", "email", "Client Email (LK)"),
			Phone:      row.Field("Clean Phone", "Client Phone (LK)", "Business Phone", "Phone", "phone"),
			RawStatus:  row.Field("Case Status", "Status", "status"),
			MergeTargetRecordID: row.Field(
				"LookupRecordIDPrimaryReq", "Lookup Record ID Primary Req",
				"Primary Request Record ID", "MergedIntoRecordID"),
			RawPriority: row.Field("Priority (Final Shown)", "Priority", "priority", "Intake Priority"),
			Notes:       row.Field("Internal Notes", "Notes", "notes", "internal_notes"),
			CaseInfo:    row.Field("Case Info"),
			Latitude:    parseFloat(row.Field("Latitude", "lat", "latitude")),
			Longitude:   parseFloat(row.Field("Longitude", "lng", "longitude")),
		})
	}
}

// AppointmentRow is one normalized clinic schedule row.
type AppointmentRow struct {
	ApptDate   *time.Time
	ApptNumber int

	AnimalName    string
	OwnershipType string
	ClientType    string

	ClientFirstName string
	ClientLastName  string
	ClientAddress   string
	ClientCellPhone string
	ClientPhone     string
	ClientEmail     string
}

// ReadAppointmentRows decodes a clinic schedule CSV export.
func ReadAppointmentRows(r io.Reader) (rows []AppointmentRow, blanks int, err error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, 0, err
	}

	for {
		row, err := reader.Next()
		if err == io.EOF {
			return rows, blanks, nil
		}
		if err != nil {
			return nil, blanks, err
		}
		if row.IsBlank() {
			blanks++
			continue
		}

		apptNumber := 0
		if n, ok := ParseLeadingInt(row.Field("Number", "Appt Number", "number")); ok {
			apptNumber = n
		}

		rows = append(rows, AppointmentRow{
			ApptDate:        ParseDate(row.Field("Date", "Appt Date", "date")),
			ApptNumber:      apptNumber,
			AnimalName:      row.Field("Animal Name", "animal_name"),
			OwnershipType:   row.Field("Ownership", "ownership"),
			ClientType:      row.Field("ClientType", "Client Type"),
			ClientFirstName: row.Field("Owner First Name", "Client First Name"),
			ClientLastName:  row.Field("Owner Last Name", "Client Last Name"),
			ClientAddress:   row.Field("Owner Address", "Client Address"),
			ClientCellPhone: row.Field("Owner Cell Phone", "Client Cell Phone"),
			ClientPhone:     row.Field("Owner Phone", "Client Phone"),
			ClientEmail:     row.Field("Owner Email", "Client Email"),
		})
	}
}

// SubmissionRow is one normalized intake-form submission row.
type SubmissionRow struct {
	RecordID     string
	SubmittedRaw string
	SubmittedAt  *time.Time

	RequesterName string
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Address       string
	CatCountRaw   string
	Notes         string
}

// ReadSubmissionRows decodes an intake-form CSV export.
func ReadSubmissionRows(r io.Reader) (rows []SubmissionRow, blanks int, err error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, 0, err
	}

	for {
		row, err := reader.Next()
		if err == io.EOF {
			return rows, blanks, nil
		}
		if err != nil {
			return nil, blanks, err
		}
		if row.IsBlank() {
			blanks++
			continue
		}

		submittedRaw := row.Field(
			"New Submitted", "New Submitted / Former Created Date",
			"Former Created Date", "submitted_at")

		rows = append(rows, SubmissionRow{
			RecordID:      row.Field("Record ID", "record_id", "Airtable Record ID"),
			SubmittedRaw:  submittedRaw,
			SubmittedAt:   ParseDateTime(submittedRaw),
			RequesterName: row.Field("Requester Name", "requester_name", "Name"),
			FirstName:     row.Field("First Name", "first_name"),
			LastName:      row.Field("Last Name", "last_name"),
			Email:         row.Field("Email", "email", "Clean Email"),
			Phone:         row.Field("Phone", "phone", "Clean Phone"),
			Address:       row.Field("Cats Address", "Requester Address", "Address", "address"),
			CatCountRaw:   row.Field("Number of Cats", "Cat Count", "cat_count"),
			Notes:         row.Field("Notes", "Internal Notes", "notes"),
		})
	}
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
