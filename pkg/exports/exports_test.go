package exports

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_HeaderAliases(t *testing.T) {
	// "Record ID " carries a trailing space, as the real exports do.
	csv := "Case Number,Record ID ,Case Status\nTNR-001,recAAA,New\n"

	r, err := NewReader(strings.NewReader(csv))
	require.NoError(t, err)

	row, err := r.Next()
	require.NoError(t, err)

	assert.Equal(t, "TNR-001", row.Field("Case Number"))
	assert.Equal(t, "recAAA", row.Field("Record ID"))
	assert.Equal(t, "New", row.Field("Case Status", "Status"))
	assert.Equal(t, "", row.Field("Nonexistent Column"))
}

func TestReader_StripsBOM(t *testing.T) {
	csv := "\uFEFFCase Number\nTNR-001\n"

	r, err := NewReader(strings.NewReader(csv))
	require.NoError(t, err)

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "TNR-001", row.Field("Case Number"))
}

func TestRow_IsBlank(t *testing.T) {
	csv := "A,B\n , \nx,\n"

	r, err := NewReader(strings.NewReader(csv))
	require.NoError(t, err)

	blank, err := r.Next()
	require.NoError(t, err)
	assert.True(t, blank.IsBlank())

	notBlank, err := r.Next()
	require.NoError(t, err)
	assert.False(t, notBlank.IsBlank())
}

func TestReadCaseRows(t *testing.T) {
	csv := strings.Join([]string{
		"Case Number,Record ID,First Name,Last Name,Clean Email,Clean Phone,Case Status,LookupRecordIDPrimaryReq,Priority (Final Shown),Address",
		"TNR-001,recAAA,Jane,Doe,a@x.com,555-123-4567,In Progress,,2 - Medium,123 Main St",
		",,,,,,,,,",
		"TNR-002,recBBB,Bob,Smith,,,Duplicate Request,recAAA,,",
	}, "\n")

	rows, blanks, err := ReadCaseRows(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, blanks)
	require.Len(t, rows, 2)

	assert.Equal(t, "TNR-001", rows[0].CaseNumber)
	assert.Equal(t, "recAAA", rows[0].RecordID)
	assert.Equal(t, "a@x.com", rows[0].Email)
	assert.Equal(t, "In Progress", rows[0].RawStatus)
	assert.Equal(t, "2 - Medium", rows[0].RawPriority)
	assert.Empty(t, rows[0].MergeTargetRecordID)

	assert.Equal(t, "recAAA", rows[1].MergeTargetRecordID)
}

func TestReadAppointmentRows(t *testing.T) {
	csv := strings.Join([]string{
		"Date,Number,Animal Name,Owner First Name,Owner Last Name,Owner Address,Owner Cell Phone,Owner Email",
		"3/15/2026,4412,Patches,Jane,Doe,123 Main St,(555) 123-4567,a@x.com",
		"not-a-date,,Shadow,Bob,Smith,,,",
	}, "\n")

	rows, blanks, err := ReadAppointmentRows(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Zero(t, blanks)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].ApptDate)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *rows[0].ApptDate)
	assert.Equal(t, 4412, rows[0].ApptNumber)
	assert.Equal(t, "Patches", rows[0].AnimalName)

	assert.Nil(t, rows[1].ApptDate)
	assert.Zero(t, rows[1].ApptNumber)
}

func TestParseCoverageWindow(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		start    string
		end      string
		ok       bool
	}{
		{"two dates", "clinic_appts_2026-03-01_2026-04-30__pending.csv", "2026-03-01", "2026-04-30", true},
		{"with to separator", "export_2025-08-01_to_2026-02-28.csv", "2025-08-01", "2026-02-28", true},
		{"one date only", "export_2026-03-01.csv", "", "", false},
		{"no dates", "export.csv", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := ParseCoverageWindow(tt.filename)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.start, start.Format("2006-01-02"))
				assert.Equal(t, tt.end, end.Format("2006-01-02"))
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"us format", "3/15/2026", "2026-03-15"},
		{"iso", "2026-03-15", "2026-03-15"},
		{"day first when month invalid", "25/03/2026", "2026-03-25"},
		{"garbage", "soon", ""},
		{"blank", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.in)
			if tt.expected == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, got.Format("2006-01-02"))
		})
	}
}

func TestParseDateTime(t *testing.T) {
	got := ParseDateTime("1/5/2026 10:30AM")
	require.NotNil(t, got)
	assert.Equal(t, "2026-01-05T10:30", got.Format("2006-01-02T15:04"))

	assert.Nil(t, ParseDateTime("whenever"))
}

func TestParseLeadingInt(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected int
		ok       bool
	}{
		{"plain", "7", 7, true},
		{"range", "0-5", 0, true},
		{"label", "about 12 cats", 12, true},
		{"none", "many", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLeadingInt(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}
