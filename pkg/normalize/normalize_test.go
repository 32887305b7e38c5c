package normalize

import "testing"

func TestWhitespace(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"collapses runs", "a  b\t\tc", "a b c"},
		{"trims edges", "  hello  ", "hello"},
		{"newlines", "line1\nline2", "line1 line2"},
		{"empty", "", ""},
		{"only whitespace", "   \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Whitespace(tt.in); got != tt.expected {
				t.Errorf("Whitespace(%q) = %q, want %q", tt.in, got, tt.expected)
			}
		})
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"lowercases", "Main Street", "main street"},
		{"keeps address chars", "123 Main St #4-B, Apt 1/2", "123 main st #4-b apt 1/2"},
		{"strips punctuation", "O'Brien & Sons!", "obrien sons"},
		{"collapses whitespace", "  42   Elm  ", "42 elm"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.expected {
				t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.expected)
			}
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"formatted", "(555) 123-4567", "5551234567"},
		{"leading country code", "1-555-123-4567", "5551234567"},
		{"plus one", "+15551234567", "5551234567"},
		{"eleven digits not US", "25551234567", "25551234567"},
		{"letters only", "call me", ""},
		{"empty", "", ""},
		{"short number", "411", "411"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Phone(tt.in); got != tt.expected {
				t.Errorf("Phone(%q) = %q, want %q", tt.in, got, tt.expected)
			}
		})
	}
}

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"simple", "In Progress", "in_progress"},
		{"slash", "Complete/Closed", "complete_closed"},
		{"extra punctuation", "  Need to Re-Book!  ", "need_to_re_book"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SnakeCase(tt.in); got != tt.expected {
				t.Errorf("SnakeCase(%q) = %q, want %q", tt.in, got, tt.expected)
			}
		})
	}
}
