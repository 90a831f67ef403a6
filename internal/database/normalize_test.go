package database

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"diacritics removed", "Jan Novák", "jan novak"},
		{"dashes to spaces", "jan-novak", "jan novak"},
		{"mixed case", "JIŘÍ Dvořák", "jiri dvorak"},
		{"extra whitespace", "  Anna   Marie  ", "anna marie"},
		{"already normalized", "maria cruz", "maria cruz"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFullName(t *testing.T) {
	tests := []struct {
		name     string
		student  Student
		expected string
	}{
		{"with middle initial", Student{FirstName: "Ana", MiddleInitial: "B", LastName: "Cruz"}, "Ana B Cruz"},
		{"without middle initial", Student{FirstName: "Ana", LastName: "Cruz"}, "Ana Cruz"},
		{"blank middle initial", Student{FirstName: "Ana", MiddleInitial: " ", LastName: "Cruz"}, "Ana Cruz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.student.FullName(); got != tt.expected {
				t.Errorf("FullName() = %q, want %q", got, tt.expected)
			}
		})
	}
}
