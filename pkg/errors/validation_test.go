package errors

import (
	"strings"
	"testing"
)

func TestValidateWidgetID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid prefixed", "text-6f1c2a9e-0b7d-4d1e-9b55-0a6c1e2f3d4b", false},
		{"valid underscore", "chart_01", false},
		{"valid digits", "42", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 200), true},
		{"slash", "text/1", true},
		{"path traversal", "..", true},
		{"leading dash", "-text", true},
		{"control char", "text\x01", true},
		{"space", "text 1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWidgetID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWidgetID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidID) {
				t.Errorf("ValidateWidgetID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidID)
			}
		})
	}
}

func TestValidatePageAndDocumentID(t *testing.T) {
	if err := ValidatePageID("page-1"); err != nil {
		t.Errorf("ValidatePageID valid id: %v", err)
	}
	if err := ValidatePageID(""); err == nil {
		t.Error("ValidatePageID should reject empty id")
	}
	if err := ValidateDocumentID("ig_2024"); err != nil {
		t.Errorf("ValidateDocumentID valid id: %v", err)
	}
	if err := ValidateDocumentID("a/b"); err == nil {
		t.Error("ValidateDocumentID should reject slash")
	}
}

func TestValidateRecordPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"document", "infographs/ig1", false},
		{"page", "infographs/ig1/pages/p1", false},
		{"widget", "infographs/ig1/widgets/text-1", false},

		{"empty", "", true},
		{"leading slash", "/infographs/ig1", true},
		{"trailing slash", "infographs/ig1/", true},
		{"traversal", "infographs/../etc", true},
		{"backslash", "infographs\\ig1", true},
		{"empty segment", "infographs//ig1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecordPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRecordPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
