package httpserver

import (
	"strings"
	"testing"
)

func TestValidateReportID(t *testing.T) {
	cases := []struct {
		name  string
		id    string
		valid bool
		code  string
	}{
		{"empty", "", false, "REQUIRED"},
		{"too_long", strings.Repeat("a", 65), false, "TOO_LONG"},
		{"not_uuid", "report-123", false, "INVALID_FORMAT"},
		{"valid", "5f0c8a52-3c1e-4f7b-9a51-2b1f6a0d9e44", true, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ValidateReportID(tc.id)
			if res.Valid != tc.valid {
				t.Fatalf("Valid=%v, want %v", res.Valid, tc.valid)
			}
			if !tc.valid {
				if len(res.Errors) != 1 || res.Errors[0].Code != tc.code {
					t.Fatalf("unexpected error: %+v", res.Errors)
				}
			}
		})
	}
}

func Test_allowedExt(t *testing.T) {
	for _, n := range []string{"essay.txt", "ESSAY.TXT", "notes.md"} {
		if !allowedExt(n) {
			t.Fatalf("should allow %s", n)
		}
	}
	for _, n := range []string{"essay.pdf", "essay.docx", "essay", "essay.txt.exe"} {
		if allowedExt(n) {
			t.Fatalf("should reject %s", n)
		}
	}
}

func Test_allowedMIME(t *testing.T) {
	if !allowedMIME("text/plain; charset=utf-8") {
		t.Fatalf("expected to allow text/plain charset")
	}
	if !allowedMIME("text/html") {
		t.Fatalf("expected to allow text/html")
	}
	if allowedMIME("application/pdf") || allowedMIME("application/octet-stream") {
		t.Fatalf("should not allow binary types")
	}
}
