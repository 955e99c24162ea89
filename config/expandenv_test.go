package config

import (
	"strings"
	"testing"
)

func TestExpandEnvStrict(t *testing.T) {
	t.Setenv("AIGATE_TEST_HOST", "api.internal")
	t.Setenv("AIGATE_TEST_TOKEN", "s3cret")

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"no variables", "https://api.example.com", "https://api.example.com", false},
		{"braced variable", "https://${AIGATE_TEST_HOST}/ai", "https://api.internal/ai", false},
		{"two variables", "${AIGATE_TEST_HOST}:${AIGATE_TEST_TOKEN}", "api.internal:s3cret", false},
		{"dollar escape", "cost is $$5", "cost is $5", false},
		{"missing variable", "${AIGATE_TEST_MISSING}", "", true},
		{"empty string", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandEnvStrict(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ExpandEnvStrict(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExpandEnvStrict(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ExpandEnvStrict(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExpandEnvStrictListsAllMissing(t *testing.T) {
	_, err := ExpandEnvStrict("${AIGATE_TEST_B_MISSING}/${AIGATE_TEST_A_MISSING}")
	if err == nil {
		t.Fatal("expected error")
	}
	// Missing names are reported sorted for stable messages.
	msg := err.Error()
	a := strings.Index(msg, "AIGATE_TEST_A_MISSING")
	b := strings.Index(msg, "AIGATE_TEST_B_MISSING")
	if a == -1 || b == -1 || a > b {
		t.Errorf("error = %q, want both names in sorted order", msg)
	}
}
