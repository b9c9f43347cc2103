package llm

import "testing"

func TestParseJSONResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string // value of "k", empty means parse failure expected
	}{
		{"plain object", `{"k": "v"}`, "v"},
		{"fenced", "```json\n{\"k\": \"v\"}\n```", "v"},
		{"fenced no lang", "```\n{\"k\": \"v\"}\n```", "v"},
		{"leading prose", `Here is the result: {"k": "v"} hope that helps`, "v"},
		{"not json", "no object here", ""},
		{"empty", "", ""},
		{"unbalanced", `{"k": `, ""},
	}

	for _, tt := range tests {
		got := ParseJSONResponse(tt.in)
		if tt.want == "" {
			if got != nil {
				t.Errorf("%s: expected nil, got %v", tt.name, got)
			}
			continue
		}
		if got == nil {
			t.Errorf("%s: expected object, got nil", tt.name)
			continue
		}
		if got["k"] != tt.want {
			t.Errorf("%s: got %v, want %q", tt.name, got["k"], tt.want)
		}
	}
}

func TestAPIErrorTruncatesBody(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	err := &APIError{StatusCode: 500, Body: string(long)}
	if len(err.Error()) > 250 {
		t.Errorf("error text should be bounded, got %d chars", len(err.Error()))
	}
}
