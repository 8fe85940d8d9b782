package entities

import (
	"errors"
	"testing"
)

func TestParseAnalysisValid(t *testing.T) {
	text := `{"priority":3,"summary":"Cluttered walkway","description":"Boxes block the egress route","oshaReference":"OSHA 1910.37"}`

	analysis, err := ParseAnalysis(text)
	if err != nil {
		t.Fatalf("valid output should parse, got: %v", err)
	}
	if analysis.Priority != 3 {
		t.Errorf("expected priority 3, got %d", analysis.Priority)
	}
	if analysis.Summary != "Cluttered walkway" {
		t.Errorf("unexpected summary: %s", analysis.Summary)
	}
	if analysis.OSHAReference != "OSHA 1910.37" {
		t.Errorf("unexpected reference: %s", analysis.OSHAReference)
	}
}

func TestParseAnalysisFencedOutput(t *testing.T) {
	text := "Here is the assessment:\n```json\n" +
		`{"priority":5,"summary":"Exposed wiring","description":"Live conductors within reach","oshaReference":"OSHA 1910.303"}` +
		"\n```\nLet me know if you need more."

	analysis, err := ParseAnalysis(text)
	if err != nil {
		t.Fatalf("fenced output should parse, got: %v", err)
	}
	if analysis.Priority != 5 {
		t.Errorf("expected priority 5, got %d", analysis.Priority)
	}
}

func TestParseAnalysisPriorityOutOfRange(t *testing.T) {
	cases := map[string]string{
		"seven": `{"priority":7,"summary":"s","description":"d","oshaReference":"r"}`,
		"zero":  `{"priority":0,"summary":"Invalid image","description":"Not a workplace","oshaReference":"N/A"}`,
		"neg":   `{"priority":-1,"summary":"s","description":"d","oshaReference":"r"}`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAnalysis(text)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("out-of-range priority must be a *ParseError, got: %v", err)
			}
			if parseErr.Raw != text {
				t.Error("parse error should carry the raw output")
			}
		})
	}
}

func TestParseAnalysisNonNumericPriority(t *testing.T) {
	text := `{"priority":"high","summary":"s","description":"d","oshaReference":"r"}`
	_, err := ParseAnalysis(text)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("string priority must be a *ParseError, got: %v", err)
	}
}

func TestParseAnalysisNonJSON(t *testing.T) {
	_, err := ParseAnalysis("I could not analyze this image, sorry.")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("non-JSON output must be a *ParseError, got: %v", err)
	}
}

func TestParseAnalysisMissingField(t *testing.T) {
	text := `{"priority":2,"summary":"s","description":"d"}`
	if _, err := ParseAnalysis(text); err == nil {
		t.Error("missing oshaReference should fail")
	}
}

func TestParseAnalysisListDescription(t *testing.T) {
	text := `{"priority":4,"summary":"Multiple concerns","description":[` +
		`{"concern":"Ladder against live panel","oshaReference":"OSHA 1926.1053"},` +
		`{"concern":"Missing guard rail","oshaReference":"OSHA 1910.29"}` +
		`],"oshaReference":""}`

	analysis, err := ParseAnalysis(text)
	if err != nil {
		t.Fatalf("list description should normalize, got: %v", err)
	}
	if analysis.Description != "Ladder against live panel Missing guard rail" {
		t.Errorf("unexpected joined description: %q", analysis.Description)
	}
	if analysis.OSHAReference != "OSHA 1926.1053; OSHA 1910.29" {
		t.Errorf("unexpected joined references: %q", analysis.OSHAReference)
	}
}

func TestParseAnalysisBracesInsideStrings(t *testing.T) {
	text := `{"priority":2,"summary":"Sign reads {danger}","description":"d","oshaReference":"r"}`
	analysis, err := ParseAnalysis(text)
	if err != nil {
		t.Fatalf("braces inside strings should not break extraction, got: %v", err)
	}
	if analysis.Summary != "Sign reads {danger}" {
		t.Errorf("unexpected summary: %q", analysis.Summary)
	}
}
