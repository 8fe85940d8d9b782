package entities

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError marks a permanent failure to extract a valid Analysis from model
// output. It carries the raw text for diagnosis and is never retried: the
// same input would reproduce it.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model output: %s", e.Reason)
}

// rawAnalysis mirrors the loose shape models actually return. Priority stays
// a RawMessage so "7" and "high" can be told apart, and description may be a
// plain string or a list of concern/reference pairs.
type rawAnalysis struct {
	Priority      json.RawMessage `json:"priority"`
	Summary       string          `json:"summary"`
	Description   json.RawMessage `json:"description"`
	OSHAReference string          `json:"oshaReference"`
}

type descriptionItem struct {
	Concern       string `json:"concern"`
	OSHAReference string `json:"oshaReference"`
}

// ParseAnalysis turns the model's textual output into a validated Analysis.
// The text may wrap the JSON object in markdown fences or prose; the first
// balanced object found is used. Every failure returns a *ParseError.
func ParseAnalysis(text string) (Analysis, error) {
	body, ok := extractJSONObject(text)
	if !ok {
		return Analysis{}, &ParseError{Reason: "no JSON object in output", Raw: text}
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return Analysis{}, &ParseError{Reason: fmt.Sprintf("malformed JSON: %v", err), Raw: text}
	}

	if len(raw.Priority) == 0 {
		return Analysis{}, &ParseError{Reason: "missing priority", Raw: text}
	}
	var priority int
	if err := json.Unmarshal(raw.Priority, &priority); err != nil {
		return Analysis{}, &ParseError{
			Reason: fmt.Sprintf("priority %s is not an integer", raw.Priority),
			Raw:    text,
		}
	}

	description, oshaRef, err := normalizeDescription(raw.Description, raw.OSHAReference)
	if err != nil {
		return Analysis{}, &ParseError{Reason: err.Error(), Raw: text}
	}

	analysis := Analysis{
		Priority:      priority,
		Summary:       raw.Summary,
		Description:   description,
		OSHAReference: oshaRef,
	}
	if err := analysis.Validate(); err != nil {
		return Analysis{}, &ParseError{Reason: err.Error(), Raw: text}
	}
	return analysis, nil
}

// normalizeDescription flattens a list-valued description (concern plus
// reference per item) into joined strings, matching what the downstream
// message format expects.
func normalizeDescription(raw json.RawMessage, oshaRef string) (string, string, error) {
	if len(raw) == 0 {
		return "", oshaRef, nil
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain, oshaRef, nil
	}

	var items []descriptionItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return "", "", fmt.Errorf("description is neither string nor list: %v", err)
	}

	var concerns, refs []string
	for _, item := range items {
		if item.Concern != "" {
			concerns = append(concerns, item.Concern)
		}
		if item.OSHAReference != "" {
			refs = append(refs, item.OSHAReference)
		}
	}
	description := strings.Join(concerns, " ")
	if len(refs) > 0 {
		oshaRef = strings.Join(refs, "; ")
	}
	return description, oshaRef, nil
}

// extractJSONObject returns the first balanced {...} region of the text,
// ignoring braces inside JSON strings.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
