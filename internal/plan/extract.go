package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	jsonFence     = regexp.MustCompile("(?is)```json(.*?)```")
	leadingFence  = regexp.MustCompile("^```\\s*")
	trailingFence = regexp.MustCompile("```$")
)

// ExtractionError reports model text that holds no usable breakdown.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract breakdown: %s: %v", e.Reason, e.Err)
	}
	return "extract breakdown: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Payload locates the serialized breakdown inside raw model text. A fenced
// json block wins; otherwise generic fence markers around the whole text
// are stripped.
func Payload(raw string) string {
	if m := jsonFence.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	s := strings.TrimSpace(raw)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Extract decodes a breakdown from raw model text. Malformed or incomplete
// payloads are rejected whole; nothing is patched or defaulted.
func Extract(raw string) (Result, error) {
	payload := Payload(raw)
	if payload == "" {
		return Result{}, &ExtractionError{Reason: "no payload found"}
	}
	dec := json.NewDecoder(strings.NewReader(payload))
	var w wireResult
	if err := dec.Decode(&w); err != nil {
		return Result{}, &ExtractionError{Reason: "malformed payload", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Result{}, &ExtractionError{Reason: "trailing data after payload"}
	}
	if err := checkShape(w); err != nil {
		return Result{}, &ExtractionError{Reason: "payload shape", Err: err}
	}
	return Result{ProjectAnalysis: *w.ProjectAnalysis, Tasks: w.Tasks}, nil
}

// Marshal serializes a breakdown for the audit trail.
func Marshal(r Result) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return "{}"
	}
	return strings.TrimSpace(buf.String())
}
