package errutil

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/xeptore/flaw/v8"
	"gopkg.in/yaml.v3"
)

func HTTPResponseFlawPayload(res *http.Response) flaw.P {
	headers := make(flaw.P, len(res.Header))
	for k, v := range res.Header {
		headers[k] = v
	}
	return flaw.P{
		"status":         res.Status,
		"status_code":    res.StatusCode,
		"content_length": res.ContentLength,
		"proto":          res.Proto,
		"headers":        headers,
	}
}

func IsFlaw(err error) bool {
	if flawErr := new(flaw.Flaw); errors.As(err, &flawErr) {
		return true
	}
	return false
}

type flawReport struct {
	Summary      string        `yaml:"summary"`
	Inner        string        `yaml:"inner"`
	Records      []flawRecord  `yaml:"records"`
	JoinedErrors []joinedError `yaml:"joined_errors"`
	StackTrace   []stackTrace  `yaml:"stack_trace"`
}

type flawRecord struct {
	Function string         `yaml:"function"`
	Payload  map[string]any `yaml:"payload"`
}

type joinedError struct {
	Message          string      `yaml:"message"`
	CallerStackTrace *stackTrace `yaml:"caller_stack_trace,omitempty"`
}

type stackTrace struct {
	File     string `yaml:"file"`
	Line     int    `yaml:"line"`
	Function string `yaml:"function"`
}

// FlawToYAML renders the flaw found in err's chain as a YAML report.
func FlawToYAML(err error) ([]byte, error) {
	f := new(flaw.Flaw)
	if !errors.As(err, &f) {
		return nil, fmt.Errorf("expected a flaw in error chain, got %T: %v", err, err)
	}

	report := flawReport{
		Summary:      err.Error(),
		Inner:        f.Inner,
		Records:      make([]flawRecord, len(f.Records)),
		JoinedErrors: make([]joinedError, len(f.JoinedErrors)),
		StackTrace:   make([]stackTrace, len(f.StackTrace)),
	}
	for i, v := range f.Records {
		report.Records[i] = flawRecord{Function: v.Function, Payload: v.Payload}
	}
	for i, v := range f.JoinedErrors {
		report.JoinedErrors[i] = joinedError{Message: v.Message, CallerStackTrace: nil}
		if st := v.CallerStackTrace; nil != st {
			report.JoinedErrors[i].CallerStackTrace = &stackTrace{File: st.File, Line: st.Line, Function: st.Function}
		}
	}
	for i, v := range f.StackTrace {
		report.StackTrace[i] = stackTrace{File: v.File, Line: v.Line, Function: v.Function}
	}

	var buf bytes.Buffer
	if err := yaml.NewEncoder(&buf).Encode(report); nil != err {
		return nil, fmt.Errorf("failed to encode flaw to yaml: %v", err)
	}
	return buf.Bytes(), nil
}
