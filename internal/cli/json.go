package cli

import (
	stderrors "errors"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/dockman-dev/dockman/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Machine mode flag - when true, outputs JSON and suppresses human-friendly decorations
var machineMode bool

// MachineMode returns true if machine-readable output is enabled
func MachineMode() bool {
	return machineMode
}

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All --json output should use this envelope.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Cause      string `json:"cause,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ErrCodeUnknown marks errors that carry no dockman code.
const ErrCodeUnknown = "UNKNOWN"

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: true, Data: data})
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: false, Error: ErrorToJSON(err)})
}

// writeJSONEnvelope writes the envelope with consistent formatting.
func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// writeJSONLine writes v as one compact line, for streaming output.
func writeJSONLine(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}

// ErrorToJSON converts a Go error to a JSONError. Structured errors keep
// their code (CONNECTION, FETCH, MUTATE, TIMEOUT, CONFIG, EXEC).
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	var dmErr *errors.Error
	if stderrors.As(err, &dmErr) {
		out := &JSONError{
			Code:       dmErr.Code,
			Message:    dmErr.Message,
			Suggestion: dmErr.Suggestion,
		}
		if dmErr.Cause != nil {
			out.Cause = dmErr.Cause.Error()
		}
		return out
	}

	return &JSONError{
		Code:    ErrCodeUnknown,
		Message: err.Error(),
	}
}
