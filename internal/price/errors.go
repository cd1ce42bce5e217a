package price

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ErrInvalidArgument is returned for untracked assets or a non-positive window
var ErrInvalidArgument = errors.New("invalid argument")

// maxPayloadLog bounds how much of an offending body is kept on an error
const maxPayloadLog = 512

// SourceUnavailableError is a transport failure: dial, timeout, non-2xx without a body we can read
type SourceUnavailableError struct {
	Source string
	Asset  string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("%s: source unavailable for %s: %v", e.Source, e.Asset, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// MalformedResponseError means the source answered but the expected price field is missing or invalid
type MalformedResponseError struct {
	Source  string
	Asset   string
	Reason  string
	Payload string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response for %s: %s", e.Source, e.Asset, e.Reason)
}

func unavailable(source, asset string, err error) error {
	return &SourceUnavailableError{Source: source, Asset: asset, Err: err}
}

func malformed(source, asset, reason string, payload []byte) error {
	p := payload
	if len(p) > maxPayloadLog {
		cut := maxPayloadLog
		// never split a multi-byte character
		for cut > 0 && !utf8.RuneStart(p[cut]) {
			cut--
		}
		p = append(p[:cut:cut], "..."...)
	}
	return &MalformedResponseError{Source: source, Asset: asset, Reason: reason, Payload: string(p)}
}

// IsSourceUnavailable reports whether err wraps a SourceUnavailableError
func IsSourceUnavailable(err error) bool {
	var target *SourceUnavailableError
	return errors.As(err, &target)
}

// IsMalformedResponse reports whether err wraps a MalformedResponseError
func IsMalformedResponse(err error) bool {
	var target *MalformedResponseError
	return errors.As(err, &target)
}

// Kind names the error class for logs and metric labels
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsSourceUnavailable(err):
		return "source_unavailable"
	case IsMalformedResponse(err):
		return "malformed_response"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "unknown"
	}
}
