package wifiscan

import (
	"context"
	"errors"
	"fmt"
)

// RadioErrorCode is what gets printed as 0x%x on the console.
type RadioErrorCode uint32

const (
	CodeSuccess      RadioErrorCode = 0x0
	CodeFailure      RadioErrorCode = 0x1
	CodeTimeout      RadioErrorCode = 0x2
	CodeNotSupported RadioErrorCode = 0x3
	CodeBusy         RadioErrorCode = 0x4
)

func (c RadioErrorCode) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeFailure:
		return "failure"
	case CodeTimeout:
		return "timeout"
	case CodeNotSupported:
		return "not supported"
	case CodeBusy:
		return "busy"
	default:
		return fmt.Sprintf("code 0x%x", uint32(c))
	}
}

type RadioOp string

const (
	OpPowerOn RadioOp = "power on"
	OpScan    RadioOp = "scan"
)

// RadioError carries the radio specific code alongside whatever caused it.
type RadioError struct {
	Op   RadioOp
	Code RadioErrorCode
	Err  error
}

func NewRadioError(op RadioOp, code RadioErrorCode, err error) *RadioError {
	return &RadioError{Op: op, Code: code, Err: err}
}

func (e *RadioError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("wifi %s returned error: 0x%x", e.Op, uint32(e.Code))
	}
	return fmt.Sprintf("wifi %s returned error: 0x%x: %v", e.Op, uint32(e.Code), e.Err)
}

func (e *RadioError) Unwrap() error {
	return e.Err
}

// CodeOf pulls a RadioErrorCode out of err. Deadlines read as timeouts and
// anything unrecognised as a generic failure.
func CodeOf(err error) RadioErrorCode {
	if err == nil {
		return CodeSuccess
	}

	var re *RadioError
	if errors.As(err, &re) {
		return re.Code
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}

	return CodeFailure
}

func IsPowerOnError(err error) bool {
	var re *RadioError
	return errors.As(err, &re) && re.Op == OpPowerOn
}

func IsScanError(err error) bool {
	var re *RadioError
	return errors.As(err, &re) && re.Op == OpScan
}
