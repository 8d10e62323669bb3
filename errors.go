// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess

import "errors"

// Errors reported by the region, the baton and the endpoints.
// None of them is retried by this package.
var (
	ErrNameConflict      = errors.New("shmsess: name exists with incompatible shape")
	ErrMapFailure        = errors.New("shmsess: cannot map shared region")
	ErrMalformedPayload  = errors.New("shmsess: no terminator within capacity")
	ErrOrphanedWait      = errors.New("shmsess: baton removed while waiting")
	ErrTimeout           = errors.New("shmsess: wait timed out")
	ErrNotFound          = errors.New("shmsess: object not found")
	ErrIllegalTransition = errors.New("shmsess: illegal phase transition")
	ErrReadOnly          = errors.New("shmsess: buffer mapped read-only")
	ErrClosed            = errors.New("shmsess: endpoint closed")
	ErrInvalidConfig     = errors.New("shmsess: invalid config")
	ErrUnsupported       = errors.New("shmsess: unsupported platform")
)

// OpError records a failed system operation on a named object.
// errors.Is matches both Kind and the underlying Err.
type OpError struct {
	Op   string
	Name string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	s := "shmsess: " + e.Op
	if e.Name != "" {
		s += " " + e.Name
	}
	if e.Kind != nil {
		s += ": " + trimPrefix(e.Kind.Error())
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *OpError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func trimPrefix(s string) string {
	const p = "shmsess: "
	if len(s) >= len(p) && s[:len(p)] == p {
		return s[len(p):]
	}
	return s
}
