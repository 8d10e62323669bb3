// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess

import (
	"code.hybscloud.com/kont"
)

// Exec runs a Cont-world session protocol on an open endpoint.
// Each turn is awaited in the kernel, bounded by Config.Timeout.
// The first failing effect aborts the protocol and is returned.
func Exec[R any](ep *Endpoint, protocol kont.Eff[R]) (R, error) {
	return unwrap(ExecError[R](ep, protocol))
}

// ExecExpr runs an Expr-world session protocol on an open endpoint.
// Each turn is awaited in the kernel, bounded by Config.Timeout.
func ExecExpr[R any](ep *Endpoint, protocol kont.Expr[R]) (R, error) {
	return unwrap(ExecErrorExpr[R](ep, protocol))
}

func unwrap[R any](e kont.Either[error, R]) (R, error) {
	if err, ok := e.GetLeft(); ok {
		var zero R
		return zero, err
	}
	r, _ := e.GetRight()
	return r, nil
}
