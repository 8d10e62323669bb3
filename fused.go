// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess

import (
	"code.hybscloud.com/kont"
)

// SendThen writes a payload and then continues with next.
// Fuses Perform(Send{Value: v}) + Then.
func SendThen[B any](v string, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Send{Value: v}), next)
}

// RecvBind reads the peer's payload and passes it to f.
// Fuses Perform(Recv{}) + Bind.
func RecvBind[B any](f func(string) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Recv{}), f)
}

// CloseDone finishes the session and returns a.
// Fuses Perform(Close{}) + Then + Pure.
func CloseDone[A any](a A) kont.Eff[A] {
	return kont.Then(kont.Perform(Close{}), kont.Pure(a))
}
