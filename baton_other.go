// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !(linux && (amd64 || arm64))

package shmsess

import "time"

// CreateExclusive is only available on linux/amd64 and linux/arm64.
func CreateExclusive(key Key) (*Baton, bool, error) {
	return nil, false, ErrUnsupported
}

// CreateExclusiveFunc is only available on linux/amd64 and linux/arm64.
func CreateExclusiveFunc(key Key, prepare func() error) (*Baton, bool, error) {
	return nil, false, ErrUnsupported
}

// AttachBaton is only available on linux/amd64 and linux/arm64.
func AttachBaton(key Key) (*Baton, error) {
	return nil, ErrUnsupported
}

func (b *Baton) WaitFor(p Phase, timeout time.Duration) error {
	return ErrUnsupported
}

func (b *Baton) TryWaitFor(p Phase) error {
	return ErrUnsupported
}

func (b *Baton) AdvanceTo(p Phase) error {
	return ErrUnsupported
}

func (b *Baton) Phase() (Phase, bool, error) {
	return 0, false, ErrUnsupported
}

func (b *Baton) Destroy() error {
	return ErrUnsupported
}

// DestroyBaton is only available on linux/amd64 and linux/arm64.
func DestroyBaton(key Key) error {
	return ErrUnsupported
}

// Ftok is only available on linux/amd64 and linux/arm64.
func Ftok(path string, id byte) (Key, error) {
	return 0, ErrUnsupported
}
