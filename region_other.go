// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !(linux && (amd64 || arm64))

package shmsess

// CreateOrAttach is only available on linux/amd64 and linux/arm64.
func CreateOrAttach(name string, capacity int) (*Region, error) {
	return nil, ErrUnsupported
}

// Attach is only available on linux/amd64 and linux/arm64.
func Attach(name string, capacity int) (*Region, error) {
	return nil, ErrUnsupported
}

func (r *Region) Map(mode MapMode) (*Buffer, error) {
	return nil, ErrUnsupported
}

func (r *Region) Close() error {
	return nil
}

// Destroy is only available on linux/amd64 and linux/arm64.
func Destroy(name string) error {
	return ErrUnsupported
}

func unmapMemory(mem []byte) error {
	return nil
}
