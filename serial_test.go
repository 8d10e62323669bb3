// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess_test

import (
	"testing"

	"code.hybscloud.com/shmsess"
)

func TestSerialMonotonic(t *testing.T) {
	cfg := testConfig(t)
	var prev shmsess.Serial
	for i := range 4 {
		role := shmsess.RoleRequester
		if i%2 == 1 {
			role = shmsess.RoleResponder
		}
		ep := open(t, cfg, role)
		if s := ep.Serial(); s <= prev {
			t.Fatalf("serial %v after %v", s, prev)
		}
		prev = ep.Serial()
	}
}

func TestSerialString(t *testing.T) {
	if got := shmsess.Serial(7).String(); got != "ep7" {
		t.Fatalf("got %q, want %q", got, "ep7")
	}
}
