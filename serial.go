// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess

import (
	"strconv"

	"code.hybscloud.com/atomix"
)

// Serial numbers the endpoints opened by this process, starting at 1.
// It only orders endpoints within one process; the peer keeps its own.
type Serial uint32

// String returns the serial as "ep<n>".
func (s Serial) String() string {
	return "ep" + strconv.FormatUint(uint64(s), 10)
}

var openCount atomix.Uint32

func nextSerial() Serial {
	return Serial(openCount.Add(1))
}
