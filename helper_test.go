// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess_test

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
	"code.hybscloud.com/shmsess"
)

// testSeq makes region names and keys unique within the test binary.
var testSeq atomix.Uint32

// requireIPC skips tb when /dev/shm or SysV semaphores are unavailable.
func requireIPC(tb testing.TB) {
	tb.Helper()
	if _, err := os.Stat("/dev/shm"); err != nil {
		tb.Skipf("skip: no /dev/shm: %v", err)
	}
	key := shmsess.SeedKey(fmt.Sprintf("probe-%d", os.Getpid()), 'p')
	b, creator, err := shmsess.CreateExclusive(key)
	if err != nil {
		if errors.Is(err, shmsess.ErrUnsupported) {
			tb.Skip("skip: platform has no SysV semaphores")
		}
		tb.Skipf("skip: semget: %v", err)
	}
	if creator {
		b.Destroy()
	}
}

// testConfig returns a configuration private to tb, removed on cleanup.
func testConfig(tb testing.TB) shmsess.Config {
	tb.Helper()
	requireIPC(tb)
	cfg := shmsess.DefaultConfig()
	cfg.Name = fmt.Sprintf("/shmsess-test-%d-%d", os.Getpid(), testSeq.Add(1))
	cfg.Key = shmsess.SeedKey(cfg.Name, 't')
	cfg.Timeout = 5 * time.Second
	shmsess.Remove(cfg)
	tb.Cleanup(func() { shmsess.Remove(cfg) })
	return cfg
}

// open opens an endpoint or fails tb.
func open(tb testing.TB, cfg shmsess.Config, role shmsess.Role) *shmsess.Endpoint {
	tb.Helper()
	ep, err := shmsess.Open(cfg, role)
	if err != nil {
		tb.Fatalf("open %v: %v", role, err)
	}
	tb.Cleanup(func() { ep.Close() })
	return ep
}

// execExpr drives a protocol to completion on ep via Step+Advance loop.
// Retries on iox.ErrWouldBlock (peer not ready yet); any other error ends it.
// Used by stepping tests to exercise the non-blocking path.
func execExpr[R any](ep *shmsess.Endpoint, protocol kont.Expr[R]) (R, error) {
	result, susp := shmsess.Step[R](protocol)
	var bo iox.Backoff
	for susp != nil {
		var err error
		result, susp, err = shmsess.Advance(ep, susp)
		if errors.Is(err, iox.ErrWouldBlock) {
			bo.Wait()
			continue
		}
		if err != nil {
			susp.Discard()
			var zero R
			return zero, err
		}
		bo.Reset()
	}
	return result, nil
}
