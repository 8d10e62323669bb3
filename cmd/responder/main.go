// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command responder is the responding endpoint of a shared-memory session.
// It answers every request with its length in bytes and, on the sentinel,
// removes the shared region and the baton.
//
// Usage:
//
//	responder [-name /shared_memory] [-capacity 4096] [-seed mmap2_r_sem] [-timeout 0] [-sentinel exit]
package main

import (
	"flag"
	"log"

	"code.hybscloud.com/shmsess"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("responder: ")

	cfg := shmsess.DefaultConfig()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	ep, err := shmsess.Open(cfg, shmsess.RoleResponder)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	log.Printf("%v %v creator=%t", ep.Serial(), ep.Config().Key, ep.Creator())

	protocol := shmsess.Serve(cfg.Sentinel, func(req string) string {
		log.Printf("-%s-", req)
		resp := shmsess.Length(req)
		log.Printf("%s", resp)
		return resp
	})
	n, err := shmsess.Exec(ep, protocol)
	if cerr := ep.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Fatalf("session: %v", err)
	}
	log.Printf("%d exchanges, owner=%t", n, ep.Owner())
}
