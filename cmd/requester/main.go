// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command requester is the requesting endpoint of a shared-memory session.
//
// Each line read from standard input is sent as one request and the
// response is printed as "=request <-> response=". A line longer than the
// region holds is truncated to fit. The sentinel (default
// "exit") or end of input ends the session; the responder then removes
// the shared objects.
//
// Usage:
//
//	requester [-name /shared_memory] [-capacity 4096] [-seed mmap2_r_sem] [-timeout 0] [-sentinel exit]
package main

import (
	"bufio"
	"errors"
	"flag"
	"io"
	"log"
	"os"

	"code.hybscloud.com/shmsess"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("requester: ")

	cfg := shmsess.DefaultConfig()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	ep, err := shmsess.Open(cfg, shmsess.RoleRequester)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	log.Printf("%v %v creator=%t", ep.Serial(), ep.Config().Key, ep.Creator())

	feed := shmsess.NewFeed()
	go func() {
		defer feed.Close()
		err := readLines(os.Stdin, cfg.Capacity-1, func(line string, cut bool) error {
			if cut {
				log.Printf("line truncated to %d bytes", len(line))
			}
			return feed.Put(line)
		})
		if err != nil && !errors.Is(err, shmsess.ErrClosed) {
			log.Printf("stdin: %v", err)
		}
	}()

	protocol := shmsess.Requests(cfg.Sentinel, feed.Next, func(req, resp string) {
		log.Printf("=%s <-> %s=", req, resp)
	})
	n, err := shmsess.Exec(ep, protocol)
	if cerr := ep.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Fatalf("session: %v", err)
	}
	log.Printf("%d exchanges", n)
}

// readLines calls put for every line of r, without its line ending. A line
// longer than limit bytes is cut to limit and reported with cut set; the
// rest of it is skipped.
func readLines(r io.Reader, limit int, put func(line string, cut bool) error) error {
	br := bufio.NewReader(r)
	var (
		line []byte
		cut  bool
	)
	for {
		chunk, more, err := br.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if room := limit - len(line); len(chunk) > room {
			chunk, cut = chunk[:room], true
		}
		line = append(line, chunk...)
		if more {
			continue
		}
		if err := put(string(line), cut); err != nil {
			return err
		}
		line, cut = line[:0], false
	}
}
