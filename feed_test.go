// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess_test

import (
	"errors"
	"strconv"
	"testing"

	"code.hybscloud.com/shmsess"
	"golang.org/x/sync/errgroup"
)

func TestFeedOrder(t *testing.T) {
	skipRace(t)
	f := shmsess.NewFeed()
	const n = 1000 // more than the feed buffers
	var g errgroup.Group
	g.Go(func() error {
		defer f.Close()
		for i := range n {
			if err := f.Put(strconv.Itoa(i)); err != nil {
				return err
			}
		}
		return nil
	})
	for i := range n {
		s, ok := f.Next()
		if !ok {
			t.Fatalf("feed ended after %d items", i)
		}
		if s != strconv.Itoa(i) {
			t.Fatalf("item %d = %q", i, s)
		}
	}
	if _, ok := f.Next(); ok {
		t.Fatalf("feed not exhausted after Close")
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("producer: %v", err)
	}
}

func TestFeedCloseDrains(t *testing.T) {
	skipRace(t)
	f := shmsess.NewFeed()
	f.Put("a")
	f.Put("b")
	f.Close()
	for _, want := range []string{"a", "b"} {
		if s, ok := f.Next(); !ok || s != want {
			t.Fatalf("got %q/%t, want %q", s, ok, want)
		}
	}
	if _, ok := f.Next(); ok {
		t.Fatalf("drained feed still yields")
	}
	if err := f.Put("c"); !errors.Is(err, shmsess.ErrClosed) {
		t.Fatalf("Put after Close got %v, want ErrClosed", err)
	}
}

func TestFeedDrivesRequester(t *testing.T) {
	skipRace(t)
	cfg := testConfig(t)
	f := shmsess.NewFeed()
	go func() {
		defer f.Close()
		for _, s := range []string{"Apple", "Ball"} {
			f.Put(s)
		}
	}()
	var replies []string
	sent, served, err := shmsess.RunConcurrent(cfg,
		shmsess.Requests(cfg.Sentinel, f.Next, func(_, r string) { replies = append(replies, r) }),
		shmsess.Serve(cfg.Sentinel, shmsess.Length),
	)
	if err != nil {
		t.Fatalf("RunConcurrent: %v", err)
	}
	if sent != 2 || served != 2 || replies[0] != "5" || replies[1] != "4" {
		t.Fatalf("sent=%d served=%d replies=%q", sent, served, replies)
	}
}
