// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// feedCapacity bounds the number of payloads buffered ahead of the
// requester loop.
const feedCapacity = 64

// Feed carries request payloads from one producer goroutine, typically a
// line reader, to the requester loop. It is a bounded lock-free SPSC queue;
// Next has the shape Requests expects.
type Feed struct {
	q      lfq.SPSC[string]
	closed atomix.Uint32
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	f := &Feed{}
	f.q.Init(feedCapacity)
	return f
}

// Put enqueues s, backing off while the feed is full.
// Put after Close fails with ErrClosed.
func (f *Feed) Put(s string) error {
	var bo iox.Backoff
	for {
		if f.closed.Load() != 0 {
			return ErrClosed
		}
		if err := f.q.Enqueue(&s); err == nil {
			return nil
		}
		bo.Wait()
	}
}

// Close marks the end of input. Payloads already queued are still
// delivered by Next.
func (f *Feed) Close() {
	f.closed.Add(1)
}

// Next dequeues the next payload, backing off while the feed is empty.
// It reports false once the feed is closed and drained.
func (f *Feed) Next() (string, bool) {
	var bo iox.Backoff
	for {
		if s, err := f.q.Dequeue(); err == nil {
			return s, true
		}
		if f.closed.Load() != 0 {
			// Put happens-before Close on the producer side.
			if s, err := f.q.Dequeue(); err == nil {
				return s, true
			}
			return "", false
		}
		bo.Wait()
	}
}
