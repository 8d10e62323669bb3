// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"strings"
	"testing"
)

func TestReadLinesTruncatesLongLine(t *testing.T) {
	// 5000 bytes also overflows the reader's own buffer.
	in := "Apple\n" + strings.Repeat("x", 5000) + "\nBall\r\nlast"
	var got []string
	var cuts []bool
	err := readLines(strings.NewReader(in), 8, func(line string, cut bool) error {
		got = append(got, line)
		cuts = append(cuts, cut)
		return nil
	})
	if err != nil {
		t.Fatalf("readLines: %v", err)
	}
	want := []string{"Apple", "xxxxxxxx", "Ball", "last"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("got %q, want %q", got, want)
	}
	if cuts[0] || !cuts[1] || cuts[2] || cuts[3] {
		t.Fatalf("cut flags %v, want only the second line", cuts)
	}
}

func TestReadLinesStopsOnPutError(t *testing.T) {
	errStop := errors.New("stop")
	n := 0
	err := readLines(strings.NewReader("a\nb\nc\n"), 8, func(string, bool) error {
		n++
		return errStop
	})
	if !errors.Is(err, errStop) || n != 1 {
		t.Fatalf("got %v after %d lines, want %v after 1", err, n, errStop)
	}
}
