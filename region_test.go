// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess_test

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"code.hybscloud.com/shmsess"
)

func mapRegion(t *testing.T, name string, capacity int, mode shmsess.MapMode) (*shmsess.Region, *shmsess.Buffer) {
	t.Helper()
	r, err := shmsess.CreateOrAttach(name, capacity)
	if err != nil {
		t.Fatalf("CreateOrAttach: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	buf, err := r.Map(mode)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	t.Cleanup(func() { buf.Unmap() })
	return r, buf
}

func TestRegionCreateThenAttach(t *testing.T) {
	cfg := testConfig(t)
	r1, _ := mapRegion(t, cfg.Name, cfg.Capacity, shmsess.MapReadWrite)
	if !r1.Creator() {
		t.Fatalf("first CreateOrAttach is not the creator")
	}
	r2, err := shmsess.CreateOrAttach(cfg.Name, cfg.Capacity)
	if err != nil {
		t.Fatalf("second CreateOrAttach: %v", err)
	}
	defer r2.Close()
	if r2.Creator() {
		t.Fatalf("second CreateOrAttach claims creation")
	}
	if r2.Capacity() != cfg.Capacity || r2.Name() != cfg.Name {
		t.Fatalf("attached %s/%d, want %s/%d", r2.Name(), r2.Capacity(), cfg.Name, cfg.Capacity)
	}
}

func TestRegionSharedBetweenMappings(t *testing.T) {
	cfg := testConfig(t)
	_, w := mapRegion(t, cfg.Name, cfg.Capacity, shmsess.MapReadWrite)
	r, err := shmsess.Attach(cfg.Name, cfg.Capacity)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer r.Close()
	ro, err := r.Map(shmsess.MapReadOnly)
	if err != nil {
		t.Fatalf("Map read-only: %v", err)
	}
	defer ro.Unmap()

	if _, err := w.WriteText("Apple"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	got, err := ro.ReadText()
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if got != "Apple" {
		t.Fatalf("got %q, want %q", got, "Apple")
	}
}

func TestRegionAttachMissing(t *testing.T) {
	cfg := testConfig(t)
	_, err := shmsess.Attach(cfg.Name, cfg.Capacity)
	if !errors.Is(err, shmsess.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestRegionCapacityConflict(t *testing.T) {
	cfg := testConfig(t)
	mapRegion(t, cfg.Name, cfg.Capacity, shmsess.MapReadWrite)
	_, err := shmsess.CreateOrAttach(cfg.Name, cfg.Capacity*2)
	if !errors.Is(err, shmsess.ErrNameConflict) {
		t.Fatalf("got %v, want ErrNameConflict", err)
	}
}

func TestRegionMapUnsized(t *testing.T) {
	cfg := testConfig(t)
	f, err := os.OpenFile("/dev/shm"+cfg.Name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.Close()
	r, err := shmsess.Attach(cfg.Name, cfg.Capacity)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer r.Close()
	_, err = r.Map(shmsess.MapReadWrite)
	if !errors.Is(err, shmsess.ErrMapFailure) {
		t.Fatalf("got %v, want ErrMapFailure", err)
	}
}

func TestBufferNoStaleBytes(t *testing.T) {
	cfg := testConfig(t)
	_, buf := mapRegion(t, cfg.Name, cfg.Capacity, shmsess.MapReadWrite)
	if _, err := buf.WriteText("a considerably longer message"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if _, err := buf.WriteText("Ball"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	got, err := buf.ReadText()
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if got != "Ball" {
		t.Fatalf("got %q, want %q", got, "Ball")
	}
}

func TestBufferZeroFilledTail(t *testing.T) {
	cfg := testConfig(t)
	cfg.Capacity = 64
	_, buf := mapRegion(t, cfg.Name, cfg.Capacity, shmsess.MapReadWrite)
	buf.WriteText(strings.Repeat("x", 60))
	buf.WriteText("y")

	raw, err := os.ReadFile("/dev/shm" + cfg.Name)
	if err != nil {
		t.Fatalf("read backing file: %v", err)
	}
	want := make([]byte, 64)
	want[0] = 'y'
	if !bytes.Equal(raw, want) {
		t.Fatalf("backing bytes %q, want %q", raw, want)
	}
}

func TestBufferTruncates(t *testing.T) {
	cfg := testConfig(t)
	cfg.Capacity = 8
	_, buf := mapRegion(t, cfg.Name, cfg.Capacity, shmsess.MapReadWrite)
	n, err := buf.WriteText("0123456789")
	if err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if n != 7 {
		t.Fatalf("wrote %d bytes, want 7", n)
	}
	got, _ := buf.ReadText()
	if got != "0123456" {
		t.Fatalf("got %q, want %q", got, "0123456")
	}
}

func TestBufferStopsAtNUL(t *testing.T) {
	cfg := testConfig(t)
	_, buf := mapRegion(t, cfg.Name, cfg.Capacity, shmsess.MapReadWrite)
	n, err := buf.WriteText("exit\x00junk")
	if err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	got, _ := buf.ReadText()
	if n != len(got) || got != "exit" {
		t.Fatalf("wrote %d bytes, read %q; want 4 and %q", n, got, "exit")
	}
	if shmsess.Text("a\x00b") != "a" || shmsess.Text("ab") != "ab" {
		t.Fatalf("Text does not cut at the first NUL")
	}
}

func TestBufferMalformedPayload(t *testing.T) {
	cfg := testConfig(t)
	cfg.Capacity = 16
	_, buf := mapRegion(t, cfg.Name, cfg.Capacity, shmsess.MapReadWrite)
	f, err := os.OpenFile("/dev/shm"+cfg.Name, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open backing file: %v", err)
	}
	_, err = f.WriteAt(bytes.Repeat([]byte{'z'}, 16), 0)
	f.Close()
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	_, err = buf.ReadText()
	if !errors.Is(err, shmsess.ErrMalformedPayload) {
		t.Fatalf("got %v, want ErrMalformedPayload", err)
	}
}

func TestBufferReadOnly(t *testing.T) {
	cfg := testConfig(t)
	mapRegion(t, cfg.Name, cfg.Capacity, shmsess.MapReadWrite)
	r, err := shmsess.Attach(cfg.Name, cfg.Capacity)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer r.Close()
	ro, err := r.Map(shmsess.MapReadOnly)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	defer ro.Unmap()
	if ro.Mode() != shmsess.MapReadOnly {
		t.Fatalf("mode %v, want read-only", ro.Mode())
	}
	if _, err := ro.WriteText("nope"); !errors.Is(err, shmsess.ErrReadOnly) {
		t.Fatalf("WriteText got %v, want ErrReadOnly", err)
	}
	if err := ro.Clear(); !errors.Is(err, shmsess.ErrReadOnly) {
		t.Fatalf("Clear got %v, want ErrReadOnly", err)
	}
}

func TestBufferUnmapIdempotent(t *testing.T) {
	cfg := testConfig(t)
	_, buf := mapRegion(t, cfg.Name, cfg.Capacity, shmsess.MapReadWrite)
	if buf.Capacity() != cfg.Capacity {
		t.Fatalf("capacity %d, want %d", buf.Capacity(), cfg.Capacity)
	}
	if err := buf.Unmap(); err != nil {
		t.Fatalf("Unmap: %v", err)
	}
	if err := buf.Unmap(); err != nil {
		t.Fatalf("second Unmap: %v", err)
	}
	if buf.Capacity() != 0 {
		t.Fatalf("capacity after Unmap %d, want 0", buf.Capacity())
	}
	if _, err := buf.ReadText(); !errors.Is(err, shmsess.ErrClosed) {
		t.Fatalf("ReadText after Unmap got %v, want ErrClosed", err)
	}
}

func TestRegionDestroyTwice(t *testing.T) {
	cfg := testConfig(t)
	r, err := shmsess.CreateOrAttach(cfg.Name, cfg.Capacity)
	if err != nil {
		t.Fatalf("CreateOrAttach: %v", err)
	}
	r.Close()
	if err := shmsess.Destroy(cfg.Name); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := shmsess.Destroy(cfg.Name); !errors.Is(err, shmsess.ErrNotFound) {
		t.Fatalf("second Destroy got %v, want ErrNotFound", err)
	}
}

func TestRegionInvalidName(t *testing.T) {
	requireIPC(t)
	for _, name := range []string{"", "/", "noslash", "/a/b", "/.."} {
		if _, err := shmsess.CreateOrAttach(name, 4096); !errors.Is(err, shmsess.ErrInvalidConfig) {
			t.Errorf("CreateOrAttach(%q) got %v, want ErrInvalidConfig", name, err)
		}
	}
}
