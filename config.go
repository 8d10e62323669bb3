// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess

import (
	"flag"
	"fmt"
	"strings"
	"time"
)

// Defaults shared by both endpoint programs.
const (
	DefaultName     = "/shared_memory"
	DefaultCapacity = 4096
	DefaultSeed     = "mmap2_r_sem"
	DefaultSentinel = "exit"

	// seedID is the project id mixed into keys derived from a seed.
	seedID = 'a'
)

// Config is the session agreement between the two endpoints. Both sides
// must use the same Name, Capacity, Key and Sentinel.
type Config struct {
	// Name is the shared-memory namespace path, e.g. "/shared_memory".
	Name string
	// Capacity is the region size in bytes, fixed for the session.
	Capacity int
	// Key identifies the phase baton.
	Key Key
	// Sentinel is the request that ends the session.
	Sentinel string
	// Timeout bounds every blocking wait. Zero waits forever.
	Timeout time.Duration
}

// DefaultConfig returns the configuration both programs use when no flag
// overrides it.
func DefaultConfig() Config {
	return Config{
		Name:     DefaultName,
		Capacity: DefaultCapacity,
		Key:      SeedKey(DefaultSeed, seedID),
		Sentinel: DefaultSentinel,
	}
}

// Validate reports the first field that cannot work.
func (c Config) Validate() error {
	if err := validName(c.Name); err != nil {
		return err
	}
	if c.Capacity < minCapacity {
		return c.invalid(fmt.Errorf("capacity %d below %d", c.Capacity, minCapacity))
	}
	if c.Key == 0 {
		return c.invalid(fmt.Errorf("key must not be IPC_PRIVATE"))
	}
	if c.Sentinel == "" || strings.IndexByte(c.Sentinel, 0) >= 0 {
		return c.invalid(fmt.Errorf("sentinel %q", c.Sentinel))
	}
	if len(c.Sentinel) > c.Capacity-1 {
		return c.invalid(fmt.Errorf("sentinel %q does not fit capacity %d", c.Sentinel, c.Capacity))
	}
	if c.Timeout < 0 {
		return c.invalid(fmt.Errorf("timeout %v", c.Timeout))
	}
	return nil
}

func (c Config) invalid(err error) error {
	return &OpError{Op: "validate", Name: c.Name, Kind: ErrInvalidConfig, Err: err}
}

// RegisterFlags binds the configuration to fs. The current field values
// become the flag defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Name, "name", c.Name, "shared memory `path`")
	fs.IntVar(&c.Capacity, "capacity", c.Capacity, "region size in `bytes`")
	fs.Func("seed", "derive the baton key from `seed` (default "+DefaultSeed+")", func(s string) error {
		c.Key = SeedKey(s, seedID)
		return nil
	})
	fs.Func("ftok", "derive the baton key from an existing `file`", func(s string) error {
		k, err := Ftok(s, seedID)
		if err != nil {
			return err
		}
		c.Key = k
		return nil
	})
	fs.StringVar(&c.Sentinel, "sentinel", c.Sentinel, "request that ends the session")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "bound on each wait, 0 waits forever")
}
