// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command shmtool inspects and manipulates shared-memory sessions.
//
// Usage:
//
//	shmtool post [flags] <text>     # write text into the region, no baton
//	shmtool peek [flags] [-unlink]  # print the text stored in the region
//	shmtool phase [flags]           # print the current baton phase
//	shmtool clean [flags]           # remove a stale region and baton
//
// All subcommands accept the session flags of the endpoint programs.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"code.hybscloud.com/shmsess"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("shmtool: ")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "post":
		err = postCommand(args)
	case "peek":
		err = peekCommand(args)
	case "phase":
		err = phaseCommand(args)
	case "clean":
		err = cleanCommand(args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", command, err)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `shmtool - shared-memory session tool

USAGE:
    shmtool <command> [flags] [arguments]

COMMANDS:
    post <text>   Create or attach the region and write text into it
    peek          Print the text stored in the region (-unlink removes it)
    phase         Print the current phase of the baton and who may act
    clean         Remove the region and the baton of a crashed session

FLAGS:
    -name, -capacity, -seed, -ftok, -sentinel, -timeout
`)
}

// sessionFlags returns a flag set bound to a default configuration.
func sessionFlags(name string) (*flag.FlagSet, *shmsess.Config) {
	cfg := shmsess.DefaultConfig()
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfg.RegisterFlags(fs)
	return fs, &cfg
}

func postCommand(args []string) error {
	fs, cfg := sessionFlags("post")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("want exactly one text argument, got %d", fs.NArg())
	}
	r, err := shmsess.CreateOrAttach(cfg.Name, cfg.Capacity)
	if err != nil {
		return err
	}
	defer r.Close()
	buf, err := r.Map(shmsess.MapReadWrite)
	if err != nil {
		return err
	}
	defer buf.Unmap()
	n, err := buf.WriteText(fs.Arg(0))
	if err != nil {
		return err
	}
	if n < len(fs.Arg(0)) {
		log.Printf("truncated to %d bytes", n)
	}
	return nil
}

func peekCommand(args []string) error {
	fs, cfg := sessionFlags("peek")
	unlink := fs.Bool("unlink", false, "remove the region after reading it")
	fs.Parse(args)
	r, err := shmsess.Attach(cfg.Name, cfg.Capacity)
	if err != nil {
		return err
	}
	buf, err := r.Map(shmsess.MapReadOnly)
	if err != nil {
		r.Close()
		return err
	}
	s, err := buf.ReadText()
	buf.Unmap()
	r.Close()
	if err != nil {
		return err
	}
	fmt.Println(s)
	if *unlink {
		return shmsess.Destroy(cfg.Name)
	}
	return nil
}

func phaseCommand(args []string) error {
	fs, cfg := sessionFlags("phase")
	fs.Parse(args)
	b, err := shmsess.AttachBaton(cfg.Key)
	if err != nil {
		return err
	}
	p, ok, err := b.Phase()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Printf("%v: no phase posted, an endpoint holds the token\n", cfg.Key)
		return nil
	}
	fmt.Printf("%v: %v (%v may act)\n", cfg.Key, p, p.Actor())
	return nil
}

func cleanCommand(args []string) error {
	fs, cfg := sessionFlags("clean")
	fs.Parse(args)
	return shmsess.Remove(*cfg)
}
