//go:build windows

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Mrs4s/go-x86-injector/pattern"
	"github.com/Mrs4s/go-x86-injector/scanner"
)

type patternList []pattern.Pattern

func (l *patternList) String() string {
	parts := make([]string, len(*l))
	for i, p := range *l {
		parts[i] = p.String()
	}
	return strings.Join(parts, " | ")
}

func (l *patternList) Set(v string) error {
	p, err := pattern.Parse(v)
	if err != nil {
		return err
	}
	*l = append(*l, p)
	return nil
}

func main() {
	var patterns patternList
	pid := flag.Uint("pid", 0, "process id to scan")
	flag.Var(&patterns, "pattern", "signature such as '6B 65 79 3D ?? ??' (repeatable)")
	skip := flag.Int("skip", -1, "bytes between the hit and the value (default: pattern length)")
	maxLen := flag.Int("max", 256, "longest value to accept in bytes")
	term := flag.String("term", "00", "comma separated hex terminator bytes")
	wide := flag.Bool("wide", false, "value is UTF-16LE")
	retries := flag.Int("retries", 1, "number of sweeps before giving up")
	interval := flag.Duration("interval", time.Second, "pause between sweeps")
	flag.Parse()

	if *pid == 0 || len(patterns) == 0 {
		fmt.Println("Error: -pid and at least one -pattern are required")
		flag.Usage()
		os.Exit(1)
	}
	if *maxLen <= 0 {
		fmt.Println("Error: -max must be positive")
		flag.Usage()
		os.Exit(1)
	}
	terminators, err := parseTerminators(*term)
	if err != nil {
		fmt.Printf("Error parsing -term: %v\n", err)
		os.Exit(1)
	}
	n := *skip
	if n < 0 {
		n = patterns[0].Len()
	}
	extract := scanner.Until(n, *maxLen, terminators...)
	if *wide {
		extract = scanner.WideUntil(n, *maxLen, terminators...)
	}

	mem, err := scanner.OpenProcessMemory(uint32(*pid))
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] [%d] %v\n", *pid, err)
		os.Exit(2)
	}
	defer mem.Close()

	s := scanner.New(mem)
	for attempt := 0; attempt < *retries; attempt++ {
		if attempt > 0 {
			time.Sleep(*interval)
		}
		if v := s.Search(patterns, extract); v != "" {
			fmt.Println(v)
			return
		}
	}
	fmt.Fprintf(os.Stderr, "[ERROR] [%d] no match for %s\n", *pid, patterns.String())
	mem.Close()
	os.Exit(2)
}

func parseTerminators(s string) ([]byte, error) {
	var out []byte
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return nil, err
		}
		out = append(out, byte(v))
	}
	return out, nil
}
