package main

import (
	"flag"
	"strings"
)

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ExitOnError)
}

// reorderArgs moves flags ahead of positional arguments so that
// "seed file.yaml -dry-run" parses like "seed -dry-run file.yaml".
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) > 0 && arg != "-" && arg != "--" && arg[0] == '-' {
			flags = append(flags, arg)
			if !strings.Contains(arg, "=") && !isBoolFlag(arg) && i+1 < len(args) && (len(args[i+1]) == 0 || args[i+1][0] != '-') {
				flags = append(flags, args[i+1])
				i++
			}
		} else {
			positional = append(positional, arg)
		}
	}
	return append(flags, positional...)
}

var boolFlags = map[string]bool{"status": true, "dry-run": true, "check": true, "ask-password": true}

func isBoolFlag(arg string) bool {
	return boolFlags[strings.TrimLeft(arg, "-")]
}
