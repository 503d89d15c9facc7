/*
Command remlint checks Remfiles.

Usage:

	remlint check [FILE...]
	remlint tasks [FILE]
	remlint version

With no file arguments, remlint looks in the current directory for the
file names listed in the match.names setting, which defaults to Remfile.

check prints one line per problem,

	Remfile:12:1: warning: task "build" depends on undefined task "gen"

a JSON array with --format=json, or an HTML page with --format=html,
and exits with status 1 if it reported anything.

tasks decodes a Remfile strictly and lists its tasks in declaration
order, marking the default with "*". It prints JSON with --format=json
and text otherwise.

Settings are read from ~/.config/remlint/config.yaml (or
$REMLINT_GLOBAL_CONFIG), then .remlint.yaml in the current directory,
then REMLINT_* environment variables. Flags override all of them.
*/
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		var e exitError
		if errors.As(err, &e) {
			os.Exit(e.code)
		}
		fmt.Fprintf(os.Stderr, "remlint: %v\n", err)
		os.Exit(1)
	}
}

// exitError ends the program with a status code and no message.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }
