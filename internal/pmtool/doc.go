// Package pmtool invokes the Privilege Manager command-line binaries
// (pmpolicy, pmcheck, pmlog, pmreplay and the info tools) with structured
// argument vectors. It never passes user input through a shell.
package pmtool
