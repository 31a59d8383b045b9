// Package oplog appends one timestamped line per attempted operation to a
// fixed log file. The log is a pure side channel: pmmenu writes it and
// never reads it back.
package oplog
