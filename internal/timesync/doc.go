// Package timesync provides the timestamp type used throughout the pipeline
// and conversions from it to wall-clock time.
//
// strace is run with --timestamps=unix,us, so every trace line carries a
// wall-clock time as "<seconds>.<microseconds>". Parsing that text into
// floating point would make equal timestamps compare unequal after
// arithmetic, which the interval packer relies on, so timestamps are kept
// as integer microseconds since the Unix epoch.
package timesync
