// Package traceline decodes strace output lines into process lifecycle events.
//
// strace is expected to run with --always-show-pid, --timestamps=unix,us and
// --strings-in-hex, so every line has the form
//
//	<pid> <seconds.micros> <body>
//
// and every quoted string in a body is a sequence of \xHH escapes.
//
// A blocking call can be split across two lines, with lines of other pids in
// between. The Decoder keeps one pending fragment per pid:
//
//	┌─────────┐
//	│  Idle   │ ◄─────────────────────────────┐
//	└────┬────┘                               │
//	     │ "<body> <unfinished ...>"          │
//	     ▼                                    │
//	┌──────────┐  "<... name resumed><rest>"  │
//	│ Pending  │ ─────────────────────────────┤
//	└────┬─────┘   body = stored + rest       │
//	     │                                    │
//	     │ "<unfinished ...>" again           │
//	     ▼                                    │
//	  ErrDuplicateUnfinished                  │
//	                                          │
//	  "<... resumed>" while Idle ─────────────┘
//	     → ErrResumedWithoutPending
//
// A stitched event carries the time of the line that started the call.
//
// Classified bodies:
//   - clone, clone3, fork, vfork: KindSpawned, child pid from "= <n>"
//   - execve, execveat: KindExecuted, path and argv decoded from hex
//   - exit, exit_group: KindExited
//   - wait3, wait4, tgkill, "+++", "---", "<...": KindIgnored
//   - anything else: KindUnrecognized (recoverable)
//
// Every other failure is a *DecodeError that carries the line and pid.
package traceline
