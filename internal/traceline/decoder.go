package traceline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mrzor/process-timeline/internal/timesync"
)

const (
	unfinishedSuffix   = " <unfinished ...>"
	resumedPrefixStart = "<... "
	resumedPrefixEnd   = " resumed>"
)

var (
	spawnPrefixes   = []string{"clone(", "clone3(", "fork(", "vfork("}
	execPrefixes    = []string{"execve(", "execveat("}
	exitPrefixes    = []string{"exit(", "exit_group("}
	ignoredPrefixes = []string{"wait3(", "wait4(", "tgkill(", "+++", "<...", "---"}

	// execveat carries a directory fd before the path.
	regexExec = regexp.MustCompile(`^(?:execve\(|execveat\([^,]*, )` +
		`(?P<path>` + patternHexString + `), ` +
		`(?P<argv>\[(?:` + patternHexString + `(?:, )?)*\])` +
		`(?:, (?P<rest>.*))?\) = (?P<result>.+)$`)
	regexEnvArray = regexp.MustCompile(`^\[(?:` + patternHexString + `(?:, )?)*\]`)

	execPathIdx   = regexExec.SubexpIndex("path")
	execArgvIdx   = regexExec.SubexpIndex("argv")
	execRestIdx   = regexExec.SubexpIndex("rest")
	execResultIdx = regexExec.SubexpIndex("result")
)

// Decoder turns trace lines into events, stitching split calls per pid.
// It is not safe for concurrent use; lines must be fed in trace order.
type Decoder struct {
	fragments *FragmentTable
}

// NewDecoder creates a decoder with no pending fragments.
func NewDecoder() *Decoder {
	return &Decoder{
		fragments: NewFragmentTable(),
	}
}

// SplitLine splits a raw line into pid, timestamp and body. strace pads
// the pid to five columns, so fields are separated by runs of blanks.
func SplitLine(text string) (Line, error) {
	text = strings.TrimRight(text, " \t\r\n")

	pidStr, rest, ok := cutField(text)
	if !ok {
		return Line{}, decodeErr(ErrMalformedLine, 0, text)
	}
	timeStr, body, ok := cutField(rest)
	if !ok || body == "" {
		return Line{}, decodeErr(ErrMalformedLine, 0, text)
	}

	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return Line{}, decodeErr(ErrMalformedLine, 0, text)
	}
	ts, err := timesync.ParseStamp(timeStr)
	if err != nil {
		return Line{}, decodeErr(ErrMalformedLine, pid, text)
	}

	return Line{Pid: pid, Time: ts, Body: body, Text: text}, nil
}

// cutField splits off the first blank-delimited field and strips the
// blanks that follow it.
func cutField(s string) (field, rest string, ok bool) {
	i := strings.IndexAny(s, " \t")
	if i <= 0 {
		return "", "", false
	}
	return s[:i], strings.TrimLeft(s[i:], " \t"), true
}

// Decode splits and decodes one raw line.
// It returns a nil event when the line only opened an unfinished call.
func (d *Decoder) Decode(text string) (*Event, error) {
	line, err := SplitLine(text)
	if err != nil {
		return nil, err
	}
	return d.DecodeLine(line)
}

// DecodeLine decodes a line already split by SplitLine.
// It returns a nil event when the line only opened an unfinished call.
func (d *Decoder) DecodeLine(line Line) (*Event, error) {
	body := line.Body
	ts := line.Time

	if strings.HasSuffix(body, unfinishedSuffix) {
		frag := Fragment{Body: strings.TrimSuffix(body, unfinishedSuffix), Time: ts}
		if err := d.fragments.Hold(line.Pid, frag); err != nil {
			return nil, decodeErr(err, line.Pid, line.Text)
		}
		return nil, nil
	}

	if strings.HasPrefix(body, resumedPrefixStart) {
		pos := strings.Index(body, resumedPrefixEnd)
		if pos < 0 {
			return nil, decodeErr(ErrMalformedLine, line.Pid, line.Text)
		}
		frag, err := d.fragments.Resume(line.Pid)
		if err != nil {
			return nil, decodeErr(err, line.Pid, line.Text)
		}
		body = frag.Body + body[pos+len(resumedPrefixEnd):]
		ts = frag.Time
	}

	return classify(line.Pid, ts, body, line.Text)
}

// Pending returns the pids whose unfinished call was never resumed.
func (d *Decoder) Pending() []int {
	return d.fragments.Pids()
}

func classify(pid int, ts timesync.Stamp, body, text string) (*Event, error) {
	switch {
	case hasAnyPrefix(body, spawnPrefixes):
		return decodeSpawn(pid, ts, body, text)
	case hasAnyPrefix(body, execPrefixes):
		return decodeExec(pid, ts, body, text)
	case hasAnyPrefix(body, exitPrefixes):
		return &Event{Kind: KindExited, Pid: pid, Time: ts}, nil
	case hasAnyPrefix(body, ignoredPrefixes):
		return &Event{Kind: KindIgnored, Pid: pid, Time: ts}, nil
	default:
		return &Event{Kind: KindUnrecognized, Pid: pid, Time: ts, Raw: body}, nil
	}
}

func decodeSpawn(pid int, ts timesync.Stamp, body, text string) (*Event, error) {
	idx := strings.LastIndex(body, "=")
	if idx < 0 {
		return nil, decodeErr(ErrSpawnResult, pid, text)
	}

	childPid, err := strconv.Atoi(strings.TrimSpace(body[idx+1:]))
	if err != nil || childPid <= 0 {
		return nil, decodeErr(ErrSpawnResult, pid, text)
	}

	return &Event{Kind: KindSpawned, Pid: pid, Time: ts, ChildPid: childPid}, nil
}

func decodeExec(pid int, ts timesync.Stamp, body, text string) (*Event, error) {
	m := regexExec.FindStringSubmatch(body)
	if m == nil {
		return nil, decodeErr(ErrExecGrammar, pid, text)
	}

	path, err := ParseQuoted(m[execPathIdx])
	if err != nil {
		return nil, decodeErr(ErrExecGrammar, pid, text)
	}
	argv, err := ParseQuotedArray(m[execArgvIdx])
	if err != nil {
		return nil, decodeErr(ErrExecGrammar, pid, text)
	}

	ev := &Event{
		Kind:   KindExecuted,
		Pid:    pid,
		Time:   ts,
		Path:   path,
		Argv:   argv,
		Failed: strings.HasPrefix(m[execResultIdx], "-"),
	}

	// envp is only an array when strace runs with -v.
	if envStr := regexEnvArray.FindString(m[execRestIdx]); envStr != "" {
		vars, err := ParseQuotedArray(envStr)
		if err != nil {
			return nil, decodeErr(ErrExecGrammar, pid, text)
		}
		ev.Env = parseEnv(vars)
	}

	return ev, nil
}

// parseEnv splits KEY=VALUE entries. Entries without '=' are dropped.
func parseEnv(vars []string) map[string]string {
	env := make(map[string]string, len(vars))
	for _, kv := range vars {
		if key, value, ok := strings.Cut(kv, "="); ok && key != "" {
			env[key] = value
		}
	}
	return env
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
