// Package transcript writes the durable, append-only record of a debate:
// one file for the narrative, one for every tool invocation. Files are
// keyed by session start time and remain well formed even when a session is
// cut short, as long as Close runs on the way out.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m4xw311/podium/errors"
)

const separatorLength = 80

// ToolCall is the record of a single tool invocation. Immutable once logged.
type ToolCall struct {
	Caller string
	Tool   string
	Args   map[string]interface{}
	Result string
	Err    string
	Time   time.Time
}

// Recorder owns the transcript files for one session.
type Recorder struct {
	debate     *os.File
	tool       *os.File
	DebatePath string
	ToolPath   string
	rounds     int
	closed     bool
}

// New creates the log directory and both transcript files and writes the
// session headers.
func New(dir, topic string, rounds int) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "could not create log directory '%s'", dir)
	}

	stamp := time.Now().Format("20060102_150405")
	debatePath := filepath.Join(dir, fmt.Sprintf("debate_%s.log", stamp))
	toolPath := filepath.Join(dir, fmt.Sprintf("debate_tools_%s.log", stamp))

	debate, err := os.Create(debatePath)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create transcript file")
	}
	tool, err := os.Create(toolPath)
	if err != nil {
		debate.Close()
		return nil, errors.Wrapf(err, "could not create tool log file")
	}

	r := &Recorder{
		debate:     debate,
		tool:       tool,
		DebatePath: debatePath,
		ToolPath:   toolPath,
		rounds:     rounds,
	}
	r.writeHeader(debate, "AI DEBATE TRANSCRIPT", [][2]string{
		{"Topic", topic},
		{"Total Rounds", fmt.Sprintf("%d", rounds)},
	})
	r.writeHeader(tool, "AI DEBATE - TOOL CALL LOG", [][2]string{
		{"Topic", topic},
	})
	return r, nil
}

func (r *Recorder) writeHeader(f *os.File, title string, meta [][2]string) {
	sep := strings.Repeat("=", separatorLength)
	fmt.Fprintf(f, "%s\n%s\n%s\n", sep, title, sep)
	for _, kv := range meta {
		fmt.Fprintf(f, "%s: %s\n", kv[0], kv[1])
	}
	fmt.Fprintf(f, "Session started: %s\n%s\n\n", time.Now().Format("2006-01-02 15:04:05"), sep)
}

func (r *Recorder) separator(f *os.File, char string) {
	fmt.Fprintln(f, strings.Repeat(char, separatorLength))
}

// LogOpening appends one opening statement to the narrative.
func (r *Recorder) LogOpening(name, statement string) {
	if r.closed {
		return
	}
	r.separator(r.debate, "=")
	fmt.Fprintf(r.debate, "%s (Opening Statement):\n", name)
	r.separator(r.debate, "-")
	fmt.Fprintf(r.debate, "%s\n\n", statement)
}

// LogRound appends a round boundary marker.
func (r *Recorder) LogRound(round int) {
	if r.closed {
		return
	}
	fmt.Fprintln(r.debate)
	r.separator(r.debate, "=")
	fmt.Fprintf(r.debate, "ROUND %d/%d\n", round, r.rounds)
	r.separator(r.debate, "=")
	fmt.Fprintln(r.debate)
}

// LogMessage appends one debate message with a timestamp.
func (r *Recorder) LogMessage(name, message string) {
	if r.closed {
		return
	}
	r.separator(r.debate, "=")
	fmt.Fprintf(r.debate, "[%s] %s:\n", time.Now().Format("2006-01-02 15:04:05"), name)
	r.separator(r.debate, "-")
	fmt.Fprintf(r.debate, "%s\n\n", message)
}

// LogToolCall appends one invocation record to the tool log, arguments
// JSON-formatted, result or error verbatim.
func (r *Recorder) LogToolCall(rec ToolCall) {
	if r.closed {
		return
	}
	when := rec.Time
	if when.IsZero() {
		when = time.Now()
	}
	fmt.Fprintf(r.tool, "[%s] %s\n", when.Format("2006-01-02 15:04:05"), rec.Caller)
	r.separator(r.tool, "-")
	fmt.Fprintf(r.tool, "Tool: %s\n", rec.Tool)

	args, err := json.MarshalIndent(rec.Args, "", "  ")
	if err != nil {
		args = []byte(fmt.Sprintf("%v", rec.Args))
	}
	fmt.Fprintf(r.tool, "Arguments:\n%s\n", args)
	if rec.Err != "" {
		fmt.Fprintf(r.tool, "Error:\n  %s\n", rec.Err)
	} else {
		fmt.Fprintf(r.tool, "Result:\n  %s\n", rec.Result)
	}
	r.separator(r.tool, "=")
	fmt.Fprintln(r.tool)
}

// LogConclusion appends the end-of-debate marker with how many rounds
// actually completed.
func (r *Recorder) LogConclusion(completedRounds int) {
	if r.closed {
		return
	}
	r.separator(r.debate, "=")
	fmt.Fprintln(r.debate, "DEBATE CONCLUDED")
	r.separator(r.debate, "=")
	fmt.Fprintf(r.debate, "Total rounds completed: %d\n", completedRounds)
}

// Close writes the session footers and closes both files. It is idempotent
// so deferred and explicit calls can coexist on abnormal exits.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	ended := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(r.debate, "\nSession ended: %s\n", ended)
	fmt.Fprintf(r.tool, "\nSession ended: %s\n", ended)
	err := r.debate.Close()
	if terr := r.tool.Close(); err == nil {
		err = terr
	}
	return err
}
