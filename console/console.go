// Package console is the push-only progress sink for a running debate. The
// core writes to it and never reads back.
package console

import (
	"fmt"
	"io"
	"strings"
)

// ToolVerbosity controls how much of the tool traffic is shown.
type ToolVerbosity string

const (
	ToolVerbosityNone ToolVerbosity = "none"
	ToolVerbosityInfo ToolVerbosity = "info"
	ToolVerbosityAll  ToolVerbosity = "all"
)

// Sink receives human-readable progress events.
type Sink interface {
	Banner(topic string, rounds int)
	Opening(name, statement string)
	RoundHeader(round, total int)
	Message(name, content string)
	ToolCall(caller, tool string, args map[string]interface{})
	ToolResult(caller, tool, result string)
	Conclusion(topic string, completedRounds int)
	Warning(format string, args ...interface{})
}

const separatorLength = 80

// Console prints debate progress to a writer, typically stdout.
type Console struct {
	w         io.Writer
	verbosity ToolVerbosity
}

func New(w io.Writer, verbosity ToolVerbosity) *Console {
	return &Console{w: w, verbosity: verbosity}
}

func (c *Console) separator(char string) {
	fmt.Fprintln(c.w, strings.Repeat(char, separatorLength))
}

func (c *Console) Banner(topic string, rounds int) {
	fmt.Fprintln(c.w)
	c.separator("=")
	fmt.Fprintln(c.w, "AI DEBATE")
	c.separator("=")
	fmt.Fprintf(c.w, "Topic: %s\n", topic)
	fmt.Fprintf(c.w, "Rounds: %d\n", rounds)
	c.separator("=")
	fmt.Fprintln(c.w)
}

func (c *Console) Opening(name, statement string) {
	c.separator("=")
	fmt.Fprintf(c.w, "%s (Opening Statement):\n", name)
	c.separator("-")
	fmt.Fprintf(c.w, "%s\n\n", statement)
}

func (c *Console) RoundHeader(round, total int) {
	fmt.Fprintln(c.w)
	c.separator("=")
	fmt.Fprintf(c.w, "ROUND %d/%d\n", round, total)
	c.separator("=")
	fmt.Fprintln(c.w)
}

func (c *Console) Message(name, content string) {
	c.separator("=")
	fmt.Fprintf(c.w, "%s:\n", name)
	c.separator("-")
	fmt.Fprintf(c.w, "%s\n\n", content)
}

func (c *Console) ToolCall(caller, tool string, args map[string]interface{}) {
	switch c.verbosity {
	case ToolVerbosityAll:
		fmt.Fprintf(c.w, "%s is calling tool `%s` with args: %v\n", caller, tool, args)
	case ToolVerbosityInfo:
		fmt.Fprintf(c.w, "%s is calling tool `%s`\n", caller, tool)
	}
}

func (c *Console) ToolResult(caller, tool, result string) {
	if c.verbosity == ToolVerbosityAll {
		fmt.Fprintf(c.w, "Tool `%s` output: %s\n", tool, result)
	}
}

// Warning reports a non-fatal infrastructure problem, such as a tool server
// that failed to connect. Shown at every verbosity level.
func (c *Console) Warning(format string, args ...interface{}) {
	fmt.Fprintf(c.w, "Warning: "+format+"\n", args...)
}

func (c *Console) Conclusion(topic string, completedRounds int) {
	c.separator("=")
	fmt.Fprintln(c.w, "DEBATE CONCLUDED")
	c.separator("=")
	fmt.Fprintf(c.w, "Total rounds completed: %d\n", completedRounds)
	fmt.Fprintf(c.w, "Thank you for watching this AI debate on %s!\n\n", topic)
}
