package debate

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/m4xw311/podium/chat"
	"github.com/m4xw311/podium/console"
	"github.com/m4xw311/podium/tools"
	"github.com/m4xw311/podium/transcript"
)

// scriptedClient returns pre-programmed responses in order.
type scriptedClient struct {
	script []scriptStep
	calls  int
	seen   [][]chat.Message
}

type scriptStep struct {
	msg *chat.Message
	err error
}

func (s *scriptedClient) Chat(ctx context.Context, messages []chat.Message, availableTools []tools.Tool) (*chat.Message, error) {
	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	s.seen = append(s.seen, copied)

	if s.calls >= len(s.script) {
		return &chat.Message{Role: "assistant", Content: "out of script"}, nil
	}
	step := s.script[s.calls]
	s.calls++
	return step.msg, step.err
}

// fakeGateway satisfies ToolGateway with canned results.
type fakeGateway struct {
	tools    []tools.Tool
	result   string
	err      error
	executed []string
}

func (g *fakeGateway) Available() []tools.Tool { return g.tools }

func (g *fakeGateway) Execute(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	g.executed = append(g.executed, name)
	return g.result, g.err
}

func textResponse(content string) scriptStep {
	return scriptStep{msg: &chat.Message{Role: "assistant", Content: content}}
}

func toolResponse(name string) scriptStep {
	return scriptStep{msg: &chat.Message{
		Role: "assistant",
		ToolCalls: []chat.ToolCall{
			{ToolCallID: "call_0_" + name, Name: name, Args: map[string]interface{}{"q": "x"}},
		},
	}}
}

func newTestRecorder(t *testing.T) *transcript.Recorder {
	t.Helper()
	rec, err := transcript.New(t.TempDir(), "testing", 1)
	if err != nil {
		t.Fatalf("New recorder failed: %v", err)
	}
	t.Cleanup(func() { rec.Close() })
	return rec
}

func newTestDebater(t *testing.T, client *scriptedClient, gateway *fakeGateway) *Debater {
	t.Helper()
	return NewDebater("Debater 1", "be terse", "opening", client, gateway,
		newTestRecorder(t), console.New(io.Discard, console.ToolVerbosityNone), 3)
}

func TestRespondFinalAnswer(t *testing.T) {
	client := &scriptedClient{script: []scriptStep{textResponse("my argument")}}
	d := newTestDebater(t, client, &fakeGateway{})
	d.AddOpponent("your opening")

	got, err := d.Respond(context.Background())
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if got != "my argument" {
		t.Errorf("Expected 'my argument', got '%s'", got)
	}

	history := d.History()
	last := history[len(history)-1]
	if last.Role != "assistant" || last.Content != "my argument" {
		t.Errorf("Expected final answer appended as assistant turn, got %+v", last)
	}
}

func TestRespondSendsPersonaAndHistory(t *testing.T) {
	client := &scriptedClient{script: []scriptStep{textResponse("ok")}}
	d := newTestDebater(t, client, &fakeGateway{})
	d.AddSelf("opening")
	d.AddOpponent("their opening")

	if _, err := d.Respond(context.Background()); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	sent := client.seen[0]
	if sent[0].Role != "system" || sent[0].Content != "be terse" {
		t.Errorf("Expected persona as leading system message, got %+v", sent[0])
	}
	if len(sent) != 3 {
		t.Errorf("Expected system + 2 history messages, got %d", len(sent))
	}
	// The stored history must not grow a system message.
	for _, msg := range d.History() {
		if msg.Role == "system" {
			t.Errorf("Persona leaked into stored history")
		}
	}
}

func TestRespondRunsToolLoop(t *testing.T) {
	client := &scriptedClient{script: []scriptStep{
		toolResponse("web_search"),
		textResponse("informed answer"),
	}}
	gateway := &fakeGateway{result: "search says 42"}
	d := newTestDebater(t, client, gateway)
	d.AddOpponent("prove it")

	got, err := d.Respond(context.Background())
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if got != "informed answer" {
		t.Errorf("Expected 'informed answer', got '%s'", got)
	}
	if len(gateway.executed) != 1 || gateway.executed[0] != "web_search" {
		t.Errorf("Expected one web_search execution, got %v", gateway.executed)
	}

	// Second model pass must see the tool result.
	second := client.seen[1]
	foundResult := false
	for _, msg := range second {
		if msg.Role == "tool" && msg.Content == "search says 42" {
			foundResult = true
		}
	}
	if !foundResult {
		t.Errorf("Tool result not fed back into the second model pass: %+v", second)
	}
}

func TestRespondBoundsToolLoop(t *testing.T) {
	// The model never stops asking for tools; the bound must cut it off.
	client := &scriptedClient{script: []scriptStep{
		toolResponse("web_search"),
		toolResponse("web_search"),
		toolResponse("web_search"),
		toolResponse("web_search"),
	}}
	d := newTestDebater(t, client, &fakeGateway{result: "ok"})
	d.AddOpponent("go")

	_, err := d.Respond(context.Background())
	if !errors.Is(err, ErrToolLoopExceeded) {
		t.Fatalf("Expected ErrToolLoopExceeded, got %v", err)
	}
	if client.calls != 3 {
		t.Errorf("Expected exactly 3 model calls (the bound), got %d", client.calls)
	}
}

func TestRespondFeedsToolErrorBack(t *testing.T) {
	client := &scriptedClient{script: []scriptStep{
		toolResponse("web_search"),
		textResponse("I could not verify that"),
	}}
	gateway := &fakeGateway{err: errors.New("backend unavailable")}
	d := newTestDebater(t, client, gateway)
	d.AddOpponent("prove it")

	got, err := d.Respond(context.Background())
	if err != nil {
		t.Fatalf("Tool failure must not fail the turn: %v", err)
	}
	if got != "I could not verify that" {
		t.Errorf("Expected final answer despite tool error, got '%s'", got)
	}

	second := client.seen[1]
	foundError := false
	for _, msg := range second {
		if msg.Role == "tool" && strings.Contains(msg.Content, "backend unavailable") {
			foundError = true
		}
	}
	if !foundError {
		t.Errorf("Tool error text not fed back to the model: %+v", second)
	}
}

func TestRespondToolErrorIsRecorded(t *testing.T) {
	client := &scriptedClient{script: []scriptStep{
		toolResponse("web_search"),
		textResponse("final"),
	}}
	gateway := &fakeGateway{err: errors.New("backend unavailable")}

	dir := t.TempDir()
	rec, err := transcript.New(dir, "testing", 1)
	if err != nil {
		t.Fatalf("New recorder failed: %v", err)
	}
	d := NewDebater("Debater 1", "p", "o", client, gateway,
		rec, console.New(io.Discard, console.ToolVerbosityNone), 3)
	d.AddOpponent("go")

	if _, err := d.Respond(context.Background()); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	rec.Close()

	data, err := os.ReadFile(rec.ToolPath)
	if err != nil {
		t.Fatalf("Could not read tool log: %v", err)
	}
	if !strings.Contains(string(data), "backend unavailable") {
		t.Errorf("Tool log missing the recorded error: %s", data)
	}
	if !strings.Contains(string(data), "web_search") {
		t.Errorf("Tool log missing the tool name: %s", data)
	}
}

func TestRespondModelErrorIsFatal(t *testing.T) {
	providerErr := errors.New("rate limited")
	client := &scriptedClient{script: []scriptStep{{err: providerErr}}}
	d := newTestDebater(t, client, &fakeGateway{})
	d.AddOpponent("go")

	_, err := d.Respond(context.Background())
	if !errors.Is(err, providerErr) {
		t.Fatalf("Expected the provider error to propagate, got %v", err)
	}
	// The failed turn must not leave a partial assistant message behind.
	for _, msg := range d.History() {
		if msg.Role == "assistant" {
			t.Errorf("Failed turn left an assistant message in history: %+v", msg)
		}
	}
}
