package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/m4xw311/podium/config"
)

// recordingSink captures warnings for inspection; the other events are
// ignored.
type recordingSink struct {
	warnings []string
}

func (s *recordingSink) Banner(topic string, rounds int) {}

func (s *recordingSink) Opening(name, statement string) {}

func (s *recordingSink) RoundHeader(round, total int) {}

func (s *recordingSink) Message(name, content string) {}

func (s *recordingSink) ToolCall(caller, tool string, args map[string]interface{}) {}

func (s *recordingSink) ToolResult(caller, tool, result string) {}

func (s *recordingSink) Conclusion(topic string, completedRounds int) {}

func (s *recordingSink) Warning(format string, args ...interface{}) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}

// fakeTool is a minimal Tool for gateway tests.
type fakeTool struct {
	name   string
	result string
	err    error
}

func (t *fakeTool) Name() string        { return t.name }
func (t *fakeTool) Description() string { return "fake tool " + t.name }
func (t *fakeTool) Schema() map[string]interface{} {
	return ObjectSchema(nil)
}
func (t *fakeTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	return t.result, t.err
}

// fakeProvider is a minimal Provider for gateway tests.
type fakeProvider struct {
	name     string
	tools    []Tool
	closed   bool
	closeErr error
}

func (p *fakeProvider) Name() string  { return p.name }
func (p *fakeProvider) Tools() []Tool { return p.tools }
func (p *fakeProvider) Close() error {
	p.closed = true
	return p.closeErr
}

func TestConnectPartialFailure(t *testing.T) {
	servers := []config.MCPServer{
		{Name: "broken", Command: "broken-server"},
		{Name: "search", Command: "search-server"},
	}
	dial := func(ctx context.Context, spec config.MCPServer) (Provider, error) {
		if spec.Name == "broken" {
			return nil, errors.New("spawn failed")
		}
		return &fakeProvider{
			name:  spec.Name,
			tools: []Tool{&fakeTool{name: "web_search", result: "ok"}},
		}, nil
	}

	sink := &recordingSink{}
	g := NewGateway(sink)
	connected, attempted := g.Connect(context.Background(), servers, dial)
	if connected != 1 || attempted != 2 {
		t.Fatalf("Expected (1, 2), got (%d, %d)", connected, attempted)
	}

	available := g.Available()
	if len(available) != 1 || available[0].Name() != "web_search" {
		t.Errorf("Expected only the surviving provider's tool, got %v", available)
	}

	// The failure is reported through the sink, not swallowed.
	if len(sink.warnings) != 1 || !strings.Contains(sink.warnings[0], "broken") {
		t.Errorf("Expected a warning naming the failed server, got %v", sink.warnings)
	}
}

func TestConnectNoServers(t *testing.T) {
	g := NewGateway(&recordingSink{})
	connected, attempted := g.Connect(context.Background(), nil, nil)
	if connected != 0 || attempted != 0 {
		t.Errorf("Expected (0, 0), got (%d, %d)", connected, attempted)
	}
	if len(g.Available()) != 0 {
		t.Errorf("Empty gateway must advertise no tools")
	}
}

func TestRegisterDuplicateToolName(t *testing.T) {
	sink := &recordingSink{}
	g := NewGateway(sink)
	first := &fakeProvider{name: "one", tools: []Tool{&fakeTool{name: "web_search", result: "from one"}}}
	second := &fakeProvider{
		name:     "two",
		tools:    []Tool{&fakeTool{name: "web_search", result: "from two"}},
		closeErr: errors.New("session already torn down"),
	}

	if err := g.Register(first); err != nil {
		t.Fatalf("First registration failed: %v", err)
	}
	if err := g.Register(second); err == nil {
		t.Fatal("Expected duplicate tool name to fail registration")
	}
	if !second.closed {
		t.Errorf("Rejected provider must be closed")
	}
	// A failing close on the reject path is warned about, like in Close.
	if len(sink.warnings) != 1 || !strings.Contains(sink.warnings[0], "session already torn down") {
		t.Errorf("Expected a warning for the failed close, got %v", sink.warnings)
	}

	// The earlier registration must still route.
	result, err := g.Execute(context.Background(), "web_search", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result != "from one" {
		t.Errorf("Expected the first provider's tool to survive, got '%s'", result)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	g := NewGateway(&recordingSink{})
	_, err := g.Execute(context.Background(), "nope", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestExecuteSurfacesToolError(t *testing.T) {
	g := NewGateway(&recordingSink{})
	toolErr := errors.New("provider exploded")
	p := &fakeProvider{name: "one", tools: []Tool{&fakeTool{name: "web_search", err: toolErr}}}
	if err := g.Register(p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err := g.Execute(context.Background(), "web_search", nil)
	if !errors.Is(err, toolErr) {
		t.Fatalf("Expected the tool's error, got %v", err)
	}
}

func TestCloseClosesAllProviders(t *testing.T) {
	g := NewGateway(&recordingSink{})
	one := &fakeProvider{name: "one", tools: []Tool{&fakeTool{name: "a"}}}
	two := &fakeProvider{name: "two", tools: []Tool{&fakeTool{name: "b"}}}
	g.Register(one)
	g.Register(two)

	g.Close()
	if !one.closed || !two.closed {
		t.Errorf("Close must tear down every provider: one=%v two=%v", one.closed, two.closed)
	}
}

func TestAvailableKeepsRegistrationOrder(t *testing.T) {
	g := NewGateway(&recordingSink{})
	g.Register(&fakeProvider{name: "one", tools: []Tool{&fakeTool{name: "zulu"}, &fakeTool{name: "alpha"}}})
	g.Register(&fakeProvider{name: "two", tools: []Tool{&fakeTool{name: "mike"}}})

	got := g.Available()
	want := []string{"zulu", "alpha", "mike"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d tools, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i].Name() != name {
			t.Errorf("Expected tool %d to be '%s', got '%s'", i, name, got[i].Name())
		}
	}
}

func TestNewBuiltinSelection(t *testing.T) {
	cfg := &config.Config{AllowedCommands: []string{"^echo .*"}}

	p, err := NewBuiltin(cfg, []string{"read_file", "execute_command"})
	if err != nil {
		t.Fatalf("NewBuiltin failed: %v", err)
	}
	if len(p.Tools()) != 2 {
		t.Errorf("Expected 2 tools, got %d", len(p.Tools()))
	}

	if _, err := NewBuiltin(cfg, []string{"teleport"}); err == nil {
		t.Error("Expected unknown builtin tool name to fail")
	}
}

func TestIsCommandAllowed(t *testing.T) {
	allowed := []string{"^echo .*", "^ls$"}

	cases := []struct {
		command string
		want    bool
	}{
		{"echo hello", true},
		{"ls", true},
		{"ls -la", false},
		{"rm -rf /", false},
		{"", false},
	}
	for _, c := range cases {
		got, err := isCommandAllowed(c.command, allowed)
		if err != nil {
			t.Errorf("isCommandAllowed(%q) failed: %v", c.command, err)
			continue
		}
		if got != c.want {
			t.Errorf("isCommandAllowed(%q) = %v, want %v", c.command, got, c.want)
		}
	}
}

func TestIsPathRestricted(t *testing.T) {
	patterns := []string{".podium", ".podium/**", "**/*.secret"}

	cases := []struct {
		path string
		want bool
	}{
		{".podium/config.yaml", true},
		{"notes/plan.secret", true},
		{"notes/plan.txt", false},
	}
	for _, c := range cases {
		got, err := isPathRestricted(c.path, patterns)
		if err != nil {
			t.Errorf("isPathRestricted(%q) failed: %v", c.path, err)
			continue
		}
		if got != c.want {
			t.Errorf("isPathRestricted(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestObjectSchema(t *testing.T) {
	schema := ObjectSchema(map[string]interface{}{
		"path": map[string]interface{}{"type": "string"},
	}, "path")

	if schema["type"] != "object" {
		t.Errorf("Expected object schema, got %v", schema["type"])
	}
	req, ok := schema["required"].([]string)
	if !ok || len(req) != 1 || req[0] != "path" {
		t.Errorf("Expected required=[path], got %v", schema["required"])
	}

	empty := ObjectSchema(nil)
	if _, ok := empty["required"]; ok {
		t.Errorf("Schema without required fields must omit the key")
	}
}
