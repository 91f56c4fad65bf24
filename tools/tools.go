package tools

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/m4xw311/podium/config"
	"github.com/m4xw311/podium/console"
	"github.com/m4xw311/podium/errors"
)

// Tool defines the interface for any capability a debater can invoke.
type Tool interface {
	Name() string
	Description() string
	// Schema returns the JSON schema object describing the tool's arguments,
	// e.g. {"type": "object", "properties": {...}, "required": [...]}.
	Schema() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
}

// Provider is one source of tools: an MCP server session or the built-in set.
type Provider interface {
	Name() string
	Tools() []Tool
	Close() error
}

// Dialer establishes a session with one configured tool server.
type Dialer func(ctx context.Context, spec config.MCPServer) (Provider, error)

// ErrNotFound is returned by Execute when no connected provider routes the
// requested tool name.
var ErrNotFound = stderrors.New("tool not found")

// ObjectSchema builds a JSON schema object for a tool's arguments.
func ObjectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Gateway presents a single tool surface spanning every connected provider.
// Tool names are globally unique; a provider advertising an already routed
// name fails registration rather than shadowing the earlier tool.
type Gateway struct {
	providers []Provider
	routes    map[string]routedTool
	order     []string
	sink      console.Sink
}

type routedTool struct {
	tool     Tool
	provider string
}

// NewGateway returns an empty gateway. With no providers registered it is a
// no-op: Available returns nothing and Execute fails with ErrNotFound.
// Infrastructure warnings go to sink; nil means stderr.
func NewGateway(sink console.Sink) *Gateway {
	if sink == nil {
		sink = console.New(os.Stderr, console.ToolVerbosityNone)
	}
	return &Gateway{routes: make(map[string]routedTool), sink: sink}
}

// Register adds a provider and routes its advertised tools. On a tool name
// collision the provider is rejected whole and closed; previously routed
// tools are untouched.
func (g *Gateway) Register(p Provider) error {
	advertised := p.Tools()
	for _, t := range advertised {
		if existing, ok := g.routes[t.Name()]; ok {
			if err := p.Close(); err != nil {
				g.sink.Warning("error closing tool provider '%s': %v", p.Name(), err)
			}
			return errors.New("tool '%s' from provider '%s' collides with provider '%s'",
				t.Name(), p.Name(), existing.provider)
		}
	}
	for _, t := range advertised {
		g.routes[t.Name()] = routedTool{tool: t, provider: p.Name()}
		g.order = append(g.order, t.Name())
	}
	g.providers = append(g.providers, p)
	return nil
}

// Connect dials every configured server and registers the survivors. Dialing
// runs concurrently since the servers are independent subprocesses, but
// registration happens in configuration order so duplicate-name conflicts
// resolve deterministically. A failed server is reported and skipped; it
// never aborts its siblings. Returns how many servers connected out of how
// many were attempted.
func (g *Gateway) Connect(ctx context.Context, servers []config.MCPServer, dial Dialer) (connected, attempted int) {
	attempted = len(servers)
	if attempted == 0 {
		return 0, 0
	}

	dialed := make([]Provider, len(servers))
	dialErrs := make([]error, len(servers))
	var wg sync.WaitGroup
	for i, spec := range servers {
		wg.Add(1)
		go func(i int, spec config.MCPServer) {
			defer wg.Done()
			dialed[i], dialErrs[i] = dial(ctx, spec)
		}(i, spec)
	}
	wg.Wait()

	for i, spec := range servers {
		if dialErrs[i] != nil {
			g.sink.Warning("could not connect to MCP server '%s': %v", spec.Name, dialErrs[i])
			continue
		}
		if err := g.Register(dialed[i]); err != nil {
			g.sink.Warning("rejected MCP server '%s': %v", spec.Name, err)
			continue
		}
		connected++
	}
	return connected, attempted
}

// Available returns a snapshot of every routable tool in registration order.
func (g *Gateway) Available() []Tool {
	ts := make([]Tool, 0, len(g.order))
	for _, name := range g.order {
		ts = append(ts, g.routes[name].tool)
	}
	return ts
}

// Execute routes a call to the provider owning the named tool. The call
// blocks until the provider responds; provider-side errors are returned, not
// panicked.
func (g *Gateway) Execute(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	rt, ok := g.routes[name]
	if !ok {
		return "", errors.Wrapf(ErrNotFound, "'%s' is not provided by any connected server", name)
	}
	return rt.tool.Execute(ctx, args)
}

// Close tears down every provider session. Safe to call on a gateway that
// never connected anything.
func (g *Gateway) Close() {
	for _, p := range g.providers {
		if err := p.Close(); err != nil {
			g.sink.Warning("error closing tool provider '%s': %v", p.Name(), err)
		}
	}
	g.providers = nil
}

// isPathRestricted checks if a path matches any of the glob patterns.
func isPathRestricted(path string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		match, err := doublestar.PathMatch(pattern, path)
		if err != nil {
			return false, errors.Wrapf(err, "invalid glob pattern '%s'", pattern)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// isCommandAllowed checks if a command is in the allowlist (with regex support).
func isCommandAllowed(command string, allowed []string) (bool, error) {
	if len(strings.Fields(command)) == 0 {
		return false, nil
	}
	for _, pattern := range allowed {
		re, err := regexp.Compile(pattern)
		if err != nil {
			// Fall back to literal comparison when the pattern is not a
			// valid regex.
			fmt.Fprintf(os.Stderr, "Warning: invalid regex in allowed_commands '%s': %v\n", pattern, err)
			if command == pattern {
				return true, nil
			}
			continue
		}
		if re.MatchString(command) {
			return true, nil
		}
	}
	return false, nil
}
