// Package mcp connects the gateway to external Model Context Protocol
// servers over stdio. Each server runs as a subprocess launched with the
// configured command, arguments and environment.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/m4xw311/podium/config"
	"github.com/m4xw311/podium/errors"
	"github.com/m4xw311/podium/tools"
)

// Client manages the session with a single MCP server subprocess. It
// implements tools.Provider.
type Client struct {
	name  string
	cmd   *exec.Cmd
	conn  *mcpsdk.ClientSession
	tools []tools.Tool
}

// Dial starts the server subprocess, performs the MCP handshake and collects
// the advertised tool list. On any failure the subprocess is killed before
// returning.
func Dial(ctx context.Context, spec config.MCPServer) (tools.Provider, error) {
	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Stderr = os.Stderr
	if len(spec.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range spec.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	mcpClient := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "podium", Version: "v1.0.0"}, nil)
	conn, err := mcpClient.Connect(ctx, mcpsdk.NewCommandTransport(cmd))
	if err != nil {
		// The subprocess may never have started (missing binary); only a
		// spawned process can be killed.
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		return nil, errors.Wrapf(err, "failed to connect to MCP server '%s'", spec.Name)
	}

	client := &Client{
		name: spec.Name,
		cmd:  cmd,
		conn: conn,
	}

	toolListParams := &mcpsdk.ListToolsParams{}
	for {
		toolList, err := conn.ListTools(ctx, toolListParams)
		if err != nil {
			conn.Close()
			if cmd.Process != nil {
				cmd.Process.Kill()
			}
			return nil, errors.Wrapf(err, "failed to list tools from MCP server '%s'", spec.Name)
		}

		for _, t := range toolList.Tools {
			client.tools = append(client.tools, &serverTool{
				serverName:  spec.Name,
				toolName:    t.Name,
				description: t.Description,
				schema:      convertSchema(t.InputSchema),
				client:      client,
			})
		}

		if toolList.NextCursor == "" {
			break
		}
		toolListParams.Cursor = toolList.NextCursor
	}

	return client, nil
}

// Name returns the configured server name.
func (c *Client) Name() string { return c.name }

// Tools returns the tools advertised during the handshake.
func (c *Client) Tools() []tools.Tool { return c.tools }

// Close ends the session and terminates the server subprocess.
func (c *Client) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		return c.cmd.Process.Kill()
	}
	return nil
}

// convertSchema turns the SDK's schema type into the plain JSON object the
// LLM clients pass through to their APIs.
func convertSchema(in interface{}) map[string]interface{} {
	fallback := map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
	if in == nil {
		return fallback
	}
	data, err := json.Marshal(in)
	if err != nil {
		return fallback
	}
	var schema map[string]interface{}
	if err := json.Unmarshal(data, &schema); err != nil || schema == nil {
		return fallback
	}
	return schema
}

// serverTool is one tool advertised by an MCP server, satisfying tools.Tool.
type serverTool struct {
	serverName  string
	toolName    string
	description string
	schema      map[string]interface{}
	client      *Client
}

func (t *serverTool) Name() string                   { return t.toolName }
func (t *serverTool) Description() string            { return t.description }
func (t *serverTool) Schema() map[string]interface{} { return t.schema }

// Execute sends the call to the owning server and flattens the text content
// of the result. A result the server marks as an error is surfaced as a Go
// error carrying the server's message.
func (t *serverTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	result, err := t.client.conn.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      t.toolName,
		Arguments: args,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to call tool '%s' on server '%s'", t.toolName, t.serverName)
	}

	op := ""
	for _, c := range result.Content {
		if text, ok := c.(*mcpsdk.TextContent); ok {
			op += text.Text
		}
	}
	if result.IsError {
		return "", errors.New("tool '%s' reported an error: %s", t.toolName, op)
	}
	return op, nil
}
