package tools

import (
	"github.com/m4xw311/podium/config"
	"github.com/m4xw311/podium/errors"
)

// BuiltinProvider exposes the process-local tools as a regular provider so
// the gateway routes them exactly like MCP server tools.
type BuiltinProvider struct {
	tools []Tool
}

// NewBuiltin selects the named built-in tools. Supported names: read_file,
// write_file, execute_command. An unknown name is an error so a typo in the
// config does not silently drop a tool.
func NewBuiltin(cfg *config.Config, names []string) (*BuiltinProvider, error) {
	p := &BuiltinProvider{}
	for _, name := range names {
		switch name {
		case "read_file":
			p.tools = append(p.tools, &ReadFileTool{fsAccess: &cfg.FilesystemAccess})
		case "write_file":
			p.tools = append(p.tools, &WriteFileTool{fsAccess: &cfg.FilesystemAccess})
		case "execute_command":
			p.tools = append(p.tools, &ExecuteCommandTool{allowedCommands: cfg.AllowedCommands})
		default:
			return nil, errors.New("unknown builtin tool '%s'", name)
		}
	}
	return p, nil
}

func (p *BuiltinProvider) Name() string  { return "builtin" }
func (p *BuiltinProvider) Tools() []Tool { return p.tools }
func (p *BuiltinProvider) Close() error  { return nil }
