package shell

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/tokenring-ai/local-filesystem/internal/logging"
	"github.com/tokenring-ai/local-filesystem/types"
)

// Provider exposes interactive shell sessions as a tool provider.
type Provider struct {
	manager *Manager
}

// NewProvider creates a shell provider whose sessions are confined by the
// resolver.
func NewProvider(resolver PathResolver, log *logging.Logger) *Provider {
	return &Provider{manager: NewManager(resolver, log)}
}

// Manager returns the underlying session manager for direct use.
func (p *Provider) Manager() *Manager {
	return p.manager
}

// Close terminates every open session.
func (p *Provider) Close() {
	p.manager.KillAll()
}

// Definition returns service metadata.
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "shell",
		Name:        "Shell Session Service",
		Description: "Interactive PTY-backed shell sessions confined to the sandbox root",
		Category:    types.CategoryShell,
		Capabilities: []string{
			"pty", "interactive", "sessions", "resize",
		},
		Tools: p.getTools(),
	}
}

func (p *Provider) getTools() []types.Tool {
	sessionParam := types.Parameter{Name: "session_id", Type: "string", Description: "Shell session ID", Required: true}
	return []types.Tool{
		{
			ID: "shell.open", Name: "Open Shell Session",
			Description: "Start an interactive shell session with a PTY",
			Parameters: []types.Parameter{
				{Name: "shell", Type: "string", Description: "Shell binary (defaults to $SHELL, then /bin/sh)", Required: false},
				{Name: "working_dir", Type: "string", Description: "Working directory inside the root (defaults to the root)", Required: false},
				{Name: "cols", Type: "number", Description: "Terminal width (default 80)", Required: false},
				{Name: "rows", Type: "number", Description: "Terminal height (default 24)", Required: false},
				{Name: "env", Type: "object", Description: "Environment overrides", Required: false},
			},
			Returns: "object",
		},
		{
			ID: "shell.write", Name: "Write to Session",
			Description: "Send input to a shell session",
			Parameters: []types.Parameter{
				sessionParam,
				{Name: "input", Type: "string", Description: "Input to send", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID: "shell.read", Name: "Read from Session",
			Description: "Drain buffered output from a shell session",
			Parameters:  []types.Parameter{sessionParam},
			Returns:     "object",
		},
		{
			ID: "shell.resize", Name: "Resize Session",
			Description: "Change a session's terminal dimensions",
			Parameters: []types.Parameter{
				sessionParam,
				{Name: "cols", Type: "number", Description: "New width", Required: true},
				{Name: "rows", Type: "number", Description: "New height", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID: "shell.list", Name: "List Sessions",
			Description: "List every known shell session",
			Parameters:  []types.Parameter{},
			Returns:     "array",
		},
		{
			ID: "shell.get", Name: "Get Session",
			Description: "Get a snapshot of one shell session",
			Parameters:  []types.Parameter{sessionParam},
			Returns:     "object",
		},
		{
			ID: "shell.kill", Name: "Kill Session",
			Description: "Terminate a shell session (idempotent)",
			Parameters:  []types.Parameter{sessionParam},
			Returns:     "boolean",
		},
	}
}

// Execute runs a shell session operation.
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "shell.open":
		return p.open(params)
	case "shell.write":
		return p.write(params)
	case "shell.read":
		return p.read(params)
	case "shell.resize":
		return p.resize(params)
	case "shell.list":
		return p.list()
	case "shell.get":
		return p.get(params)
	case "shell.kill":
		return p.kill(params)
	default:
		return failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (p *Provider) open(params map[string]interface{}) (*types.Result, error) {
	shell, _ := params["shell"].(string)
	workingDir, _ := params["working_dir"].(string)

	cols := 0
	if c, ok := params["cols"].(float64); ok {
		cols = int(c)
	}
	rows := 0
	if r, ok := params["rows"].(float64); ok {
		rows = int(r)
	}

	var env map[string]string
	if envMap, ok := params["env"].(map[string]interface{}); ok {
		env = make(map[string]string, len(envMap))
		for k, v := range envMap {
			if str, ok := v.(string); ok {
				env[k] = str
			}
		}
	}

	info, err := p.manager.Open(shell, workingDir, cols, rows, env)
	if err != nil {
		return failure(fmt.Sprintf("open failed: %v", err))
	}
	return success(sessionData(*info))
}

func (p *Provider) write(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok || sessionID == "" {
		return failure("session_id parameter required")
	}
	input, ok := params["input"].(string)
	if !ok {
		return failure("input parameter required")
	}
	if err := p.manager.Write(sessionID, []byte(input)); err != nil {
		return failure(fmt.Sprintf("write failed: %v", err))
	}
	return success(map[string]interface{}{"written": true, "session_id": sessionID})
}

func (p *Provider) read(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok || sessionID == "" {
		return failure("session_id parameter required")
	}
	output, err := p.manager.Read(sessionID)
	if err != nil {
		return failure(fmt.Sprintf("read failed: %v", err))
	}
	return success(map[string]interface{}{
		"output":        string(output),
		"output_base64": base64.StdEncoding.EncodeToString(output),
		"length":        len(output),
	})
}

func (p *Provider) resize(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok || sessionID == "" {
		return failure("session_id parameter required")
	}
	cols, ok := params["cols"].(float64)
	if !ok {
		return failure("cols parameter required")
	}
	rows, ok := params["rows"].(float64)
	if !ok {
		return failure("rows parameter required")
	}
	if err := p.manager.Resize(sessionID, int(cols), int(rows)); err != nil {
		return failure(fmt.Sprintf("resize failed: %v", err))
	}
	return success(map[string]interface{}{"resized": true, "session_id": sessionID})
}

func (p *Provider) list() (*types.Result, error) {
	sessions := p.manager.List()
	results := make([]map[string]interface{}, 0, len(sessions))
	for _, info := range sessions {
		results = append(results, sessionData(info))
	}
	return success(map[string]interface{}{"sessions": results, "count": len(results)})
}

func (p *Provider) get(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok || sessionID == "" {
		return failure("session_id parameter required")
	}
	info, err := p.manager.Get(sessionID)
	if err != nil {
		return failure(fmt.Sprintf("get failed: %v", err))
	}
	return success(sessionData(*info))
}

func (p *Provider) kill(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok || sessionID == "" {
		return failure("session_id parameter required")
	}
	if err := p.manager.Kill(sessionID); err != nil {
		return failure(fmt.Sprintf("kill failed: %v", err))
	}
	return success(map[string]interface{}{"killed": true, "session_id": sessionID})
}

func sessionData(info SessionInfo) map[string]interface{} {
	return map[string]interface{}{
		"id":          info.ID,
		"shell":       info.Shell,
		"working_dir": info.WorkingDir,
		"cols":        info.Cols,
		"rows":        info.Rows,
		"started_at":  info.StartedAt,
		"active":      info.Active,
	}
}

func success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

func failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}
