package filesystem

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tokenring-ai/local-filesystem/types"
)

// Provider exposes the Service as a tool provider. It is the single
// capability-set interface for hosts; the ignore predicate is the
// host-supplied strategy applied to every traversal, search, glob, and watch
// call dispatched through it.
type Provider struct {
	svc     *Service
	ignore  IgnoreFunc
	watches sync.Map // watch ID -> *watchEntry
}

// watchEntry buffers events from one watch session until the host drains
// them.
type watchEntry struct {
	session *WatchSession
	mu      sync.Mutex
	events  []Event
	errs    []string
}

// NewProvider wraps a Service. The ignore predicate may be nil.
func NewProvider(svc *Service, ignore IgnoreFunc) *Provider {
	return &Provider{svc: svc, ignore: ignore}
}

// Definition returns service metadata.
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "filesystem",
		Name:        "Local Filesystem Service",
		Description: "Sandboxed file, search, watch, and command operations confined to a root directory",
		Category:    types.CategoryFilesystem,
		Capabilities: []string{
			"read", "write", "delete", "rename", "copy", "stat", "chmod",
			"walk", "search", "glob", "watch", "exec", "archives", "formats",
		},
		Tools: p.getTools(),
	}
}

var (
	archiveCreateParams = []types.Parameter{
		{Name: "source", Type: "string", Description: "Source directory", Required: true},
		{Name: "output", Type: "string", Description: "Output archive path", Required: true},
	}
	archiveExtractParams = []types.Parameter{
		{Name: "archive", Type: "string", Description: "Archive path", Required: true},
		{Name: "destination", Type: "string", Description: "Destination directory", Required: true},
	}
)

func (p *Provider) getTools() []types.Tool {
	pathParam := types.Parameter{Name: "path", Type: "string", Description: "File or directory path", Required: true}
	return []types.Tool{
		{
			ID: "filesystem.read", Name: "Read File",
			Description: "Read file contents as text",
			Parameters:  []types.Parameter{pathParam},
			Returns:     "string",
		},
		{
			ID: "filesystem.write", Name: "Write File",
			Description: "Write text to a file, creating parent directories (overwrites existing)",
			Parameters: []types.Parameter{
				pathParam,
				{Name: "content", Type: "string", Description: "Content to write", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID: "filesystem.delete", Name: "Delete File",
			Description: "Delete a single file (not a directory)",
			Parameters:  []types.Parameter{pathParam},
			Returns:     "boolean",
		},
		{
			ID: "filesystem.rename", Name: "Rename",
			Description: "Rename or move a file or directory (destination must not exist)",
			Parameters: []types.Parameter{
				{Name: "old_path", Type: "string", Description: "Source path", Required: true},
				{Name: "new_path", Type: "string", Description: "Destination path", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID: "filesystem.copy", Name: "Copy",
			Description: "Copy a file or directory recursively",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Source path", Required: true},
				{Name: "destination", Type: "string", Description: "Destination path", Required: true},
				{Name: "overwrite", Type: "boolean", Description: "Replace existing destination", Required: false},
			},
			Returns: "boolean",
		},
		{
			ID: "filesystem.exists", Name: "Check Existence",
			Description: "Check whether a path exists (never fails)",
			Parameters:  []types.Parameter{pathParam},
			Returns:     "boolean",
		},
		{
			ID: "filesystem.stat", Name: "File Info",
			Description: "Get file or directory metadata",
			Parameters:  []types.Parameter{pathParam},
			Returns:     "object",
		},
		{
			ID: "filesystem.mkdir", Name: "Create Directory",
			Description: "Create a directory, idempotent when it already exists",
			Parameters: []types.Parameter{
				pathParam,
				{Name: "recursive", Type: "boolean", Description: "Create missing parents", Required: false},
			},
			Returns: "boolean",
		},
		{
			ID: "filesystem.chmod", Name: "Change Mode",
			Description: "Apply a permission mode to a path",
			Parameters: []types.Parameter{
				pathParam,
				{Name: "mode", Type: "number", Description: "Octal permission bits", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID: "filesystem.walk", Name: "Walk Tree",
			Description: "List entries pre-order, ignore-filtered; directories carry a trailing separator",
			Parameters: []types.Parameter{
				pathParam,
				{Name: "recursive", Type: "boolean", Description: "Descend into subdirectories", Required: false},
			},
			Returns: "array",
		},
		{
			ID: "filesystem.search", Name: "Search Content",
			Description: "Substring search across text files with optional context lines",
			Parameters: []types.Parameter{
				{Name: "text", Type: "string", Description: "Substring to search for", Required: true},
				{Name: "context_before", Type: "number", Description: "Context lines before each match", Required: false},
				{Name: "context_after", Type: "number", Description: "Context lines after each match", Required: false},
			},
			Returns: "array",
		},
		{
			ID: "filesystem.glob", Name: "Glob",
			Description: "Expand a glob pattern (** supported, dotfiles included, files only)",
			Parameters: []types.Parameter{
				{Name: "pattern", Type: "string", Description: "Glob pattern (e.g., '**/*.go')", Required: true},
			},
			Returns: "array",
		},
		{
			ID: "filesystem.find", Name: "Find Files",
			Description: "Find files by base-name pattern (fast recursive)",
			Parameters: []types.Parameter{
				pathParam,
				{Name: "pattern", Type: "string", Description: "File pattern (e.g., '*.go')", Required: true},
			},
			Returns: "array",
		},
		{
			ID: "filesystem.recent", Name: "Recent Files",
			Description: "Find recently modified files, newest first",
			Parameters: []types.Parameter{
				{Name: "hours", Type: "number", Description: "Hours ago (default 24)", Required: false},
				{Name: "limit", Type: "number", Description: "Max results (default 50)", Required: false},
			},
			Returns: "array",
		},
		{
			ID: "filesystem.mime", Name: "Detect MIME Type",
			Description: "Detect the MIME type of a file",
			Parameters:  []types.Parameter{pathParam},
			Returns:     "string",
		},
		{
			ID: "filesystem.run", Name: "Run Command",
			Description: "Run a subprocess with clamped timeout and captured output; failure is reported in the result, not raised",
			Parameters: []types.Parameter{
				{Name: "command", Type: "string", Description: "Shell command string", Required: false},
				{Name: "argv", Type: "array", Description: "Argument vector (no shell)", Required: false},
				{Name: "timeout_seconds", Type: "number", Description: "Clamped to [5, 600]", Required: false},
				{Name: "env", Type: "object", Description: "Environment overrides", Required: false},
				{Name: "working_dir", Type: "string", Description: "Working directory inside the root", Required: false},
			},
			Returns: "object",
		},
		{
			ID: "filesystem.watch.open", Name: "Open Watch",
			Description: "Start a debounced change-notification session over a directory",
			Parameters: []types.Parameter{
				pathParam,
				{Name: "poll_interval_ms", Type: "number", Description: "Poll interval in milliseconds", Required: false},
				{Name: "stability_ms", Type: "number", Description: "Stability threshold in milliseconds", Required: false},
			},
			Returns: "object",
		},
		{
			ID: "filesystem.watch.events", Name: "Drain Watch Events",
			Description: "Return and clear buffered events for a watch session",
			Parameters: []types.Parameter{
				{Name: "watch_id", Type: "string", Description: "Watch session ID", Required: true},
			},
			Returns: "array",
		},
		{
			ID: "filesystem.watch.close", Name: "Close Watch",
			Description: "Release a watch session",
			Parameters: []types.Parameter{
				{Name: "watch_id", Type: "string", Description: "Watch session ID", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID: "filesystem.zip.create", Name: "Create ZIP",
			Description: "Pack a directory into a ZIP archive",
			Parameters:  archiveCreateParams,
			Returns:     "boolean",
		},
		{
			ID: "filesystem.zip.extract", Name: "Extract ZIP",
			Description: "Unpack a ZIP archive into a directory",
			Parameters:  archiveExtractParams,
			Returns:     "boolean",
		},
		{
			ID: "filesystem.targz.create", Name: "Create TAR.GZ",
			Description: "Pack a directory into a gzip-compressed tarball",
			Parameters:  archiveCreateParams,
			Returns:     "boolean",
		},
		{
			ID: "filesystem.targz.extract", Name: "Extract TAR.GZ",
			Description: "Unpack a gzip-compressed tarball into a directory",
			Parameters:  archiveExtractParams,
			Returns:     "boolean",
		},
		{
			ID: "filesystem.tarzst.create", Name: "Create TAR.ZST",
			Description: "Pack a directory into a zstd-compressed tarball",
			Parameters:  archiveCreateParams,
			Returns:     "boolean",
		},
		{
			ID: "filesystem.tarzst.extract", Name: "Extract TAR.ZST",
			Description: "Unpack a zstd-compressed tarball into a directory",
			Parameters:  archiveExtractParams,
			Returns:     "boolean",
		},
		{
			ID: "filesystem.json.read", Name: "Read JSON",
			Description: "Read and parse a JSON file",
			Parameters:  []types.Parameter{pathParam},
			Returns:     "object",
		},
		{
			ID: "filesystem.json.write", Name: "Write JSON",
			Description: "Write a value as indented JSON",
			Parameters: []types.Parameter{
				pathParam,
				{Name: "data", Type: "object", Description: "Value to write", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID: "filesystem.yaml.read", Name: "Read YAML",
			Description: "Read and parse a YAML file",
			Parameters:  []types.Parameter{pathParam},
			Returns:     "object",
		},
		{
			ID: "filesystem.yaml.write", Name: "Write YAML",
			Description: "Write a value as YAML",
			Parameters: []types.Parameter{
				pathParam,
				{Name: "data", Type: "object", Description: "Value to write", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID: "filesystem.toml.read", Name: "Read TOML",
			Description: "Read and parse a TOML file",
			Parameters:  []types.Parameter{pathParam},
			Returns:     "object",
		},
		{
			ID: "filesystem.toml.write", Name: "Write TOML",
			Description: "Write a value as TOML",
			Parameters: []types.Parameter{
				pathParam,
				{Name: "data", Type: "object", Description: "Value to write", Required: true},
			},
			Returns: "boolean",
		},
	}
}

// Execute runs a filesystem operation.
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "filesystem.read":
		return p.read(params)
	case "filesystem.write":
		return p.write(params)
	case "filesystem.delete":
		return p.delete(params)
	case "filesystem.rename":
		return p.rename(params)
	case "filesystem.copy":
		return p.copy(params)
	case "filesystem.exists":
		return p.exists(params)
	case "filesystem.stat":
		return p.stat(params)
	case "filesystem.mkdir":
		return p.mkdir(params)
	case "filesystem.chmod":
		return p.chmod(params)
	case "filesystem.walk":
		return p.walk(params)
	case "filesystem.search":
		return p.search(params)
	case "filesystem.glob":
		return p.glob(params)
	case "filesystem.find":
		return p.find(params)
	case "filesystem.recent":
		return p.recent(params)
	case "filesystem.mime":
		return p.mime(params)
	case "filesystem.run":
		return p.run(ctx, params)
	case "filesystem.watch.open":
		return p.watchOpen(params)
	case "filesystem.watch.events":
		return p.watchEvents(params)
	case "filesystem.watch.close":
		return p.watchClose(params)
	case "filesystem.zip.create":
		return p.archiveCreate(params, p.svc.CreateZip)
	case "filesystem.zip.extract":
		return p.archiveExtract(params, p.svc.ExtractZip)
	case "filesystem.targz.create":
		return p.archiveCreate(params, p.svc.CreateTarGz)
	case "filesystem.targz.extract":
		return p.archiveExtract(params, p.svc.ExtractTarGz)
	case "filesystem.tarzst.create":
		return p.archiveCreate(params, p.svc.CreateTarZst)
	case "filesystem.tarzst.extract":
		return p.archiveExtract(params, p.svc.ExtractTarZst)
	case "filesystem.json.read":
		return p.jsonRead(params)
	case "filesystem.json.write":
		return p.jsonWrite(params)
	case "filesystem.yaml.read":
		return p.yamlRead(params)
	case "filesystem.yaml.write":
		return p.yamlWrite(params)
	case "filesystem.toml.read":
		return p.tomlRead(params)
	case "filesystem.toml.write":
		return p.tomlWrite(params)
	default:
		return Failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

// Close releases every watch session the provider opened.
func (p *Provider) Close() {
	p.watches.Range(func(key, value interface{}) bool {
		value.(*watchEntry).session.Close()
		p.watches.Delete(key)
		return true
	})
}

func (p *Provider) read(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	content, err := p.svc.ReadFile(path)
	if err != nil {
		return Failure(fmt.Sprintf("read failed: %v", err))
	}
	return Success(map[string]interface{}{"path": path, "content": content, "size": len(content)})
}

func (p *Provider) write(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	content, ok := params["content"].(string)
	if !ok {
		return Failure("content parameter required")
	}
	if err := p.svc.WriteFile(path, content); err != nil {
		return Failure(fmt.Sprintf("write failed: %v", err))
	}
	return Success(map[string]interface{}{"written": true, "path": path, "size": len(content)})
}

func (p *Provider) delete(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	if err := p.svc.DeleteFile(path); err != nil {
		return Failure(fmt.Sprintf("delete failed: %v", err))
	}
	return Success(map[string]interface{}{"deleted": true, "path": path})
}

func (p *Provider) rename(params map[string]interface{}) (*types.Result, error) {
	oldPath, ok := params["old_path"].(string)
	if !ok || oldPath == "" {
		return Failure("old_path parameter required")
	}
	newPath, ok := params["new_path"].(string)
	if !ok || newPath == "" {
		return Failure("new_path parameter required")
	}
	if err := p.svc.Rename(oldPath, newPath); err != nil {
		return Failure(fmt.Sprintf("rename failed: %v", err))
	}
	return Success(map[string]interface{}{"renamed": true, "old_path": oldPath, "new_path": newPath})
}

func (p *Provider) copy(params map[string]interface{}) (*types.Result, error) {
	source, ok := params["source"].(string)
	if !ok || source == "" {
		return Failure("source parameter required")
	}
	destination, ok := params["destination"].(string)
	if !ok || destination == "" {
		return Failure("destination parameter required")
	}
	overwrite, _ := params["overwrite"].(bool)
	if err := p.svc.Copy(source, destination, CopyOptions{Overwrite: overwrite}); err != nil {
		return Failure(fmt.Sprintf("copy failed: %v", err))
	}
	return Success(map[string]interface{}{"copied": true, "source": source, "destination": destination})
}

func (p *Provider) exists(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	return Success(map[string]interface{}{"exists": p.svc.Exists(path), "path": path})
}

func (p *Provider) stat(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	meta, err := p.svc.Stat(path)
	if err != nil {
		return Failure(fmt.Sprintf("stat failed: %v", err))
	}
	return Success(map[string]interface{}{
		"path":             meta.Path,
		"absolute_path":    meta.AbsolutePath,
		"is_file":          meta.IsFile,
		"is_directory":     meta.IsDirectory,
		"is_symbolic_link": meta.IsSymbolicLink,
		"size":             meta.Size,
		"created":          meta.Created.Unix(),
		"modified":         meta.Modified.Unix(),
		"accessed":         meta.Accessed.Unix(),
	})
}

func (p *Provider) mkdir(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	recursive := true
	if r, ok := params["recursive"].(bool); ok {
		recursive = r
	}
	if err := p.svc.CreateDirectory(path, recursive); err != nil {
		return Failure(fmt.Sprintf("mkdir failed: %v", err))
	}
	return Success(map[string]interface{}{"created": true, "path": path})
}

func (p *Provider) chmod(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	mode, ok := params["mode"].(float64)
	if !ok {
		return Failure("mode parameter required")
	}
	if err := p.svc.Chmod(path, os.FileMode(uint32(mode))); err != nil {
		return Failure(fmt.Sprintf("chmod failed: %v", err))
	}
	return Success(map[string]interface{}{"changed": true, "path": path})
}

func (p *Provider) walk(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	recursive := true
	if r, ok := params["recursive"].(bool); ok {
		recursive = r
	}
	seq, err := p.svc.Walk(path, WalkOptions{Ignore: p.ignore, Recursive: recursive})
	if err != nil {
		return Failure(fmt.Sprintf("walk failed: %v", err))
	}
	entries := []string{}
	for entry := range seq {
		entries = append(entries, entry)
	}
	return Success(map[string]interface{}{"path": path, "entries": entries, "count": len(entries)})
}

func (p *Provider) search(params map[string]interface{}) (*types.Result, error) {
	text, ok := params["text"].(string)
	if !ok || text == "" {
		return Failure("text parameter required")
	}
	opts := SearchOptions{Ignore: p.ignore}
	if n, ok := params["context_before"].(float64); ok {
		opts.ContextBefore = int(n)
	}
	if n, ok := params["context_after"].(float64); ok {
		opts.ContextAfter = int(n)
	}
	matches, err := p.svc.Search(text, opts)
	if err != nil {
		return Failure(fmt.Sprintf("search failed: %v", err))
	}
	results := make([]map[string]interface{}, 0, len(matches))
	for _, m := range matches {
		entry := map[string]interface{}{"file": m.File, "line": m.Line, "match": m.Match}
		if m.Content != "" {
			entry["content"] = m.Content
		}
		results = append(results, entry)
	}
	return Success(map[string]interface{}{"text": text, "matches": results, "count": len(results)})
}

func (p *Provider) glob(params map[string]interface{}) (*types.Result, error) {
	pattern, ok := params["pattern"].(string)
	if !ok || pattern == "" {
		return Failure("pattern parameter required")
	}
	matches, err := p.svc.Glob(pattern, GlobOptions{Ignore: p.ignore})
	if err != nil {
		return Failure(fmt.Sprintf("glob failed: %v", err))
	}
	return Success(map[string]interface{}{"pattern": pattern, "matches": matches, "count": len(matches)})
}

func (p *Provider) find(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	pattern, ok := params["pattern"].(string)
	if !ok || pattern == "" {
		return Failure("pattern parameter required")
	}
	matches, err := p.svc.Find(path, pattern, GlobOptions{Ignore: p.ignore})
	if err != nil {
		return Failure(fmt.Sprintf("find failed: %v", err))
	}
	return Success(map[string]interface{}{"path": path, "matches": matches, "count": len(matches)})
}

func (p *Provider) recent(params map[string]interface{}) (*types.Result, error) {
	hours := 24.0
	if h, ok := params["hours"].(float64); ok && h > 0 {
		hours = h
	}
	limit := 50
	if l, ok := params["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}
	files, err := p.svc.RecentFiles(time.Duration(hours)*time.Hour, limit, GlobOptions{Ignore: p.ignore})
	if err != nil {
		return Failure(fmt.Sprintf("recent failed: %v", err))
	}
	results := make([]map[string]interface{}, 0, len(files))
	for _, f := range files {
		results = append(results, map[string]interface{}{
			"path":     f.Path,
			"modified": f.Modified.Unix(),
			"size":     f.Size,
		})
	}
	return Success(map[string]interface{}{"files": results, "count": len(results)})
}

func (p *Provider) mime(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	mime, err := p.svc.MIMEType(path)
	if err != nil {
		return Failure(fmt.Sprintf("mime detection failed: %v", err))
	}
	return Success(map[string]interface{}{"path": path, "mime_type": mime})
}

func (p *Provider) run(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	opts := RunOptions{}
	if t, ok := params["timeout_seconds"].(float64); ok {
		seconds := int(t)
		opts.TimeoutSeconds = &seconds
	}
	if envMap, ok := params["env"].(map[string]interface{}); ok {
		opts.Env = make(map[string]string, len(envMap))
		for k, v := range envMap {
			if str, ok := v.(string); ok {
				opts.Env[k] = str
			}
		}
	}
	if wd, ok := params["working_dir"].(string); ok {
		opts.WorkingDirectory = wd
	}

	var result *CommandResult
	var err error
	if argvParam, ok := params["argv"].([]interface{}); ok {
		argv := make([]string, 0, len(argvParam))
		for _, a := range argvParam {
			if str, ok := a.(string); ok {
				argv = append(argv, str)
			}
		}
		result, err = p.svc.RunArgv(ctx, argv, opts)
	} else if command, ok := params["command"].(string); ok {
		result, err = p.svc.Run(ctx, command, opts)
	} else {
		return Failure("command or argv parameter required")
	}
	if err != nil {
		return Failure(fmt.Sprintf("run failed: %v", err))
	}
	return Success(map[string]interface{}{
		"ok":        result.OK,
		"exit_code": result.ExitCode,
		"stdout":    result.Stdout,
		"stderr":    result.Stderr,
		"error":     result.Error,
	})
}

func (p *Provider) watchOpen(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	opts := WatchOptions{Ignore: p.ignore}
	if ms, ok := params["poll_interval_ms"].(float64); ok && ms > 0 {
		opts.PollInterval = time.Duration(ms) * time.Millisecond
	}
	if ms, ok := params["stability_ms"].(float64); ok && ms > 0 {
		opts.StabilityThreshold = time.Duration(ms) * time.Millisecond
	}

	session, err := p.svc.Watch(path, opts)
	if err != nil {
		return Failure(fmt.Sprintf("watch failed: %v", err))
	}

	entry := &watchEntry{session: session}
	buffer := func(ev Event) {
		entry.mu.Lock()
		entry.events = append(entry.events, ev)
		entry.mu.Unlock()
	}
	session.On(EventAdd, buffer)
	session.On(EventChange, buffer)
	session.On(EventUnlink, buffer)
	session.On(EventReady, buffer)
	session.OnError(func(err error) {
		entry.mu.Lock()
		entry.errs = append(entry.errs, err.Error())
		entry.mu.Unlock()
	})

	watchID := uuid.NewString()
	p.watches.Store(watchID, entry)
	return Success(map[string]interface{}{"watch_id": watchID, "path": path})
}

func (p *Provider) watchEvents(params map[string]interface{}) (*types.Result, error) {
	watchID, ok := params["watch_id"].(string)
	if !ok || watchID == "" {
		return Failure("watch_id parameter required")
	}
	value, ok := p.watches.Load(watchID)
	if !ok {
		return Failure(fmt.Sprintf("watch not found: %s", watchID))
	}
	entry := value.(*watchEntry)

	entry.mu.Lock()
	events := entry.events
	errs := entry.errs
	entry.events = nil
	entry.errs = nil
	entry.mu.Unlock()

	results := make([]map[string]interface{}, 0, len(events))
	for _, ev := range events {
		results = append(results, map[string]interface{}{"type": string(ev.Type), "path": ev.Path})
	}
	return Success(map[string]interface{}{"events": results, "errors": errs, "count": len(results)})
}

func (p *Provider) watchClose(params map[string]interface{}) (*types.Result, error) {
	watchID, ok := params["watch_id"].(string)
	if !ok || watchID == "" {
		return Failure("watch_id parameter required")
	}
	value, ok := p.watches.LoadAndDelete(watchID)
	if !ok {
		return Failure(fmt.Sprintf("watch not found: %s", watchID))
	}
	value.(*watchEntry).session.Close()
	return Success(map[string]interface{}{"closed": true, "watch_id": watchID})
}

func (p *Provider) archiveCreate(params map[string]interface{}, pack func(string, string) error) (*types.Result, error) {
	source, ok := params["source"].(string)
	if !ok || source == "" {
		return Failure("source parameter required")
	}
	output, ok := params["output"].(string)
	if !ok || output == "" {
		return Failure("output parameter required")
	}
	if err := pack(source, output); err != nil {
		return Failure(fmt.Sprintf("archive failed: %v", err))
	}
	return Success(map[string]interface{}{"created": true, "output": output})
}

func (p *Provider) archiveExtract(params map[string]interface{}, unpack func(string, string) error) (*types.Result, error) {
	archive, ok := params["archive"].(string)
	if !ok || archive == "" {
		return Failure("archive parameter required")
	}
	destination, ok := params["destination"].(string)
	if !ok || destination == "" {
		return Failure("destination parameter required")
	}
	if err := unpack(archive, destination); err != nil {
		return Failure(fmt.Sprintf("extract failed: %v", err))
	}
	return Success(map[string]interface{}{"extracted": true, "destination": destination})
}

func (p *Provider) jsonRead(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	var parsed interface{}
	if err := p.svc.ReadJSON(path, &parsed); err != nil {
		return Failure(fmt.Sprintf("read failed: %v", err))
	}
	return Success(map[string]interface{}{"path": path, "data": parsed})
}

func (p *Provider) jsonWrite(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	data, ok := params["data"]
	if !ok {
		return Failure("data parameter required")
	}
	if err := p.svc.WriteJSON(path, data); err != nil {
		return Failure(fmt.Sprintf("write failed: %v", err))
	}
	return Success(map[string]interface{}{"written": true, "path": path})
}

func (p *Provider) yamlRead(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	var parsed interface{}
	if err := p.svc.ReadYAML(path, &parsed); err != nil {
		return Failure(fmt.Sprintf("read failed: %v", err))
	}
	return Success(map[string]interface{}{"path": path, "data": parsed})
}

func (p *Provider) yamlWrite(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	data, ok := params["data"]
	if !ok {
		return Failure("data parameter required")
	}
	if err := p.svc.WriteYAML(path, data); err != nil {
		return Failure(fmt.Sprintf("write failed: %v", err))
	}
	return Success(map[string]interface{}{"written": true, "path": path})
}

func (p *Provider) tomlWrite(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	data, ok := params["data"]
	if !ok {
		return Failure("data parameter required")
	}
	if err := p.svc.WriteTOML(path, data); err != nil {
		return Failure(fmt.Sprintf("write failed: %v", err))
	}
	return Success(map[string]interface{}{"written": true, "path": path})
}

func (p *Provider) tomlRead(params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	var parsed interface{}
	if err := p.svc.ReadTOML(path, &parsed); err != nil {
		return Failure(fmt.Sprintf("read failed: %v", err))
	}
	return Success(map[string]interface{}{"path": path, "data": parsed})
}
