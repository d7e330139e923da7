package tool

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"github.com/rs/zerolog"
)

// ProcessOpener launches external tool binaries over the go-plugin protocol
type ProcessOpener struct {
	logger zerolog.Logger
}

// NewProcessOpener creates a new process opener
func NewProcessOpener(logger zerolog.Logger) *ProcessOpener {
	return &ProcessOpener{
		logger: logger.With().Str("component", "tool-process").Logger(),
	}
}

// Open starts entry.Command and dispenses its tool implementation
func (o *ProcessOpener) Open(ctx context.Context, entry *Entry) (Renderer, error) {
	path, err := o.resolveCommand(entry)
	if err != nil {
		return nil, loadError(entry.ID, StageResolve, err)
	}

	logger := o.logger.With().Str("tool", entry.ID).Logger()
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  Handshake,
		Plugins:          PluginMap,
		Cmd:              exec.Command(path, entry.Args...),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:   "tool." + entry.ID,
			Output: logger,
			Level:  hclog.Warn,
		}),
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, loadError(entry.ID, StageInit, fmt.Errorf("failed to connect to tool process: %w", err))
	}

	raw, err := rpcClient.Dispense(PluginName)
	if err != nil {
		client.Kill()
		return nil, newError(KindMissingEntryPoint, entry.ID, fmt.Errorf("failed to dispense %q: %w", PluginName, err))
	}

	remote, ok := raw.(RemoteTool)
	if !ok {
		client.Kill()
		return nil, newError(KindMissingEntryPoint, entry.ID, fmt.Errorf("unexpected tool type %T", raw))
	}

	logger.Debug().Str("command", path).Msg("Tool process started")

	return &processTool{
		remote: remote,
		client: client,
		request: renderRequest(entry),
	}, nil
}

// renderRequest is what a tool process receives on every render
func renderRequest(entry *Entry) RenderRequest {
	configDir := entry.ConfigDir
	if configDir == "" {
		configDir = filepath.Join(entry.Dir, DefaultConfigDir)
	}
	return RenderRequest{
		ID:        entry.ID,
		Dir:       entry.Dir,
		ConfigDir: configDir,
		Settings:  entry.Settings,
	}
}

// resolveCommand makes entry.Command absolute and checks it is executable
func (o *ProcessOpener) resolveCommand(entry *Entry) (string, error) {
	path := entry.Command
	if !filepath.IsAbs(path) {
		path = filepath.Join(entry.Dir, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("tool command not found: %s", path)
	}
	if info.IsDir() {
		return "", fmt.Errorf("tool command %s is a directory", path)
	}
	if info.Mode().Perm()&0o111 == 0 {
		return "", fmt.Errorf("tool command %s is not executable", path)
	}
	return path, nil
}

// processTool adapts a dispensed RemoteTool to Renderer and owns its process
type processTool struct {
	remote  RemoteTool
	client  *plugin.Client
	request RenderRequest
	once    sync.Once
}

func (p *processTool) Render(ctx context.Context) error {
	return p.remote.Render(ctx, p.request)
}

// Close kills the tool process
func (p *processTool) Close() error {
	p.once.Do(p.client.Kill)
	return nil
}
