package tool

import (
	"context"
	"encoding/gob"
	"errors"
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// PluginName is the name external tools must serve
const PluginName = "tool"

// Handshake is used to verify that an external tool and the host are compatible
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "MINT_TOOL",
	MagicCookieValue: "mint-tool-protocol-v1",
}

// PluginMap is the map of plugins the host can dispense
var PluginMap = map[string]plugin.Plugin{
	PluginName: &RPCPlugin{},
}

func init() {
	// settings decoded from HCL may nest lists and objects
	gob.Register([]any{})
	gob.Register(map[string]any{})
}

// RenderRequest carries what an external tool knows about itself
type RenderRequest struct {
	ID        string
	Dir       string
	ConfigDir string
	Settings  map[string]any
}

// RemoteTool is implemented by external tool binaries
type RemoteTool interface {
	Render(ctx context.Context, req RenderRequest) error
}

// Serve runs impl as an external tool; call it from the tool binary's main
func Serve(impl RemoteTool) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			PluginName: &RPCPlugin{Impl: impl},
		},
	})
}

// RPCPlugin is the implementation of plugin.Plugin for net/rpc
type RPCPlugin struct {
	Impl RemoteTool
}

func (p *RPCPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &RPCServer{Impl: p.Impl}, nil
}

func (p *RPCPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RPCClient{client: c}, nil
}

// RenderArgs are the arguments for the Render RPC call
type RenderArgs struct {
	Request RenderRequest
}

// RenderResp is the response for the Render RPC call.
// Errors cross the wire as text.
type RenderResp struct {
	Error string
}

// RPCServer is the RPC server that RPCClient talks to
type RPCServer struct {
	Impl RemoteTool
}

func (s *RPCServer) Render(args *RenderArgs, resp *RenderResp) error {
	err := guard(func() error {
		return s.Impl.Render(context.Background(), args.Request)
	})
	if err != nil {
		resp.Error = err.Error()
	}
	return nil
}

// RPCClient is the RPC client that talks to RPCServer
type RPCClient struct {
	client *rpc.Client
}

func (c *RPCClient) Render(ctx context.Context, req RenderRequest) error {
	var resp RenderResp
	if err := c.client.Call("Plugin.Render", &RenderArgs{Request: req}, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	return nil
}
