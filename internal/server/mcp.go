package server

import (
	"context"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPServer serves the tool catalog over the MCP protocol using the official MCP Go SDK.
type MCPServer struct {
	server *mcp.Server
}

// NewMCPServer registers every catalog tool, routing calls through d.
func NewMCPServer(name, version string, d *Dispatcher) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, nil)

	for _, t := range d.Tools() {
		server.AddTool(toSDKTool(t), toSDKHandler(d, t.Name))
	}
	server.AddReceivingMiddleware(unknownToolMiddleware(d))
	return &MCPServer{server: server}
}

// Serve reads requests from in and writes responses to out. It blocks until ctx
// is cancelled or the transport closes.
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}
	return s.run(ctx, transport)
}

func (s *MCPServer) run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

func toSDKTool(t Tool) *mcp.Tool {
	return &mcp.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: t.InputSchema,
	}
}

// toSDKHandler forwards the raw arguments untouched, so an absent argument
// object still reaches the dispatcher as absent.
func toSDKHandler(d *Dispatcher, name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return toSDKResult(d.Dispatch(ctx, CallRequest{Name: name, Args: req.Params.Arguments})), nil
	}
}

// unknownToolMiddleware sends tools/call for names outside the catalog to the
// dispatcher, which answers with an error envelope instead of the SDK's
// JSON-RPC error.
func unknownToolMiddleware(d *Dispatcher) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}
			call, ok := req.(*mcp.CallToolRequest)
			if !ok || call.Params == nil {
				return next(ctx, method, req)
			}
			if _, known := lookupTool(call.Params.Name); known {
				return next(ctx, method, req)
			}
			return toSDKResult(d.Dispatch(ctx, CallRequest{Name: call.Params.Name, Args: call.Params.Arguments})), nil
		}
	}
}

func toSDKResult(resp CallResponse) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(resp.Content))
	for _, c := range resp.Content {
		content = append(content, &mcp.TextContent{Text: c.Text})
	}
	return &mcp.CallToolResult{Content: content, IsError: resp.IsError}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
