// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes navigation tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/navkit/internal/navservice"
	"github.com/starford/navkit/internal/route"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const conventionsURI = "navkit://route-conventions"

// Server wraps the MCP server with navigation tools.
type Server struct {
	mcp *server.MCPServer
	svc *navservice.Service
}

// New creates a new MCP server with all navigation tools registered.
func New(svc *navservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"navkit",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("navigate",
		mcp.WithDescription("Navigate to a registered route. The presentation defaults to the route's declared type. "+
			"Read the route conventions via the navkit://route-conventions resource first."),
		mcp.WithString("route", mcp.Required(), mcp.Description("Route key (e.g. profile, checkoutVC)")),
		mcp.WithString("parameters", mcp.Description("Query-string encoded parameters (e.g. userId=42&tab=posts)")),
		mcp.WithString("tab", mcp.Description("Target tab id; defaults to the current tab")),
		mcp.WithString("type", mcp.Description("Presentation override"),
			mcp.Enum("push", "sheet", "fullScreen", "tab", "modal", "replace")),
	), s.navigate)

	s.mcp.AddTool(mcp.NewTool("navigate_back",
		mcp.WithDescription("Dismiss the newest presentation of the current tab, or pop its stack when nothing is presented."),
	), s.navigateBack)

	s.mcp.AddTool(mcp.NewTool("navigate_to_root",
		mcp.WithDescription("Return a tab to its root view and close its presentations."),
		mcp.WithString("tab", mcp.Description("Tab id; empty resets every tab")),
	), s.navigateToRoot)

	s.mcp.AddTool(mcp.NewTool("set_tab",
		mcp.WithDescription("Switch the current tab."),
		mcp.WithString("tab", mcp.Required(), mcp.Description("Tab id")),
	), s.setTab)

	s.mcp.AddTool(mcp.NewTool("dismiss_modals",
		mcp.WithDescription("Dismiss the top presentation, the newest presentation of a route, or all presentations."),
		mcp.WithString("route", mcp.Description("Route key to dismiss")),
		mcp.WithBoolean("all", mcp.Description("Dismiss every presentation in every tab")),
	), s.dismissModals)

	s.mcp.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Return the navigation state: current tab, per-tab stacks and open presentations."),
	), s.getState)

	s.mcp.AddTool(mcp.NewTool("list_routes",
		mcp.WithDescription("List registered routes with their presentation and claiming handler."),
	), s.listRoutes)

	s.mcp.AddTool(mcp.NewTool("open_url",
		mcp.WithDescription("Navigate by deep link of the form scheme://route?query."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Deep link URL")),
	), s.openURL)

	// Resource: route conventions.
	s.mcp.AddResource(
		mcp.NewResource(conventionsURI, "Route Conventions",
			mcp.WithResourceDescription("How route keys are claimed, presented and navigated back from."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readConventionsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// optString returns an optional string argument, or "" when absent.
func optString(req mcp.CallToolRequest, name string) string {
	if v, err := req.RequireString(name); err == nil {
		return v
	}
	return ""
}

func optBool(req mcp.CallToolRequest, name string) bool {
	if v, err := req.RequireBool(name); err == nil {
		return v
	}
	return false
}

func (s *Server) navigate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("route")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	params, err := route.ParseQuery(optString(req, "parameters"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nav := navservice.NavigateRequest{
		Route:      name,
		Parameters: params.Data(),
		Tab:        optString(req, "tab"),
		Type:       optString(req, "type"),
	}
	if err := s.svc.Navigate(ctx, nav); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("navigated: %s", name)), nil
}

func (s *Server) navigateBack(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Back(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res.Route == "" {
		return mcp.NewToolResultText("already at root"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s", res.Action, res.Route)), nil
}

func (s *Server) navigateToRoot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tab := optString(req, "tab")
	if err := s.svc.Root(ctx, tab); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if tab == "" {
		tab = "all tabs"
	}
	return mcp.NewToolResultText(fmt.Sprintf("at root: %s", tab)), nil
}

func (s *Server) setTab(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tab, err := req.RequireString("tab")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.SetTab(ctx, tab); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("current tab: %s", tab)), nil
}

func (s *Server) dismissModals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := s.svc.Dismiss(ctx, optString(req, "route"), optBool(req, "all"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("dismissed: %d", n)), nil
}

func (s *Server) getState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.svc.Snapshot(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(snap), nil
}

func (s *Server) listRoutes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	routes, err := s.svc.Routes(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(routes) == 0 {
		return mcp.NewToolResultText("no routes registered"), nil
	}
	lines := make([]string, 0, len(routes))
	for _, r := range routes {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s", r.Key, r.Type, r.Handler))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) openURL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nav, err := s.svc.NavigateURL(ctx, raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(nav), nil
}

func (s *Server) readConventionsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      conventionsURI,
			MIMEType: "text/markdown",
			Text:     RouteConventions,
		},
	}, nil
}
