package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/navkit/internal/route"
	"github.com/starford/navkit/internal/testutil"
)

func testServer(t *testing.T, b route.Backend) (*Server, *testutil.Env) {
	t.Helper()
	env := testutil.TestService(t, b)
	return New(env.Service, "test"), env
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "navigate":
		result, err = srv.navigate(ctx, req)
	case "navigate_back":
		result, err = srv.navigateBack(ctx, req)
	case "navigate_to_root":
		result, err = srv.navigateToRoot(ctx, req)
	case "set_tab":
		result, err = srv.setTab(ctx, req)
	case "dismiss_modals":
		result, err = srv.dismissModals(ctx, req)
	case "get_state":
		result, err = srv.getState(ctx, req)
	case "list_routes":
		result, err = srv.listRoutes(ctx, req)
	case "open_url":
		result, err = srv.openURL(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// compact strips whitespace so assertions do not depend on indentation.
func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestNavigateAndGetState(t *testing.T) {
	srv, _ := testServer(t, route.Declarative)

	r := callTool(t, srv, "navigate", map[string]interface{}{
		"route":      "profile",
		"parameters": "userId=42",
	})
	if text := resultText(r); text != "navigated: profile" {
		t.Fatalf("navigate result = %q", text)
	}

	r = callTool(t, srv, "get_state", map[string]interface{}{})
	text := compact(resultText(r))
	for _, want := range []string{`"backend":"declarative"`, `"key":"profile"`, `"userId":"42"`} {
		if !strings.Contains(text, want) {
			t.Errorf("state missing %s:\n%s", want, text)
		}
	}
}

func TestNavigateUnknownRoute(t *testing.T) {
	srv, _ := testServer(t, route.Declarative)
	r := callTool(t, srv, "navigate", map[string]interface{}{"route": "nowhere"})
	if !r.IsError {
		t.Error("expected error for unknown route")
	}
}

func TestNavigateMissingRoute(t *testing.T) {
	srv, _ := testServer(t, route.Declarative)
	r := callTool(t, srv, "navigate", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error when route is missing")
	}
}

func TestNavigateUnsupportedType(t *testing.T) {
	srv, _ := testServer(t, route.Declarative)
	r := callTool(t, srv, "navigate", map[string]interface{}{"route": "profile", "type": "replace"})
	if !r.IsError {
		t.Error("declarative strategy should reject replace")
	}
}

func TestNavigateBack(t *testing.T) {
	srv, _ := testServer(t, route.Declarative)

	r := callTool(t, srv, "navigate_back", map[string]interface{}{})
	if text := resultText(r); text != "already at root" {
		t.Errorf("back at root = %q", text)
	}

	callTool(t, srv, "navigate", map[string]interface{}{"route": "profile"})
	callTool(t, srv, "navigate", map[string]interface{}{"route": "settings"})

	r = callTool(t, srv, "navigate_back", map[string]interface{}{})
	if text := resultText(r); text != "dismissed: settings" {
		t.Errorf("first back = %q", text)
	}
	r = callTool(t, srv, "navigate_back", map[string]interface{}{})
	if text := resultText(r); text != "popped: profile" {
		t.Errorf("second back = %q", text)
	}
}

func TestSetTabAndRoot(t *testing.T) {
	srv, _ := testServer(t, route.Imperative)

	callTool(t, srv, "navigate", map[string]interface{}{"route": "listVC"})
	r := callTool(t, srv, "set_tab", map[string]interface{}{"tab": "search"})
	if text := resultText(r); text != "current tab: search" {
		t.Errorf("set_tab = %q", text)
	}

	r = callTool(t, srv, "set_tab", map[string]interface{}{"tab": "nope"})
	if !r.IsError {
		t.Error("expected error for unknown tab")
	}

	r = callTool(t, srv, "navigate_to_root", map[string]interface{}{})
	if text := resultText(r); text != "at root: all tabs" {
		t.Errorf("navigate_to_root = %q", text)
	}
	r = callTool(t, srv, "get_state", map[string]interface{}{})
	if strings.Contains(compact(resultText(r)), `"key":"listVC"`) {
		t.Error("stack should be empty after navigate_to_root")
	}
}

func TestDismissModals(t *testing.T) {
	srv, _ := testServer(t, route.Imperative)

	callTool(t, srv, "navigate", map[string]interface{}{"route": "editVC"})
	callTool(t, srv, "navigate", map[string]interface{}{"route": "listVC", "type": "sheet"})

	r := callTool(t, srv, "dismiss_modals", map[string]interface{}{"all": true})
	if text := resultText(r); text != "dismissed: 2" {
		t.Errorf("dismiss all = %q", text)
	}
	r = callTool(t, srv, "dismiss_modals", map[string]interface{}{})
	if text := resultText(r); text != "dismissed: 0" {
		t.Errorf("dismiss with nothing presented = %q", text)
	}
}

func TestListRoutes(t *testing.T) {
	srv, _ := testServer(t, route.Imperative)
	r := callTool(t, srv, "list_routes", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "listVC\tpush\timperative") {
		t.Errorf("list_routes missing listVC:\n%s", text)
	}
	if !strings.Contains(text, "deeplink_promo\treplace\tdeeplink") {
		t.Errorf("list_routes missing deeplink_promo:\n%s", text)
	}
}

func TestOpenURL(t *testing.T) {
	srv, _ := testServer(t, route.Declarative)
	r := callTool(t, srv, "open_url", map[string]interface{}{"url": "navkit://profile?userId=7&tab=search"})
	if r.IsError {
		t.Fatalf("open_url failed: %s", resultText(r))
	}
	text := compact(resultText(r))
	if !strings.Contains(text, `"tab":"search"`) || !strings.Contains(text, `"userId":"7"`) {
		t.Errorf("open_url result = %s", text)
	}

	r = callTool(t, srv, "open_url", map[string]interface{}{"url": "navkit://"})
	if !r.IsError {
		t.Error("expected error for link without route")
	}
}

func TestConventionsResource(t *testing.T) {
	srv, _ := testServer(t, route.Declarative)
	contents, err := srv.readConventionsResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || !strings.Contains(tc.Text, "Route Conventions") {
		t.Errorf("unexpected resource contents: %#v", contents)
	}
}
