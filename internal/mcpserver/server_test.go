package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rundberg/ansuz/internal/graph"
	"github.com/rundberg/ansuz/internal/noteservice"
	"github.com/rundberg/ansuz/internal/search"
	"github.com/rundberg/ansuz/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := noteservice.NewService(store, db, graph.NewStore())
	engine := search.NewEngine(db, testutil.NewFakeProvider(), logger, 0)
	return New(svc, engine)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_documents":
		result, err = srv.searchDocuments(ctx, req)
	case "semantic_search":
		result, err = srv.semanticSearch(ctx, req)
	case "read_document":
		result, err = srv.readDocument(ctx, req)
	case "create_document":
		result, err = srv.createDocument(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "local_graph":
		result, err = srv.localGraph(ctx, req)
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

func TestCreateAndReadDocument(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_document", map[string]interface{}{
		"id":      "test",
		"content": "# Test\nHello",
	})
	text := resultText(r)
	if text != "created: test" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_document", map[string]interface{}{
		"id": "test",
	})
	text = resultText(r)
	if text != "# Test\nHello" {
		t.Errorf("read result = %q", text)
	}
}

func TestCreateDocumentInvalidID(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "create_document", map[string]interface{}{
		"id":      "Not A Slug",
		"content": "x",
	})
	if !r.IsError {
		t.Error("expected error for invalid id")
	}
}

func TestReadDocumentMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_document", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestGetBacklinks(t *testing.T) {
	srv := testServer(t)
	_ = callTool(t, srv, "create_document", map[string]interface{}{
		"id":      "a",
		"content": "links to [[b]]",
	})
	_ = callTool(t, srv, "create_document", map[string]interface{}{
		"id":      "b",
		"content": "hub",
	})

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"id": "b"})
	if text := resultText(r); text != "a" {
		t.Errorf("backlinks = %q, want a", text)
	}

	r = callTool(t, srv, "get_backlinks", map[string]interface{}{"id": "a"})
	if text := resultText(r); text != "no backlinks found" {
		t.Errorf("backlinks = %q", text)
	}
}

func TestSemanticSearchTool(t *testing.T) {
	srv := testServer(t)
	_ = callTool(t, srv, "create_document", map[string]interface{}{
		"id": "alpha", "content": "# Alpha\nbody",
	})
	_ = callTool(t, srv, "create_document", map[string]interface{}{
		"id": "beta", "content": "# Beta\nbody",
	})

	r := callTool(t, srv, "semantic_search", map[string]interface{}{"query": "alpha"})
	if r.IsError {
		t.Fatalf("semantic_search failed: %s", resultText(r))
	}
	var results []search.Result
	if err := json.Unmarshal([]byte(resultText(r)), &results); err != nil {
		t.Fatalf("unmarshal results: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("results = %v, want both documents ranked", results)
	}
}

func TestLocalGraphTool(t *testing.T) {
	srv := testServer(t)
	_ = callTool(t, srv, "create_document", map[string]interface{}{
		"id": "hub", "content": "[[spoke]]",
	})
	_ = callTool(t, srv, "create_document", map[string]interface{}{
		"id": "spoke", "content": "leaf",
	})

	r := callTool(t, srv, "local_graph", map[string]interface{}{"center": "hub"})
	if r.IsError {
		t.Fatalf("local_graph failed: %s", resultText(r))
	}
	var view graph.View
	if err := json.Unmarshal([]byte(resultText(r)), &view); err != nil {
		t.Fatalf("unmarshal view: %v", err)
	}
	if len(view.Nodes) != 2 || len(view.Edges) != 1 {
		t.Errorf("view = %+v", view)
	}
}

func TestContract(t *testing.T) {
	if !strings.Contains(NoteFormatContract, "[[wikilinks]]") {
		t.Error("contract should explain wikilinks")
	}
	if !strings.Contains(NoteFormatContract, "lowercase slug") {
		t.Error("contract should state the id charset")
	}
}
