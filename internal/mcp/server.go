// Package mcp is the stdio adapter between the agent and the interaction
// store's HTTP API. It speaks JSON-RPC 2.0 over stdin/stdout and forwards
// each tool call as one HTTP request.
package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const protocolVersion = "2024-11-05"

// Server implements an MCP stdio server that delegates to the interaction
// store's HTTP API.
type Server struct {
	serverURL string
	apiKey    string
	client    *http.Client
	out       io.Writer
}

// NewServer creates a new MCP server.
func NewServer(serverURL, apiKey string) *Server {
	return &Server{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		out: os.Stdout,
	}
}

// Run starts the stdio event loop. Blocks until stdin is closed.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(os.Stdin)
	// Increase buffer for large plans
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeError(nil, -32700, "parse error: "+err.Error())
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			s.writeResponse(resp)
		}
	}

	return scanner.Err()
}

func (s *Server) handleRequest(req *Request) *Response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "initialized":
		// Notification — no response
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]string{}}
	default:
		return s.errorResponse(req.ID, -32601, "method not found: "+req.Method)
	}
}

func (s *Server) handleInitialize(req *Request) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: ServerCapabilities{
				Tools: &ToolCapabilities{},
			},
			ServerInfo: ServerInfo{
				Name:    "parley-interactions",
				Version: "1.0.0",
			},
		},
	}
}

func (s *Server) handleToolsList(req *Request) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  ToolsListResult{Tools: ToolDefinitions()},
	}
}

func (s *Server) handleToolsCall(req *Request) *Response {
	paramsBytes, err := json.Marshal(req.Params)
	if err != nil {
		return s.errorResponse(req.ID, -32602, "invalid params")
	}

	var params CallToolParams
	if err := json.Unmarshal(paramsBytes, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "invalid params: "+err.Error())
	}

	result, isError := s.dispatchTool(params.Name, params.Arguments)

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: CallToolResult{
			Content: []ContentBlock{{Type: "text", Text: result}},
			IsError: isError,
		},
	}
}

func (s *Server) dispatchTool(name string, args map[string]interface{}) (string, bool) {
	switch name {
	case "ask_user":
		return s.toolAskUser(args)
	case "plan_review":
		return s.toolPlanReview(args)
	case "get_interaction":
		return s.toolGetInteraction(args)
	case "pending_reviews":
		return s.toolPendingReviews()
	default:
		return fmt.Sprintf("unknown tool: %s", name), true
	}
}

// --- Tool implementations (HTTP delegation) ---

func (s *Server) toolAskUser(args map[string]interface{}) (string, bool) {
	body := map[string]interface{}{
		"question":  args["question"],
		"title":     args["title"],
		"agentName": args["agentName"],
	}
	if opts, ok := args["options"]; ok {
		body["options"] = opts
	}
	return s.httpPost("/interactions/ask_user", body)
}

func (s *Server) toolPlanReview(args map[string]interface{}) (string, bool) {
	body := map[string]interface{}{
		"plan":  args["plan"],
		"title": args["title"],
		"mode":  getString(args, "mode", "review"),
	}
	return s.httpPost("/interactions/plan_review", body)
}

func (s *Server) toolGetInteraction(args map[string]interface{}) (string, bool) {
	id, _ := args["id"].(string)
	if id == "" {
		return "id is required", true
	}
	return s.httpGet("/interactions/" + id)
}

func (s *Server) toolPendingReviews() (string, bool) {
	return s.httpGet("/interactions/pending")
}

// --- HTTP helpers ---

func (s *Server) httpPost(path string, body interface{}) (string, bool) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Sprintf("marshal error: %s", err), true
	}
	req, err := http.NewRequest(http.MethodPost, s.serverURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Sprintf("request error: %s", err), true
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func (s *Server) httpGet(path string) (string, bool) {
	req, err := http.NewRequest(http.MethodGet, s.serverURL+path, nil)
	if err != nil {
		return fmt.Sprintf("request error: %s", err), true
	}
	return s.do(req)
}

func (s *Server) do(req *http.Request) (string, bool) {
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Sprintf("HTTP error: %s", err), true
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("read error: %s", err), true
	}

	if resp.StatusCode >= 400 {
		return string(respBody), true
	}
	return string(respBody), false
}

// --- Response helpers ---

func (s *Server) writeResponse(resp *Response) {
	data, _ := json.Marshal(resp)
	fmt.Fprintf(s.out, "%s\n", data)
}

func (s *Server) writeError(id interface{}, code int, message string) {
	s.writeResponse(&Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	})
}

func (s *Server) errorResponse(id interface{}, code int, message string) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
}

// --- Argument helpers ---

func getString(args map[string]interface{}, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
