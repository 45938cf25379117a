// Package mcp exposes sessions as Model Context Protocol tools, so an agent can start a
// component, read its data, evaluate expressions and invoke its actions.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/few"
	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/session"
)

// componentsURI is the resource listing the available component names.
const componentsURI = "few://components"

// SessionResponse is the structured result of every session tool.
type SessionResponse struct {
	Value    any               `json:"value,omitempty" jsonschema_description:"The expression value, for eval"`
	Diff     *domain.StoreDiff `json:"diff,omitempty" jsonschema_description:"Top-level store keys changed by the call"`
	Snapshot *domain.Snapshot  `json:"snapshot" jsonschema_description:"The session state after the call"`
	Actions  []string          `json:"actions,omitempty" jsonschema_description:"Actions the component defines"`
}

// Server wraps the session manager and exposes it as an MCP Server.
type Server struct {
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		sessions:  sessions,
		logger:    logger,
		mcpServer: server.NewMCPServer("few-mcp", few.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
		return nil
	})

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_components",
		mcp.WithDescription("List the names of the components that can be started."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := s.sessions.Engine().Components(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing components failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(names)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Instantiate a component in a new session. Returns the session snapshot."),
		mcp.WithString("component", mcp.Required(), mcp.Description("Component name")),
		mcp.WithString("session_id", mcp.Description("Session ID to reuse or create (optional)")),
		mcp.WithString("props", mcp.Description("JSON object of props (optional)")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("get_data",
		mcp.WithDescription("Read the data store of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetData))

	s.mcpServer.AddTool(mcp.NewTool("invoke_action",
		mcp.WithDescription("Invoke a named action of the session's component."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action name")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleInvoke))

	s.mcpServer.AddTool(mcp.NewTool("dispatch",
		mcp.WithDescription("Apply a patch to the session's store, e.g. {\"data.user.name\": \"Ada\"}."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("patch", mcp.Required(), mcp.Description("JSON object of path to value")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleDispatch))

	s.mcpServer.AddTool(mcp.NewTool("eval",
		mcp.WithDescription("Evaluate an expression against the session's component, e.g. data.items.length."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("expression", mcp.Required(), mcp.Description("Expression source")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleEval))
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	component, _ := args["component"].(string)
	sessionID, _ := args["session_id"].(string)

	var props map[string]any
	if raw, ok := args["props"].(string); ok && raw != "" {
		if err := unmarshal(raw, &props); err != nil {
			return SessionResponse{}, fmt.Errorf("invalid props: %w", err)
		}
	}

	var (
		snap *domain.Snapshot
		err  error
	)
	if sessionID == "" {
		snap, err = s.sessions.Start(ctx, component, props)
	} else {
		snap, err = s.sessions.LoadOrStart(ctx, sessionID, component, props)
	}
	if err != nil {
		return SessionResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return s.response(ctx, &session.Result{Snapshot: snap}), nil
}

func (s *Server) handleGetData(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	sessionID, _ := args["session_id"].(string)
	snap, err := s.sessions.Snapshot(ctx, sessionID)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("get_data failed: %w", err)
	}
	return s.response(ctx, &session.Result{Snapshot: snap}), nil
}

func (s *Server) handleInvoke(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	sessionID, _ := args["session_id"].(string)
	action, _ := args["action"].(string)
	res, err := s.sessions.Invoke(ctx, sessionID, action)
	if err != nil {
		s.logger.Warn("MCP invoke_action failed", "session_id", sessionID, "action", action, "err", err)
		return SessionResponse{}, fmt.Errorf("invoke_action failed: %w", err)
	}
	return s.response(ctx, res), nil
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	sessionID, _ := args["session_id"].(string)
	raw, _ := args["patch"].(string)

	patch := domain.NewPatch()
	if err := unmarshal(raw, patch); err != nil {
		return SessionResponse{}, fmt.Errorf("invalid patch: %w", err)
	}
	res, err := s.sessions.Dispatch(ctx, sessionID, patch)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("dispatch failed: %w", err)
	}
	return s.response(ctx, res), nil
}

func (s *Server) handleEval(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	sessionID, _ := args["session_id"].(string)
	expression, _ := args["expression"].(string)
	res, err := s.sessions.Eval(ctx, sessionID, expression)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("eval failed: %w", err)
	}
	return s.response(ctx, res), nil
}

// response attaches the action names of the session's component, so an agent can discover
// what it may invoke next.
func (s *Server) response(ctx context.Context, res *session.Result) SessionResponse {
	out := SessionResponse{Value: res.Value, Diff: res.Diff, Snapshot: res.Snapshot}
	if res.Snapshot == nil {
		return out
	}
	def, err := s.sessions.Engine().Definition(ctx, res.Snapshot.Component)
	if err != nil {
		s.logger.Debug("MCP: definition lookup failed", "component", res.Snapshot.Component, "err", err)
		return out
	}
	for name := range def.Actions {
		out.Actions = append(out.Actions, name)
	}
	sort.Strings(out.Actions)
	return out
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(componentsURI, "Available Components",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names, err := s.sessions.Engine().Components(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list components: %w", err)
		}
		jsonBytes, _ := json.Marshal(names)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      componentsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func unmarshal(raw string, v any) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}
