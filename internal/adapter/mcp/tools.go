package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/StatForge/internal/domain/tool"
	"github.com/Strob0t/StatForge/internal/service"
)

// registerTools registers every registry tool plus the ask tool.
func (s *Server) registerTools() {
	var tools []mcpserver.ServerTool
	if s.deps.Tools != nil {
		for _, d := range s.deps.Tools.Descriptors() {
			tools = append(tools, s.registryTool(d))
		}
	}
	if s.deps.Agent != nil {
		tools = append(tools, s.askTool())
	}
	if len(tools) > 0 {
		s.mcpServer.AddTools(tools...)
	}
}

// inputSchema renders tool params as a JSON Schema object.
func inputSchema(params []tool.Param) json.RawMessage {
	props := make(map[string]any, len(params))
	required := []string{}
	for _, p := range params {
		prop := map[string]any{"description": p.Description}
		switch p.Type {
		case "string", "integer", "number", "array", "object", "boolean":
			prop["type"] = p.Type
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	data, _ := json.Marshal(map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	})
	return data
}

func (s *Server) registryTool(d tool.Descriptor) mcpserver.ServerTool {
	name := d.Name
	return mcpserver.ServerTool{
		Tool: mcplib.NewToolWithRawSchema(name, d.Description, inputSchema(d.Params)),
		Handler: func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
			res := s.deps.Tools.Dispatch(ctx, tool.Call{Name: name, Arguments: req.GetArguments()})
			if !res.Success {
				return mcplib.NewToolResultError(res.Error), nil
			}
			return mcplib.NewToolResultText(res.Render(0)), nil
		},
	}
}

func (s *Server) askTool() mcpserver.ServerTool {
	t := mcplib.NewTool("ask",
		mcplib.WithDescription("Answer an NFL statistics question in plain language. "+
			"The agent chooses and calls the statistics tools itself."),
		mcplib.WithString("question",
			mcplib.Required(),
			mcplib.Description("The question to answer"),
		),
		mcplib.WithNumber("max_iterations",
			mcplib.Description("Reasoning step budget (default 4)"),
		),
		mcplib.WithBoolean("verbose",
			mcplib.Description("Include per-step detail in the response"),
		),
	)
	return mcpserver.ServerTool{Tool: t, Handler: s.handleAsk}
}

func (s *Server) handleAsk(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	args := req.GetArguments()
	question, _ := args["question"].(string)
	if question == "" {
		return mcplib.NewToolResultError("question is required"), nil
	}
	opts := service.RunOptions{}
	if v, ok := args["verbose"].(bool); ok {
		opts.Verbose = v
	}
	if v, ok := args["max_iterations"].(float64); ok && v > 0 {
		opts.MaxIterations = int(v)
	}

	resp := s.deps.Agent.Run(ctx, question, opts)
	data, err := json.Marshal(resp)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal response", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func toolResultJSON(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.TextContent{Type: "text", Text: text}},
	}
}
