package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sahibnoorsingh009/nuclei-counter/internal/config"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/export"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/imaging"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "nuclei_count").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool failed")
		return errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "nuclei_methods":
		return s.handleNucleiMethods()
	case "nuclei_count":
		return s.handleNucleiCount(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return errors.New("missing arguments")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	_, info, err := imaging.LoadImageInfo(a.Path)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// methodInfo describes one configured method to clients.
type methodInfo struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Detector config.Detector `json:"detector"`
	Color    string          `json:"color"`
}

func (s *Server) handleNucleiMethods() (interface{}, error) {
	methods := s.orch.Methods()
	out := make([]methodInfo, len(methods))
	for i, m := range methods {
		out[i] = methodInfo{ID: m.ID, Name: m.Name, Detector: m.Detector, Color: m.Color}
	}
	return map[string]interface{}{"methods": out}, nil
}

type nucleiCountArgs struct {
	Path            string   `json:"path"`
	Methods         []string `json:"methods"`
	IncludeOverlays bool     `json:"include_overlays"`
}

// nucleiCountResult is the payload of nuclei_count. Overlays maps method ids
// to base64-encoded PNG images.
type nucleiCountResult struct {
	Image    *imaging.ImageInfo `json:"image"`
	Results  *export.Document   `json:"results"`
	Overlays map[string]string  `json:"overlays,omitempty"`
}

func (s *Server) handleNucleiCount(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a nucleiCountArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	img, info, err := imaging.LoadImageInfo(a.Path)
	if err != nil {
		return nil, err
	}

	var rs *pipeline.ResultSet
	if len(a.Methods) == 0 {
		rs, err = s.orch.RunAll(ctx, img)
	} else {
		rs, err = s.orch.Run(ctx, img, a.Methods...)
	}
	if err != nil {
		return nil, err
	}

	result := &nucleiCountResult{
		Image:   info,
		Results: export.NewDocument(info.Name, rs, time.Now()),
	}
	if a.IncludeOverlays {
		result.Overlays = make(map[string]string)
		for _, r := range rs.Results {
			if r.Overlay == nil {
				continue
			}
			encoded, err := imaging.EncodePNGBase64(r.Overlay)
			if err != nil {
				return nil, err
			}
			result.Overlays[r.Method] = encoded
		}
	}
	return result, nil
}
