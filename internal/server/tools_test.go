package server

import (
	"testing"
	"time"
)

func toolsByName() map[string]Tool {
	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}
	return toolMap
}

func TestGetToolDefinitions(t *testing.T) {
	expectedTools := []string{
		"gauge_read",
		"gauge_profile",
		"gauge_reviews_pending",
		"gauge_review_decide",
		"gauge_debug_edges",
		"gauge_detect_lines",
		"image_load",
	}

	toolMap := toolsByName()
	if len(toolMap) != len(expectedTools) {
		t.Errorf("Tool count: got %d, want %d", len(toolMap), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema == nil {
				t.Fatal("Tool InputSchema is nil")
			}
			if schemaType := tool.InputSchema["type"]; schemaType != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", schemaType)
			}
			if _, ok := tool.InputSchema["properties"].(map[string]interface{}); !ok {
				t.Error("InputSchema properties should be a map")
			}
		})
	}
}

func TestToolDefinitions_RequiredPath(t *testing.T) {
	toolMap := toolsByName()
	for _, name := range []string{"gauge_read", "gauge_debug_edges", "gauge_detect_lines", "image_load"} {
		t.Run(name, func(t *testing.T) {
			requiredList, ok := toolMap[name].InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}
			hasPath := false
			for _, r := range requiredList {
				if r == "path" {
					hasPath = true
				}
			}
			if !hasPath {
				t.Error("Tool should require 'path' parameter")
			}
		})
	}
}

func TestToolDefinitions_DecideEnum(t *testing.T) {
	tool := toolsByName()["gauge_review_decide"]

	required, _ := tool.InputSchema["required"].([]string)
	if len(required) != 2 || required[0] != "id" || required[1] != "decision" {
		t.Errorf("required = %v, want [id decision]", required)
	}

	props := tool.InputSchema["properties"].(map[string]interface{})
	decision, ok := props["decision"].(map[string]interface{})
	if !ok {
		t.Fatal("decision property should exist and be a map")
	}
	enum, ok := decision["enum"].([]string)
	if !ok || len(enum) != 2 || enum[0] != "accept" || enum[1] != "reject" {
		t.Errorf("decision enum = %v", decision["enum"])
	}
}

func TestToolDefinitions_OptionalDefaults(t *testing.T) {
	toolDefaults := map[string]map[string]bool{
		"gauge_read":            {"archive": true},
		"gauge_reviews_pending": {"include_preview": true},
		"gauge_debug_edges":     {"canonical": true},
		"gauge_detect_lines":    {"canonical": true},
	}

	toolMap := toolsByName()
	for toolName, expectedDefaults := range toolDefaults {
		props, ok := toolMap[toolName].InputSchema["properties"].(map[string]interface{})
		if !ok {
			t.Errorf("%s: properties should be a map", toolName)
			continue
		}
		for paramName, expected := range expectedDefaults {
			param, ok := props[paramName].(map[string]interface{})
			if !ok {
				t.Errorf("%s.%s: parameter not found or not a map", toolName, paramName)
				continue
			}
			if actual, ok := param["default"].(bool); !ok || actual != expected {
				t.Errorf("%s.%s: default got %v, want %v", toolName, paramName, param["default"], expected)
			}
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s, _ := newTestServer(t, time.Minute)
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
	}

	resp := s.handleToolsList(req)

	if resp == nil {
		t.Fatal("handleToolsList returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(toolsList) != len(GetToolDefinitions()) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(GetToolDefinitions()))
	}
}
