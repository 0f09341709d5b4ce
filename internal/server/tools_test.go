package server

import (
	"encoding/json"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"image_load",
		"image_dimensions",
		"image_evict",
		"image_detect_segments",
		"image_vanishing_points",
		"vanishing_points_from_segments",
	}
	if len(tools) != len(expectedTools) {
		t.Fatalf("got %d tools, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		toolMap[tool.Name] = tool
	}
	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
		if !isKnownTool(name) {
			t.Errorf("isKnownTool(%s) = false", name)
		}
	}
	if isKnownTool("image_crop") {
		t.Error("isKnownTool(image_crop) = true")
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want object", tool.InputSchema["type"])
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties missing")
			}
			required, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("InputSchema required missing")
			}
			for _, name := range required {
				if _, ok := props[name]; !ok {
					t.Errorf("required property %s not defined", name)
				}
			}
			for name, p := range props {
				prop, ok := p.(map[string]interface{})
				if !ok || prop["type"] == nil {
					t.Errorf("property %s has no type", name)
				}
			}
		})
	}
}

func TestToolDefinitions_OverridesMatchArguments(t *testing.T) {
	// Every schema property must decode into the handler's argument struct.
	argTypes := map[string]func() interface{}{
		"image_evict":                    func() interface{} { return &imageEvictArgs{} },
		"image_detect_segments":          func() interface{} { return &detectArgs{} },
		"image_vanishing_points":         func() interface{} { return &imageVanishingPointsArgs{} },
		"vanishing_points_from_segments": func() interface{} { return &fromSegmentsArgs{} },
	}

	for _, tool := range GetToolDefinitions() {
		newArgs, ok := argTypes[tool.Name]
		if !ok {
			continue
		}
		props := tool.InputSchema["properties"].(map[string]interface{})

		data, _ := json.Marshal(newArgs())
		var fields map[string]interface{}
		if err := json.Unmarshal(data, &fields); err != nil {
			t.Fatalf("%s: %v", tool.Name, err)
		}
		for name := range props {
			if _, ok := fields[name]; !ok {
				t.Errorf("%s: property %s has no argument field", tool.Name, name)
			}
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})
	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}

	result := resp.Result.(map[string]interface{})
	tools, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatalf("tools type: %T", result["tools"])
	}
	if len(tools) != len(GetToolDefinitions()) {
		t.Errorf("got %d tools", len(tools))
	}
}
