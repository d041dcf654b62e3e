package ai

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// decodeObject extracts the first {...} window from model output and decodes
// it. Models occasionally wrap JSON in prose or code fences; the window keeps
// parsing tolerant of that.
func decodeObject(content string, out any) error {
	return decodeWindow(content, "{", "}", out)
}

// decodeArray extracts the outermost [...] window from model output.
func decodeArray(content string, out any) error {
	return decodeWindow(content, "[", "]", out)
}

func decodeWindow(content, open, close string, out any) error {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, open)
	end := strings.LastIndex(trimmed, close)
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no %s...%s window in model output", open, close)
	}
	return sonic.Unmarshal([]byte(trimmed[start:end+1]), out)
}
