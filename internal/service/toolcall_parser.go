package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Strob0t/StatForge/internal/domain/tool"
)

var fencedJSONBlock = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// ParseToolCall extracts a tool invocation from model output.
//
// A fenced ```json block is tried first and accepted whenever it parses as an
// object. Otherwise the first balanced {...} in the text is parsed and
// accepted only if it has a "tool" key. Anything else is a final answer.
func ParseToolCall(text string) (*tool.Call, bool) {
	if m := fencedJSONBlock.FindStringSubmatch(text); m != nil {
		if obj, ok := decodeObject(m[1]); ok {
			return callFromObject(obj), true
		}
	}

	raw, ok := firstBalancedObject(text)
	if !ok {
		return nil, false
	}
	obj, ok := decodeObject(raw)
	if !ok {
		return nil, false
	}
	if _, hasTool := obj["tool"]; !hasTool {
		return nil, false
	}
	return callFromObject(obj), true
}

func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func callFromObject(obj map[string]any) *tool.Call {
	c := &tool.Call{Arguments: map[string]any{}}
	switch name := obj["tool"].(type) {
	case string:
		c.Name = strings.TrimSpace(name)
	case nil:
	default:
		c.Name = fmt.Sprint(name)
	}
	if args, ok := obj["arguments"].(map[string]any); ok {
		c.Arguments = args
	}
	return c
}

// firstBalancedObject returns the substring from the first '{' to its
// matching '}'. Braces inside JSON strings do not count.
func firstBalancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
