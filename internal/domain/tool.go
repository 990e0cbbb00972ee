package domain

import (
	"encoding/json"
	"fmt"
)

// ToolInput is the payload of a tool call. Known tools decode into their own
// variant; anything else is kept as OpaqueInput.
type ToolInput interface {
	// Summary is a one-line description for operators
	Summary() string
	toolInput()
}

type BashInput struct {
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Timeout     int    `json:"timeout,omitempty"`
}

type EditInput struct {
	FilePath   string `json:"file_path"`
	NewString  string `json:"new_string"`
	OldString  string `json:"old_string"`
	ReplaceAll bool   `json:"replace_all,omitempty"`
}

type MultiEditInput struct {
	Edits    []EditInput `json:"edits"`
	FilePath string      `json:"file_path"`
}

type WriteInput struct {
	Content  string `json:"content"`
	FilePath string `json:"file_path"`
}

type ReadInput struct {
	FilePath string `json:"file_path"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

type GlobInput struct {
	Path    string `json:"path,omitempty"`
	Pattern string `json:"pattern"`
}

type GrepInput struct {
	Glob    string `json:"glob,omitempty"`
	Path    string `json:"path,omitempty"`
	Pattern string `json:"pattern"`
}

type WebFetchInput struct {
	Prompt string `json:"prompt,omitempty"`
	URL    string `json:"url"`
}

// OpaqueInput keeps the raw JSON of tools without a dedicated variant
type OpaqueInput struct {
	Raw json.RawMessage
}

func (BashInput) toolInput()      {}
func (EditInput) toolInput()      {}
func (MultiEditInput) toolInput() {}
func (WriteInput) toolInput()     {}
func (ReadInput) toolInput()      {}
func (GlobInput) toolInput()      {}
func (GrepInput) toolInput()      {}
func (WebFetchInput) toolInput()  {}
func (OpaqueInput) toolInput()    {}

func (i BashInput) Summary() string      { return i.Command }
func (i EditInput) Summary() string      { return i.FilePath }
func (i MultiEditInput) Summary() string { return fmt.Sprintf("%s (%d edits)", i.FilePath, len(i.Edits)) }
func (i WriteInput) Summary() string     { return i.FilePath }
func (i ReadInput) Summary() string      { return i.FilePath }
func (i GlobInput) Summary() string      { return i.Pattern }
func (i GrepInput) Summary() string      { return i.Pattern }
func (i WebFetchInput) Summary() string  { return i.URL }

func (i OpaqueInput) Summary() string {
	const max = 80
	s := string(i.Raw)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// ToolCall is a tool invocation requested by the agent
type ToolCall struct {
	ID    string
	Input ToolInput
	Name  string
	Raw   json.RawMessage
}

// DecodeToolCall decodes raw input into the variant matching the tool name
func DecodeToolCall(id, name string, raw json.RawMessage) ToolCall {
	return ToolCall{
		ID:    id,
		Input: decodeToolInput(name, raw),
		Name:  name,
		Raw:   raw,
	}
}

func decodeToolInput(name string, raw json.RawMessage) ToolInput {
	var target ToolInput
	switch name {
	case "Bash":
		var in BashInput
		if json.Unmarshal(raw, &in) == nil {
			target = in
		}
	case "Edit":
		var in EditInput
		if json.Unmarshal(raw, &in) == nil {
			target = in
		}
	case "MultiEdit":
		var in MultiEditInput
		if json.Unmarshal(raw, &in) == nil {
			target = in
		}
	case "Write":
		var in WriteInput
		if json.Unmarshal(raw, &in) == nil {
			target = in
		}
	case "Read":
		var in ReadInput
		if json.Unmarshal(raw, &in) == nil {
			target = in
		}
	case "Glob":
		var in GlobInput
		if json.Unmarshal(raw, &in) == nil {
			target = in
		}
	case "Grep":
		var in GrepInput
		if json.Unmarshal(raw, &in) == nil {
			target = in
		}
	case "WebFetch":
		var in WebFetchInput
		if json.Unmarshal(raw, &in) == nil {
			target = in
		}
	}
	if target == nil {
		return OpaqueInput{Raw: raw}
	}
	return target
}
