package cmd

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/gateway"
)

func TestShortID(t *testing.T) {
	assert.Equal(t, "7f3c2a10", shortID("7f3c2a10-1b2c-4d5e-8f90-123456789abc"))
	assert.Equal(t, "plain", shortID("plain"))
}

func TestRelativeTime(t *testing.T) {
	assert.Equal(t, "-", relativeTime(time.Time{}))
	assert.Equal(t, "2 hours ago", relativeTime(time.Now().Add(-2*time.Hour)))
}

func TestOutputText(t *testing.T) {
	tests := []struct {
		name string
		data json.RawMessage
		want string
	}{
		{name: "text payload", data: domain.TextData("hello"), want: "hello"},
		{name: "structured payload", data: json.RawMessage(`{"type":"assistant"}`), want: `{"type":"assistant"}`},
		{name: "empty text", data: json.RawMessage(`{"text":""}`), want: `{"text":""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outputText(domain.OutputMessage{Data: tt.data}))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestPrintFolderTree(t *testing.T) {
	root := "f-root"
	child := "f-child"
	folders := []gateway.Folder{
		{ID: root, Name: "Backend"},
		{ID: "f-other", Name: "Frontend"},
		{ID: child, Name: "Auth", ParentID: &root},
		{ID: "f-deep", Name: "Tokens", ParentID: &child},
	}

	var buf bytes.Buffer
	printFolderTree(&buf, folders)

	assert.Equal(t,
		"f\tBackend\t-\n"+
			"f\t  Auth\t-\n"+
			"f\t    Tokens\t-\n"+
			"f\tFrontend\t-\n",
		buf.String())
}
