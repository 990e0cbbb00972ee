package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/grove/internal/domain"
)

func TestHTTP_Healthz(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTP_Metrics(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "grove_event_subscribers")
}

func TestHTTP_MalformedEnvelope(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.server.URL+"/api/commands", "application/json", strings.NewReader("{nope"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.OK)
	assert.Equal(t, CodeValidation, body.Error.Code)
}

func TestClient_ProjectFolderSessionCommands(t *testing.T) {
	repo := t.TempDir()
	f := newFixture(t, func(f *fixture) {
		f.git.EXPECT().IsGitRepo(mock.Anything, repo).Return(true, repo)
	})
	ctx := context.Background()

	var project Project
	require.NoError(t, f.client.Do(ctx, "project.create", map[string]any{"path": repo, "name": "api", "baseBranch": "main"}, &project))
	assert.Equal(t, "api", project.Name)
	assert.Equal(t, "main", project.BaseBranch)

	var folder Folder
	require.NoError(t, f.client.Do(ctx, "folder.create", map[string]any{"name": "Backend", "projectId": f.project.ID}, &folder))
	assert.Nil(t, folder.ParentID)

	session := f.createSession(t, "add-tests")
	assert.Equal(t, "add-tests", session.Name)

	var moved Session
	require.NoError(t, f.client.Do(ctx, "session.move", map[string]any{"id": session.ID, "folderId": folder.ID}, &moved))
	require.NotNil(t, moved.FolderID)
	assert.Equal(t, folder.ID, *moved.FolderID)

	var listed []Session
	require.NoError(t, f.client.Do(ctx, "session.list", map[string]any{"projectId": f.project.ID}, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, domain.StatusReady, listed[0].Status)

	var archived Session
	require.NoError(t, f.client.Do(ctx, "session.archive", map[string]any{"id": session.ID}, &archived))
	assert.True(t, archived.Archived)

	require.NoError(t, f.client.Do(ctx, "session.list", map[string]any{"projectId": f.project.ID}, &listed))
	assert.Empty(t, listed)
	require.NoError(t, f.client.Do(ctx, "session.list", map[string]any{"projectId": f.project.ID, "includeArchived": true}, &listed))
	assert.Len(t, listed, 1)

	var output []domain.OutputMessage
	require.NoError(t, f.client.Do(ctx, "session.output", map[string]any{"id": session.ID}, &output))
	assert.NotEmpty(t, output)

	require.NoError(t, f.client.Do(ctx, "session.delete", map[string]any{"id": session.ID}, nil))
	err := f.client.Do(ctx, "session.get", map[string]any{"id": session.ID}, nil)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeNotFound, apiErr.Code)
}

func TestClient_Preferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var pref preferenceResult
	require.NoError(t, f.client.Do(ctx, "preference.get", map[string]any{"key": "folders.expanded"}, &pref))
	assert.False(t, pref.Found)

	require.NoError(t, f.client.Do(ctx, "preference.set", map[string]any{"key": "folders.expanded", "value": `["a","b"]`}, nil))
	require.NoError(t, f.client.Do(ctx, "preference.get", map[string]any{"key": "folders.expanded"}, &pref))
	assert.True(t, pref.Found)
	assert.Equal(t, `["a","b"]`, pref.Value)
}

func TestClient_DaemonUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewClient(url)
	require.NoError(t, err)
	err = client.Do(context.Background(), "project.list", nil, nil)
	assert.ErrorIs(t, err, ErrDaemonUnavailable)
}

func TestEvents_StreamFolderAndSessionEvents(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 64)
	go func() {
		_ = f.client.Events(ctx, []string{"folder.created", "session.created"}, func(e Event) error {
			events <- e
			return nil
		})
	}()

	// The subscription is registered once the websocket is up
	require.Eventually(t, func() bool {
		if _, err := f.folders.Create(context.Background(), "probe", f.project.ID, nil); err != nil {
			return false
		}
		select {
		case e := <-events:
			return e.Type == domain.EventFolderCreated
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)

	session := f.createSession(t, "streamed")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Type != domain.EventSessionCreated {
				assert.Equal(t, domain.EventFolderCreated, e.Type, "filter lets only requested types through")
				continue
			}
			var payload Session
			require.NoError(t, json.Unmarshal(e.Payload, &payload))
			assert.Equal(t, session.ID, payload.ID)
			assert.Equal(t, f.project.ID, payload.ProjectID)
			return
		case <-deadline:
			t.Fatal("session.created event not received")
		}
	}
}

func TestFollowOutput_ReplaysAndEndsOnDelete(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t, "followed")

	history, err := f.store.ListOutput(context.Background(), session.ID, 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, history)

	received := make(chan domain.OutputMessage, 64)
	done := make(chan error, 1)
	go func() {
		done <- f.client.FollowOutput(context.Background(), session.ID, 0, func(msg domain.OutputMessage) error {
			received <- msg
			return nil
		})
	}()

	for _, want := range history {
		select {
		case msg := <-received:
			assert.Equal(t, want.Seq, msg.Seq)
		case <-time.After(2 * time.Second):
			t.Fatal("history not replayed")
		}
	}

	require.NoError(t, f.sessions.Delete(context.Background(), session.ID))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("follow did not end after delete")
	}
}

func TestFollowOutput_UnknownSession(t *testing.T) {
	f := newFixture(t)

	err := f.client.FollowOutput(context.Background(), "missing", 0, func(domain.OutputMessage) error { return nil })
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeNotFound, apiErr.Code)
}

type stubPrompter struct {
	decision domain.PermissionDecision
	err      error
	session  string
	tool     domain.ToolCall
}

func (s *stubPrompter) RequestPermission(_ context.Context, id string, tool domain.ToolCall) (domain.PermissionDecision, error) {
	s.session = id
	s.tool = tool
	return s.decision, s.err
}

func TestPermissionPromptEndpoint(t *testing.T) {
	prompter := &stubPrompter{decision: domain.PermissionDecision{
		Behavior:     domain.BehaviorAllow,
		UpdatedInput: json.RawMessage(`{"command":"ls -la"}`),
	}}
	server := httptest.NewServer(NewHTTPServer("", nil, nil, nil, prompter).Handler())
	defer server.Close()
	client, err := NewClient(server.URL)
	require.NoError(t, err)

	decision, err := client.PermissionPrompt(context.Background(), "s1", PromptRequest{
		Input:     json.RawMessage(`{"command":"ls"}`),
		ToolName:  "Bash",
		ToolUseID: "tu-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BehaviorAllow, decision.Behavior)
	assert.JSONEq(t, `{"command":"ls -la"}`, string(decision.UpdatedInput))

	assert.Equal(t, "s1", prompter.session)
	assert.Equal(t, "tu-1", prompter.tool.ID)
	assert.Equal(t, domain.BashInput{Command: "ls"}, prompter.tool.Input)

	prompter.err = domain.NotFoundError("session", "s2")
	_, err = client.PermissionPrompt(context.Background(), "s2", PromptRequest{ToolName: "Bash"})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeNotFound, apiErr.Code)

	_, err = client.PermissionPrompt(context.Background(), "s1", PromptRequest{})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeValidation, apiErr.Code)
	assert.False(t, errors.Is(err, ErrDaemonUnavailable))
}
