package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/grove/internal/domain"
)

func TestFolderService_CreateMoveAndReorder(t *testing.T) {
	h := newSessionHarness(t)
	ctx := context.Background()

	backend, err := h.folders.Create(ctx, "Backend", h.project.ID, nil)
	require.NoError(t, err)
	frontend, err := h.folders.Create(ctx, "Frontend", h.project.ID, nil)
	require.NoError(t, err)
	api, err := h.folders.Create(ctx, "API", h.project.ID, &backend.ID)
	require.NoError(t, err)

	_, err = h.folders.Create(ctx, "   ", h.project.ID, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.folders.Move(ctx, backend.ID, &api.ID)
	assert.Error(t, err, "a folder cannot move below itself")

	moved, err := h.folders.Move(ctx, api.ID, &frontend.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, frontend.ID, *moved.ParentID)

	require.NoError(t, h.folders.Reorder(ctx, []domain.OrderUpdate{
		{ID: frontend.ID, DisplayOrder: 0},
		{ID: backend.ID, DisplayOrder: 1},
	}))
	folders, err := h.folders.List(ctx, h.project.ID)
	require.NoError(t, err)

	order := map[string]int{}
	for _, f := range folders {
		order[f.ID] = f.DisplayOrder
	}
	assert.Less(t, order[frontend.ID], order[backend.ID])
}

func TestFolderService_DeleteStrategies(t *testing.T) {
	h := newSessionHarness(t)
	ctx := context.Background()

	parent, err := h.folders.Create(ctx, "parent", h.project.ID, nil)
	require.NoError(t, err)
	child, err := h.folders.Create(ctx, "child", h.project.ID, &parent.ID)
	require.NoError(t, err)
	session := h.create(t, CreateSessionParams{Name: "filed", FolderID: &child.ID})[0]

	assert.ErrorIs(t, h.folders.Delete(ctx, parent.ID, domain.FolderDeleteNone), domain.ErrConflict)

	updated := h.bus.Subscribe(func(e domain.Event) bool { return e.Type == domain.EventSessionUpdated })
	defer h.bus.Unsubscribe(updated)

	require.NoError(t, h.folders.Delete(ctx, parent.ID, domain.FolderDeleteCascade))

	folders, err := h.folders.List(ctx, h.project.ID)
	require.NoError(t, err)
	assert.Empty(t, folders)

	stored, err := h.store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FolderID, "sessions of a cascaded folder move to the project root")

	require.Eventually(t, func() bool {
		select {
		case e := <-updated.C:
			s := e.Payload.(domain.Session)
			return s.ID == session.ID && s.FolderID == nil
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
}

func TestFolderService_DeleteReparent(t *testing.T) {
	h := newSessionHarness(t)
	ctx := context.Background()

	top, err := h.folders.Create(ctx, "top", h.project.ID, nil)
	require.NoError(t, err)
	middle, err := h.folders.Create(ctx, "middle", h.project.ID, &top.ID)
	require.NoError(t, err)
	leaf, err := h.folders.Create(ctx, "leaf", h.project.ID, &middle.ID)
	require.NoError(t, err)

	require.NoError(t, h.folders.Delete(ctx, middle.ID, domain.FolderDeleteReparent))

	stored, err := h.store.GetFolder(ctx, leaf.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ParentID)
	assert.Equal(t, top.ID, *stored.ParentID)
}
