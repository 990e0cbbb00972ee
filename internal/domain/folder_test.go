package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

// tree: a -> b -> c, d at root
func testFolders() map[string]Folder {
	return map[string]Folder{
		"a": {ID: "a"},
		"b": {ID: "b", ParentID: strPtr("a")},
		"c": {ID: "c", ParentID: strPtr("b")},
		"d": {ID: "d"},
	}
}

func TestIsDescendant(t *testing.T) {
	folders := testFolders()

	assert.True(t, IsDescendant(folders, "a", "a"), "a folder is its own descendant for move purposes")
	assert.True(t, IsDescendant(folders, "a", "b"))
	assert.True(t, IsDescendant(folders, "a", "c"))
	assert.False(t, IsDescendant(folders, "a", "d"))
	assert.False(t, IsDescendant(folders, "c", "a"))
	assert.False(t, IsDescendant(folders, "b", "missing"))
}

func TestIsDescendant_ExistingCycleIsRefused(t *testing.T) {
	folders := map[string]Folder{
		"x": {ID: "x", ParentID: strPtr("y")},
		"y": {ID: "y", ParentID: strPtr("x")},
	}

	assert.True(t, IsDescendant(folders, "z", "x"))
}

func TestDescendants(t *testing.T) {
	folders := testFolders()

	assert.ElementsMatch(t, []string{"b", "c"}, Descendants(folders, "a"))
	assert.Empty(t, Descendants(folders, "d"))
}

func TestValidateFolderName(t *testing.T) {
	assert.NoError(t, ValidateFolderName("Backend work"))
	assert.Error(t, ValidateFolderName("   "))
}
