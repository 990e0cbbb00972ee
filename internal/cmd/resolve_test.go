package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/gateway"
)

func TestPick(t *testing.T) {
	sessions := []gateway.Session{
		{ID: "aaaa1111-0000", Name: "fix-login"},
		{ID: "aaaa2222-0000", Name: "dup"},
		{ID: "bbbb3333-0000", Name: "dup"},
		{ID: "cccc4444-0000", Name: "aaaa2222-0000"},
	}
	id := func(s gateway.Session) string { return s.ID }
	name := func(s gateway.Session) string { return s.Name }

	tests := []struct {
		name    string
		ref     string
		wantID  string
		wantErr string
	}{
		{name: "exact id wins over a name", ref: "aaaa2222-0000", wantID: "aaaa2222-0000"},
		{name: "unique name", ref: "fix-login", wantID: "aaaa1111-0000"},
		{name: "id prefix", ref: "bbbb", wantID: "bbbb3333-0000"},
		{name: "duplicate name", ref: "dup", wantErr: "ambiguous"},
		{name: "ambiguous prefix", ref: "aaaa", wantErr: "ambiguous"},
		{name: "short prefix is not matched", ref: "bbb", wantErr: "not found"},
		{name: "unknown", ref: "nope", wantErr: `session "nope" not found`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pick("session", tt.ref, sessions, id, name)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestOrderUpdates(t *testing.T) {
	assert.Equal(t, []domain.OrderUpdate{
		{DisplayOrder: 0, ID: "b"},
		{DisplayOrder: 1, ID: "a"},
	}, orderUpdates([]string{"b", "a"}))
}
