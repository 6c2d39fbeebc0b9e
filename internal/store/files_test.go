package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omemostore/internal/domain"
	"omemostore/internal/store"
)

func TestEscapeAccountName(t *testing.T) {
	tests := []struct {
		name domain.AccountName
		want string
	}{
		{"alice@example.org", "alice%40example.org"},
		{"a b/c", "a%20b%2Fc"},
		{"Zoë~_-.", "Zo%C3%AB~_-."},
		{".", "%2E"},
		{"..", "%2E%2E"},
		{"a..b", "a..b"},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			got := store.EscapeAccountName(tt.name)
			assert.Equal(t, tt.want, got)

			back, err := store.UnescapeAccountName(got)
			require.NoError(t, err)
			assert.Equal(t, tt.name, back)
		})
	}
}

func TestListAccounts(t *testing.T) {
	root := t.TempDir()
	for _, a := range []domain.AccountName{"bob@example.org", "alice@example.org", ".hidden@example.org", "user/with slash"} {
		require.NoError(t, os.MkdirAll(store.AccountDir(root, a), 0o700))
	}
	// Directories EscapeAccountName never produces.
	for _, dir := range []string{"%2e", "%6A", "bad%zz"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o700))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray"), nil, 0o600))

	got, err := store.ListAccounts(root)
	require.NoError(t, err)
	assert.Equal(t, []domain.AccountName{".hidden@example.org", "alice@example.org", "bob@example.org", "user/with slash"}, got)

	got, err = store.ListAccounts(filepath.Join(root, "missing"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
