package registry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakehaus/stake-engine/internal/registry"
)

func writeBlocklist(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "blocklist.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadBlocklist(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		expectedErr  string
		validateFunc func(t *testing.T, reg registry.BlocklistRegistry)
	}{
		{
			name: "successful load with valid JSON",
			content: `{
				"mints": ["F4U5T2mintAAAA1111111111111111111111111111", "F4U5T2mintBBBB2222222222222222222222222222"],
				"wallets": ["7Np41oeYqPefeNQEHSv1UDhYrehxin3NStELsSKCT4K2"]
			}`,
			validateFunc: func(t *testing.T, reg registry.BlocklistRegistry) {
				assert.True(t, reg.IsMintBlocked("F4U5T2mintAAAA1111111111111111111111111111"))
				assert.True(t, reg.IsMintBlocked("F4U5T2mintBBBB2222222222222222222222222222"))
				assert.False(t, reg.IsMintBlocked("someOtherMint"))
				assert.True(t, reg.IsWalletBlocked("7Np41oeYqPefeNQEHSv1UDhYrehxin3NStELsSKCT4K2"))
				assert.False(t, reg.IsWalletBlocked("someOtherWallet"))
			},
		},
		{
			name:    "lookup is case sensitive",
			content: `{"mints": ["MintAbCd"]}`,
			validateFunc: func(t *testing.T, reg registry.BlocklistRegistry) {
				assert.True(t, reg.IsMintBlocked("MintAbCd"))
				assert.False(t, reg.IsMintBlocked("mintabcd"))
			},
		},
		{
			name:    "empty blocklist",
			content: `{}`,
			validateFunc: func(t *testing.T, reg registry.BlocklistRegistry) {
				assert.False(t, reg.IsMintBlocked("anything"))
				assert.False(t, reg.IsWalletBlocked("anything"))
			},
		},
		{
			name:        "malformed JSON",
			content:     `{"mints": [`,
			expectedErr: "failed to parse blocklist JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeBlocklist(t, tt.content)

			reg, err := registry.LoadBlocklist(path)
			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, reg)
			tt.validateFunc(t, reg)
		})
	}
}

func TestLoadBlocklistMissingFile(t *testing.T) {
	_, err := registry.LoadBlocklist(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read blocklist file")
}
