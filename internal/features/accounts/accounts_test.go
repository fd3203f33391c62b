package accounts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantIDs []string
		wantBad []int
	}{
		{
			name:    "two accounts",
			text:    "ed25519:aaa|alice.tg\ned25519:bbb|bob.tg\n",
			wantIDs: []string{"alice.tg", "bob.tg"},
		},
		{
			name:    "blank and padded lines",
			text:    "\n   \ned25519:aaa|alice.tg  \r\n\n\t ed25519:bbb | bob.tg\n\n",
			wantIDs: []string{"alice.tg", "bob.tg"},
		},
		{
			name:    "all blank",
			text:    "\n  \n\t\n",
			wantIDs: nil,
		},
		{
			name:    "empty",
			text:    "",
			wantIDs: nil,
		},
		{
			name:    "malformed lines excluded",
			text:    "ed25519:aaa|alice.tg\nnodelimiter\n|noid.tg\ned25519:ccc|\ned25519:ddd|carol.tg",
			wantIDs: []string{"alice.tg", "carol.tg"},
			wantBad: []int{2, 3, 4},
		},
		{
			name:    "extra delimiter",
			text:    "ed25519:aaa|alice.tg|extra",
			wantIDs: nil,
			wantBad: []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, bad := Parse(tt.text)

			if tt.wantIDs == nil {
				assert.Empty(t, creds)
			} else {
				assert.Equal(t, tt.wantIDs, IDs(creds))
			}

			var badLines []int
			for _, b := range bad {
				badLines = append(badLines, b.Line)
			}
			assert.Equal(t, tt.wantBad, badLines)
		})
	}
}

func TestParse_KeepsKeyAndLine(t *testing.T) {
	creds, bad := Parse("\ned25519:secret | alice.tg\n")
	require.Empty(t, bad)
	require.Len(t, creds, 1)
	assert.Equal(t, Credential{PrivateKey: "ed25519:secret", AccountID: "alice.tg", Line: 2}, creds[0])
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "private.txt")
	require.NoError(t, os.WriteFile(path, []byte("ed25519:aaa|alice.tg\nbroken\n"), 0600))

	creds, bad, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice.tg"}, IDs(creds))
	require.Len(t, bad, 1)
	assert.Equal(t, 2, bad[0].Line)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := Load(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n\n"), 0600))
	_, _, err = Load(empty)
	assert.ErrorIs(t, err, ErrNoAccounts)
}
