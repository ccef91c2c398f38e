package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeepsFileOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.json")
	blob := `[
		{"id": "f2", "title": "Second", "description": "listed first"},
		{"id": "f1", "title": "First", "description": "listed second"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(blob), 0644))

	catalog, err := NewLoader(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog, 2)
	assert.Equal(t, "f2", catalog[0].ID)
	assert.Equal(t, "f1", catalog[1].ID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.json")).Load(context.Background())
	require.Error(t, err)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"malformed json", `{not json`},
		{"empty id", `[{"id": "", "title": "t", "description": "d"}]`},
		{"duplicate id", `[{"id": "f1", "title": "a"}, {"id": "f1", "title": "b"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.blob))
			assert.Error(t, err)
		})
	}
}
