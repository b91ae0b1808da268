package inject

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles(t *testing.T) {
	t.Run("reads both payloads", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.js"), []byte("lib();"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "main.js"), []byte("main();"), 0o644))

		files := NewFiles(dir, "lib.js", "main.js")

		library, err := files.Library()
		require.NoError(t, err)
		assert.Equal(t, "lib();", library)

		main, err := files.Main()
		require.NoError(t, err)
		assert.Equal(t, "main();", main)
	})

	t.Run("missing payload names the file", func(t *testing.T) {
		files := NewFiles(t.TempDir(), "lib.js", "main.js")

		_, err := files.Library()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lib.js")
	})
}
