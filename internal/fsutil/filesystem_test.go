package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both implementations must behave the same for the operations rdcfit uses.
func implementations(t *testing.T) map[string]struct {
	fsys FileSystem
	root string
} {
	return map[string]struct {
		fsys FileSystem
		root string
	}{
		"os":     {fsys: OSFileSystem{}, root: t.TempDir()},
		"memory": {fsys: NewMemoryFileSystem(), root: "/data"},
	}
}

func TestFileSystem_RoundTrip(t *testing.T) {
	for name, impl := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			fsys := impl.fsys
			path := filepath.Join(impl.root, "obs.csv")

			assert.False(t, fsys.Exists(path))
			require.NoError(t, fsys.WriteFile(path, []byte("label,x\n"), 0o644))
			assert.True(t, fsys.Exists(path))

			got, err := fsys.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "label,x\n", string(got))

			f, err := fsys.Open(path)
			require.NoError(t, err)
			info, err := f.Stat()
			require.NoError(t, err)
			assert.Equal(t, "obs.csv", info.Name())
			assert.Equal(t, int64(8), info.Size())

			data, err := io.ReadAll(f)
			require.NoError(t, err)
			require.NoError(t, f.Close())
			assert.Equal(t, "label,x\n", string(data))
		})
	}
}

func TestFileSystem_Missing(t *testing.T) {
	for name, impl := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(impl.root, "nope.csv")
			_, err := impl.fsys.Open(path)
			assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
			_, err = impl.fsys.ReadFile(path)
			assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
		})
	}
}

func TestWriteWith(t *testing.T) {
	for name, impl := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(impl.root, "out", "report.txt")
			err := WriteWith(impl.fsys, path, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Q=%.3f", 0.125)
				return err
			})
			require.NoError(t, err)
			assert.True(t, impl.fsys.Exists(filepath.Dir(path)))

			got, err := impl.fsys.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "Q=0.125", string(got))
		})
	}
}

func TestWriteWith_PropagatesWriterError(t *testing.T) {
	fsys := NewMemoryFileSystem()
	boom := errors.New("boom")
	err := WriteWith(fsys, "x.png", func(io.Writer) error { return boom })
	assert.ErrorIs(t, err, boom)
	// The file was still closed, so it exists and is empty.
	got, err := fsys.ReadFile("x.png")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryFileSystem_CopiesData(t *testing.T) {
	fsys := NewMemoryFileSystem()
	data := []byte("abc")
	require.NoError(t, fsys.WriteFile("a", data, 0o644))
	data[0] = 'z'

	got, err := fsys.ReadFile("a")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'z'
	again, _ := fsys.ReadFile("a")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryFileSystem_MkdirAllAndFiles(t *testing.T) {
	fsys := NewMemoryFileSystem()
	require.NoError(t, fsys.MkdirAll("/a/b/c", 0o755))
	assert.True(t, fsys.Exists("/a"))
	assert.True(t, fsys.Exists("/a/b"))
	assert.True(t, fsys.Exists("/a/b/c/"))

	require.NoError(t, fsys.WriteFile("/a/z.txt", nil, 0o644))
	require.NoError(t, fsys.WriteFile("/a/b/y.txt", nil, 0o644))
	assert.Equal(t, []string{"/a/b/y.txt", "/a/z.txt"}, fsys.Files())
}
