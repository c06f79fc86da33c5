package modpath

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{input: "carryon_1.8.0.zip", expected: "carryon_1.8.0.zip", ok: true},
		{input: " spaced.zip ", expected: "spaced.zip", ok: true},
		{input: "../../evil.zip", expected: "evil.zip", ok: true},
		{input: "C:\\Windows\\evil.zip", expected: "evil.zip", ok: true},
		{input: "nested/dir/"},
		{input: ".."},
		{input: "."},
		{input: ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			name, ok := SafeFileName(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, name)
		})
	}
}

func TestLexicalChecksOnMemoryFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := filepath.FromSlash("/data/Mods")

	t.Run("inside", func(t *testing.T) {
		destination := filepath.Join(root, "carryon.zip")
		resolved, err := ResolveWritablePath(fs, root, destination)
		require.NoError(t, err)
		assert.Equal(t, destination, resolved)
	})

	t.Run("traversal", func(t *testing.T) {
		destination := filepath.Join(root, "..", "clientsettings.json")
		var outside OutsideRootError
		require.ErrorAs(t, EnsureWithinRoot(fs, root, destination), &outside)
		assert.Equal(t, destination, outside.Path)
	})

	t.Run("the root itself", func(t *testing.T) {
		assert.IsType(t, OutsideRootError{}, EnsureWithinRoot(fs, root, root+string(os.PathSeparator)))
	})

	t.Run("elsewhere", func(t *testing.T) {
		assert.IsType(t, OutsideRootError{}, EnsureWithinRoot(fs, root, filepath.FromSlash("/etc/passwd")))
	})
}

func TestContains(t *testing.T) {
	root := absolutePath("mods")

	assert.True(t, contains(root, root))
	assert.True(t, contains(root, filepath.Join(root, "a", "b.zip")))
	assert.True(t, contains(root, filepath.Join(root, "..mods.zip")))
	assert.False(t, contains(root, filepath.Dir(root)))
	assert.False(t, contains(root, filepath.Join(root, "..", "other")))
	assert.False(t, contains("", absolutePath("abs")))
}

// osMods creates <tmp>/Mods and reports whether the OS lets the test create symlinks.
func osMods(t *testing.T) string {
	t.Helper()
	mods := filepath.Join(t.TempDir(), "Mods")
	require.NoError(t, os.MkdirAll(mods, 0o755))
	return mods
}

func symlinkOrSkip(t *testing.T, target string, link string) {
	t.Helper()
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}
}

func TestResolveOnOsFs(t *testing.T) {
	fs := afero.NewOsFs()

	t.Run("symlinked root", func(t *testing.T) {
		mods := osMods(t)
		linkedRoot := filepath.Join(filepath.Dir(mods), "Mods-link")
		symlinkOrSkip(t, mods, linkedRoot)

		resolved, err := ResolveWritablePath(fs, linkedRoot, filepath.Join(linkedRoot, "carryon.zip"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(mods, "carryon.zip"), resolved)
	})

	t.Run("absolute link inside", func(t *testing.T) {
		mods := osMods(t)
		target := filepath.Join(mods, "target.zip")
		require.NoError(t, os.WriteFile(target, []byte("zip"), 0o644))
		link := filepath.Join(mods, "link.zip")
		symlinkOrSkip(t, target, link)

		resolved, err := ResolveWritablePath(fs, mods, link)
		require.NoError(t, err)
		assert.Equal(t, target, resolved)
	})

	t.Run("relative link inside", func(t *testing.T) {
		mods := osMods(t)
		require.NoError(t, os.WriteFile(filepath.Join(mods, "target.zip"), []byte("zip"), 0o644))
		link := filepath.Join(mods, "link.zip")
		symlinkOrSkip(t, "target.zip", link)

		resolved, err := ResolveWritablePath(fs, mods, link)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(mods, "target.zip"), resolved)
	})

	t.Run("file link outside", func(t *testing.T) {
		mods := osMods(t)
		target := filepath.Join(t.TempDir(), "target.zip")
		require.NoError(t, os.WriteFile(target, []byte("zip"), 0o644))
		link := filepath.Join(mods, "link.zip")
		symlinkOrSkip(t, target, link)

		err := EnsureWithinRoot(fs, mods, link)
		assert.IsType(t, OutsideRootError{}, err)
		assert.ErrorContains(t, err, "outside root")
	})

	t.Run("directory link outside", func(t *testing.T) {
		mods := osMods(t)
		linkedDir := filepath.Join(mods, "linked")
		symlinkOrSkip(t, t.TempDir(), linkedDir)

		err := EnsureWithinRoot(fs, mods, filepath.Join(linkedDir, "carryon.zip"))
		assert.IsType(t, OutsideRootError{}, err)
	})

	t.Run("dangling link directory", func(t *testing.T) {
		mods := osMods(t)
		link := filepath.Join(mods, "link.zip")
		symlinkOrSkip(t, filepath.Join("missing", "target.zip"), link)

		assert.Error(t, EnsureWithinRoot(fs, mods, link))
	})

	t.Run("missing destination directory", func(t *testing.T) {
		mods := osMods(t)
		assert.Error(t, EnsureWithinRoot(fs, mods, filepath.Join(mods, "missing", "carryon.zip")))
	})

	t.Run("missing root", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "missing")
		assert.Error(t, EnsureWithinRoot(fs, root, filepath.Join(root, "carryon.zip")))
	})

	t.Run("relative root", func(t *testing.T) {
		mods := osMods(t)
		t.Chdir(filepath.Dir(mods))

		resolved, err := ResolveWritablePath(fs, "Mods", filepath.Join("Mods", "carryon.zip"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(mods, "carryon.zip"), resolved)
	})
}

func TestResolveSurfacesFilesystemErrors(t *testing.T) {
	t.Run("lstat", func(t *testing.T) {
		mods := osMods(t)
		fs := failingLinkFs{OsFs: &afero.OsFs{}, lstatErr: os.ErrPermission}

		assert.ErrorIs(t, EnsureWithinRoot(fs, mods, filepath.Join(mods, "carryon.zip")), os.ErrPermission)
	})

	t.Run("readlink", func(t *testing.T) {
		mods := osMods(t)
		target := filepath.Join(mods, "target.zip")
		require.NoError(t, os.WriteFile(target, []byte("zip"), 0o644))
		link := filepath.Join(mods, "link.zip")
		symlinkOrSkip(t, target, link)
		fs := failingLinkFs{OsFs: &afero.OsFs{}, readlinkErr: os.ErrPermission}

		assert.ErrorIs(t, EnsureWithinRoot(fs, mods, link), os.ErrPermission)
	})

	t.Run("no lstat support", func(t *testing.T) {
		mods := osMods(t)
		destination := filepath.Join(mods, "carryon.zip")

		resolved, err := ResolveWritablePath(readlinkOnlyFs{Fs: &afero.OsFs{}}, mods, destination)
		require.NoError(t, err)
		assert.Equal(t, destination, resolved)
	})
}

func TestResolverWithStubbedLinks(t *testing.T) {
	root := absolutePath("mods")
	identity := func(path string) (string, error) { return path, nil }

	tests := []struct {
		name        string
		destination string
		links       map[string]string
		resolver    resolver
		expected    string
		outside     bool
		fails       bool
	}{
		{
			name:        "link to a sibling",
			destination: filepath.Join(root, "link.zip"),
			links:       map[string]string{filepath.Join(root, "link.zip"): filepath.Join(root, "target.zip")},
			resolver:    resolver{evalSymlinks: identity, abs: identity},
			expected:    filepath.Join(root, "target.zip"),
		},
		{
			name:        "link out of the root",
			destination: filepath.Join(root, "link.zip"),
			links:       map[string]string{filepath.Join(root, "link.zip"): absolutePath("outside", "target.zip")},
			resolver:    resolver{evalSymlinks: identity, abs: identity},
			outside:     true,
		},
		{
			name:        "directory resolving out of the root",
			destination: filepath.Join(root, "linked", "carryon.zip"),
			resolver: resolver{
				evalSymlinks: func(path string) (string, error) {
					if path == filepath.Join(root, "linked") {
						return absolutePath("outside"), nil
					}
					return path, nil
				},
				abs: identity,
			},
			outside: true,
		},
		{
			name:        "abs fails on the root",
			destination: filepath.Join(root, "carryon.zip"),
			resolver:    resolver{evalSymlinks: identity, abs: func(string) (string, error) { return "", errors.New("abs failed") }},
			fails:       true,
		},
		{
			name:        "abs fails on the link target",
			destination: filepath.Join(root, "link.zip"),
			links:       map[string]string{filepath.Join(root, "link.zip"): filepath.Join(root, "target.zip")},
			resolver: resolver{evalSymlinks: identity, abs: func(path string) (string, error) {
				if path == root {
					return path, nil
				}
				return "", errors.New("abs failed")
			}},
			fails: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := stubLinkFs{Fs: afero.NewMemMapFs(), links: tc.links}

			resolved, err := tc.resolver.resolve(fs, root, tc.destination)

			switch {
			case tc.outside:
				assert.IsType(t, OutsideRootError{}, err)
			case tc.fails:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.expected, resolved)
			}
		})
	}
}

func absolutePath(parts ...string) string {
	root := string(os.PathSeparator)
	if volume := filepath.VolumeName(os.TempDir()); volume != "" {
		root = volume + string(os.PathSeparator)
	}
	return filepath.Join(append([]string{root}, parts...)...)
}

type failingLinkFs struct {
	*afero.OsFs
	lstatErr    error
	readlinkErr error
}

func (fs failingLinkFs) LstatIfPossible(path string) (os.FileInfo, bool, error) {
	if fs.lstatErr != nil {
		return nil, true, fs.lstatErr
	}
	return fs.OsFs.LstatIfPossible(path)
}

func (fs failingLinkFs) ReadlinkIfPossible(path string) (string, error) {
	if fs.readlinkErr != nil {
		return "", fs.readlinkErr
	}
	return fs.OsFs.ReadlinkIfPossible(path)
}

type readlinkOnlyFs struct {
	afero.Fs
}

func (readlinkOnlyFs) ReadlinkIfPossible(string) (string, error) {
	return "", os.ErrInvalid
}

type stubLinkFs struct {
	afero.Fs
	links map[string]string
}

func (fs stubLinkFs) LstatIfPossible(path string) (os.FileInfo, bool, error) {
	if _, ok := fs.links[path]; ok {
		return linkInfo{name: filepath.Base(path)}, true, nil
	}
	return nil, true, os.ErrNotExist
}

func (fs stubLinkFs) ReadlinkIfPossible(path string) (string, error) {
	target, ok := fs.links[path]
	if !ok {
		return "", os.ErrNotExist
	}
	return target, nil
}

type linkInfo struct{ name string }

func (info linkInfo) Name() string       { return info.name }
func (info linkInfo) Size() int64        { return 0 }
func (info linkInfo) Mode() os.FileMode  { return os.ModeSymlink }
func (info linkInfo) ModTime() time.Time { return time.Time{} }
func (info linkInfo) IsDir() bool        { return false }
func (info linkInfo) Sys() interface{}   { return nil }
