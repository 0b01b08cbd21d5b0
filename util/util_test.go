package util

import (
	"crypto/md5" // #nosec G501
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRelativePath(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectedErr error
	}{
		{name: "empty path", input: "", expectedErr: ErrInvalidPath},
		{name: "plain path passes through", input: "/data/fixes.csv"},
		{name: "dot-relative path resolves against cwd", input: "./fixes.csv"},
		{name: "tilde path resolves against home", input: "~/fixes.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ParseRelativePath(tt.input)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, filepath.IsAbs(out) || out == tt.input)
		})
	}
}

func TestParseRelativePathDotResolvesAgainstCwd(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	out, err := ParseRelativePath("./fixes.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "./fixes.csv"), out)
}

func TestValidateFile(t *testing.T) {
	afs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(afs, "/data/fixes.csv", []byte("mmsi\n"), 0o644))
	require.NoError(t, afs.MkdirAll("/data/empty_dir", 0o755))
	require.NoError(t, afero.WriteFile(afs, "/data/empty.csv", nil, 0o644))

	tests := []struct {
		name        string
		path        string
		expectedErr error
	}{
		{name: "empty path", path: "", expectedErr: ErrInvalidPath},
		{name: "nonexistent file", path: "/data/missing.csv", expectedErr: ErrFileDoesNotExist},
		{name: "path is a directory", path: "/data/empty_dir", expectedErr: ErrPathIsDir},
		{name: "empty file", path: "/data/empty.csv", expectedErr: ErrFileIsEmpty},
		{name: "valid file", path: "/data/fixes.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(afs, tt.path)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateDirectory(t *testing.T) {
	afs := afero.NewMemMapFs()
	require.NoError(t, afs.MkdirAll("/data/checkpoints", 0o755))
	require.NoError(t, afero.WriteFile(afs, "/data/fixes.csv", []byte("mmsi\n"), 0o644))

	tests := []struct {
		name        string
		path        string
		expectedErr error
	}{
		{name: "empty path", path: "", expectedErr: ErrInvalidPath},
		{name: "nonexistent directory", path: "/data/missing", expectedErr: ErrDirDoesNotExist},
		{name: "path is a file", path: "/data/fixes.csv", expectedErr: ErrPathIsNotDir},
		{name: "valid directory", path: "/data/checkpoints"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDirectory(afs, tt.path)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewFixedStringHash(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expected    [16]byte
		expectedErr bool
	}{
		{
			name:     "single string",
			args:     []string{"hello"},
			expected: md5.Sum([]byte("hello")), // #nosec G401
		},
		{
			name:     "multiple strings concatenate before hashing",
			args:     []string{"hello", "world"},
			expected: md5.Sum([]byte("helloworld")), // #nosec G401
		},
		{
			name:        "empty string",
			args:        []string{""},
			expectedErr: true,
		},
		{
			name:        "no arguments",
			args:        []string{},
			expectedErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewFixedStringHash(tt.args...)
			if tt.expectedErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Data)
		})
	}
}

func TestFixedStringHexIsDeterministicAndUppercase(t *testing.T) {
	a, err := NewFixedStringHash("mmsi", "checkpoint")
	require.NoError(t, err)
	b, err := NewFixedStringHash("mmsi", "checkpoint")
	require.NoError(t, err)

	assert.Equal(t, a.Hex(), b.Hex())
	assert.Equal(t, a.Hex(), strings.ToUpper(a.Hex()))
}
