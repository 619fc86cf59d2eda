// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) (string, string)
		want  Secrets
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) (string, string) {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "  ak_abc123  \n")
				writeFile(t, dir, "ollama-url", "http://gpu-box:11434\n")
				return dir, ""
			},
			want: Secrets{
				"anthropic-api-key": "ak_abc123",
				"ollama-url":        "http://gpu-box:11434",
			},
		},
		{
			name: "returns empty map for nonexistent directory and env file",
			setup: func(t *testing.T) (string, string) {
				tmp := t.TempDir()
				return filepath.Join(tmp, "does-not-exist"), filepath.Join(tmp, ".env")
			},
			want: Secrets{},
		},
		{
			name: "skips empty files and dotfiles",
			setup: func(t *testing.T) (string, string) {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				writeFile(t, dir, ".gitkeep", "")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir, ""
			},
			want: Secrets{
				"anthropic-api-key": "valid-key",
			},
		},
		{
			name: "merges dotenv with normalised names",
			setup: func(t *testing.T) (string, string) {
				tmp := t.TempDir()
				writeFile(t, tmp, ".env", "USE_MOCK_MODELS=true\nANTHROPIC_API_KEY=from-env\n")
				return filepath.Join(tmp, "missing"), filepath.Join(tmp, ".env")
			},
			want: Secrets{
				"use-mock-models":   "true",
				"anthropic-api-key": "from-env",
			},
		},
		{
			name: "directory files win over dotenv",
			setup: func(t *testing.T) (string, string) {
				tmp := t.TempDir()
				dir := filepath.Join(tmp, "secrets")
				require.NoError(t, os.Mkdir(dir, 0o755))
				writeFile(t, dir, "anthropic-api-key", "from-file")
				writeFile(t, tmp, ".env", "ANTHROPIC_API_KEY=from-env\n")
				return dir, filepath.Join(tmp, ".env")
			},
			want: Secrets{
				"anthropic-api-key": "from-file",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, env := tt.setup(t)
			got, err := Load(dir, env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSecretsAccessors(t *testing.T) {
	s := Secrets{"anthropic-api-key": "k", "use-mock-models": "Yes"}

	v, ok := s.Get("ANTHROPIC_API_KEY")
	assert.True(t, ok)
	assert.Equal(t, "k", v)

	assert.True(t, s.Bool("USE_MOCK_MODELS"))
	assert.False(t, s.Bool("missing"))
	assert.ElementsMatch(t, []string{"anthropic-api-key", "use-mock-models"}, s.Keys())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
