// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and model switches from a directory of
// plain-text files and an optional dotenv file.
//
// Each file in the directory is one secret: the filename is the key and the
// trimmed contents are the value. Dotenv entries are folded into the same
// namespace by lower-casing and replacing underscores with hyphens, so
// ANTHROPIC_API_KEY and .secrets/anthropic-api-key name the same secret.
// Directory files win over dotenv entries.
//
// Recognised keys: anthropic-api-key, ollama-url, use-mock-models.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Secrets maps normalised key names to values.
type Secrets map[string]string

// Get returns the value for key, accepting either the file form
// ("anthropic-api-key") or the environment form ("ANTHROPIC_API_KEY").
func (s Secrets) Get(key string) (string, bool) {
	v, ok := s[normalize(key)]
	return v, ok
}

// Bool reports whether key holds a truthy value (true, 1, yes).
func (s Secrets) Bool(key string) bool {
	v, _ := s.Get(key)
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// Keys returns the loaded key names without values.
func (s Secrets) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return keys
}

// Load reads all files in dir and then merges envFile when it exists.
// A missing directory or dotenv file is not an error. Unreadable secret files
// produce a warning on stderr but do not abort.
func Load(dir, envFile string) (Secrets, error) {
	secrets := Secrets{}

	if envFile != "" {
		env, err := godotenv.Read(envFile)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading env file %s: %w", envFile, err)
		}
		for k, v := range env {
			if v = strings.TrimSpace(v); v != "" {
				secrets[normalize(k)] = v
			}
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return secrets, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[normalize(name)] = value
		}
	}

	return secrets, nil
}

func normalize(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "_", "-")
}
