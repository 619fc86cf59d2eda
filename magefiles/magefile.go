//go:build mage

// Package main contains Mage build targets for scholar-agent developer tooling.
package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the CLI expects.
var projectDirs = []string{
	"data",
	"data/cache",
	"data/dumps",
	"runs",
	".secrets",
}

// Init creates the working directories for the corpus, index caches, and runs.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "scholar-agent"
	cmdPkg  = "./cmd/scholar-agent"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
		version = "dev"
	}
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", out, version)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Index imports every dump under data/dumps and rebuilds the semantic indexes.
// Paper dumps are named papers*.{json,jsonl,yaml}; dataset dumps datasets*.
func Index() error {
	mg.Deps(Init, Build)
	bin := filepath.Join(binDir, binName)
	for _, kind := range []string{"papers", "datasets"} {
		files, err := filepath.Glob(filepath.Join("data", "dumps", kind+"*"))
		if err != nil {
			return err
		}
		if len(files) == 0 {
			continue
		}
		args := append([]string{"corpus", "import", kind}, files...)
		if err := sh.RunV(bin, args...); err != nil {
			return err
		}
	}
	return sh.RunV(bin, "index", "build")
}

// Stats prints non-blank Go lines per top-level package directory, split into
// production and test code, plus the word count of Markdown docs.
func Stats() error {
	type counts struct{ prod, test int }
	perDir := map[string]*counts{}
	var order []string
	docWords := 0

	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && (strings.HasPrefix(d.Name(), "_") || strings.HasPrefix(d.Name(), ".") || d.Name() == "bin" || d.Name() == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		switch filepath.Ext(path) {
		case ".md":
			docWords += len(strings.Fields(string(data)))
		case ".go":
			key := packageKey(path)
			c, ok := perDir[key]
			if !ok {
				c = &counts{}
				perDir[key] = c
				order = append(order, key)
			}
			n := nonBlankLines(data)
			if strings.HasSuffix(path, "_test.go") {
				c.test += n
			} else {
				c.prod += n
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	sort.Strings(order)
	var total counts
	fmt.Printf("%-28s  %8s  %8s\n", "Package", "Prod", "Test")
	for _, k := range order {
		c := perDir[k]
		total.prod += c.prod
		total.test += c.test
		fmt.Printf("%-28s  %8d  %8d\n", k, c.prod, c.test)
	}
	fmt.Printf("%-28s  %8d  %8d\n", "total", total.prod, total.test)
	fmt.Printf("Words (documentation): %d\n", docWords)
	return nil
}

// packageKey groups a Go file under its first two path elements, e.g.
// internal/agent or cmd/scholar-agent.
func packageKey(path string) string {
	parts := strings.Split(filepath.ToSlash(filepath.Dir(path)), "/")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, "/")
}

func nonBlankLines(data []byte) int {
	n := 0
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n
}
