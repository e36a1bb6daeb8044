package main

import (
	"io"
	"os"
	"path/filepath"

	blade "github.com/itsatony/go-blade"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// writeOutput writes content to a file or stdout
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}

	return os.WriteFile(path, data, FilePermissions)
}

// outputPath maps a template name to its file under dir, creating parent
// directories as needed
func outputPath(dir, name string) (string, error) {
	normalized, err := blade.NormalizeTemplateName(name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.FromSlash(normalized)+DefaultOutputExt)
	if err := os.MkdirAll(filepath.Dir(path), DirPermissions); err != nil {
		return "", err
	}
	return path, nil
}

// displayNameFor names --template input in errors
func displayNameFor(path, name string) string {
	switch {
	case name != "":
		return name
	case path == InputSourceStdin:
		return DisplayNameStdin
	default:
		return filepath.Base(path)
	}
}
