package commands

import (
	"fmt"
	"io"
	"os"
)

// loadSources reads the given file paths into the project-path -> source
// map pkg/compiler.Parse expects (spec §4.4). A single file is mapped to
// the literal root path "" since moduletree.Compose treats that as an
// unambiguous root regardless of the file's own name; multiple files keep
// their given paths so nested directories become submodules. "-" reads
// source text from stdin.
func loadSources(paths []string) (map[string]string, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("pqlc: no input files given")
	}
	sources := make(map[string]string, len(paths))
	for _, p := range paths {
		var data []byte
		var err error
		if p == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(p)
		}
		if err != nil {
			return nil, fmt.Errorf("pqlc: reading %s: %w", p, err)
		}
		key := p
		if len(paths) == 1 {
			key = ""
		}
		sources[key] = string(data)
	}
	return sources, nil
}
