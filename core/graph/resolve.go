package graph

import (
	"path/filepath"

	"github.com/dashmesh/dashctl/core/stream"
)

func resolveFileStream(s stream.Stream, baseDir string) stream.Stream {
	if !s.IsFile() || filepath.IsAbs(s.File.Path) {
		return s
	}
	resolved := s
	resolved.File.Path = filepath.Join(baseDir, s.File.Path)
	return resolved
}
