package texture

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// extRank orders candidate files for one stem: higher wins. OZT beats OZJ
// because it carries alpha.
var extRank = map[string]int{
	".jpg": 1, ".jpeg": 1, ".bmp": 1,
	".png": 2, ".tga": 2,
	".ozj": 3,
	".ozt": 4,
}

// Index maps lowercase texture stems to filesystem paths.
type Index struct {
	entries map[string]string
}

// BuildIndex walks root recursively for texture files. A missing root
// yields an empty index.
func BuildIndex(root string) *Index {
	idx := &Index{entries: make(map[string]string)}
	if root == "" {
		return idx
	}

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		rank, ok := extRank[ext]
		if !ok {
			return nil
		}
		stem := stemOf(path)
		if cur, exists := idx.entries[stem]; !exists || rank > extRank[strings.ToLower(filepath.Ext(cur))] {
			idx.entries[stem] = path
		}
		return nil
	})
	return idx
}

func stemOf(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// ResolvePath returns the filesystem path for a texture reference such as
// "Monsters\texture\foo.jpg", matching on the lowercase stem.
func (idx *Index) ResolvePath(texName string) (string, bool) {
	path, ok := idx.entries[stemOf(texName)]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}
