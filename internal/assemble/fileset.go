package assemble

import "fmt"

// File is one generated output file.
type File struct {
	Path    string
	Content string
}

// FileSet is the ordered, path-unique output of one assembly. It is built
// once and not mutated afterwards.
type FileSet struct {
	files []File
	index map[string]int
}

func NewFileSet() *FileSet {
	return &FileSet{index: make(map[string]int)}
}

// Add appends a file and fails on a duplicate path. Used for bundle-derived
// entries, where a collision means the catalog itself is broken.
func (fs *FileSet) Add(path, content string) error {
	if _, ok := fs.index[path]; ok {
		return fmt.Errorf("duplicate output path %q", path)
	}
	fs.index[path] = len(fs.files)
	fs.files = append(fs.files, File{Path: path, Content: content})
	return nil
}

// Put inserts or overwrites in place, keeping the original position on
// overwrite. Used for asset entries, which win over bundle entries.
func (fs *FileSet) Put(path, content string) {
	if i, ok := fs.index[path]; ok {
		fs.files[i].Content = content
		return
	}
	fs.index[path] = len(fs.files)
	fs.files = append(fs.files, File{Path: path, Content: content})
}

// Files returns the entries in insertion order.
func (fs *FileSet) Files() []File {
	out := make([]File, len(fs.files))
	copy(out, fs.files)
	return out
}

func (fs *FileSet) Len() int {
	return len(fs.files)
}

// TotalBytes is the summed content length across all entries.
func (fs *FileSet) TotalBytes() int {
	total := 0
	for _, f := range fs.files {
		total += len(f.Content)
	}
	return total
}

func (fs *FileSet) Get(path string) (string, bool) {
	i, ok := fs.index[path]
	if !ok {
		return "", false
	}
	return fs.files[i].Content, true
}
