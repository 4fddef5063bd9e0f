package git

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// treeEntry is a file in a flattened tree
type treeEntry struct {
	mode filemode.FileMode
	hash plumbing.Hash
}

// fileSet maps slash-separated paths to their entries
type fileSet map[string]treeEntry

func (fs fileSet) clone() fileSet {
	out := make(fileSet, len(fs))
	for p, e := range fs {
		out[p] = e
	}
	return out
}

// pathClashError reports a path used both as a file and as a directory
type pathClashError struct {
	path string
}

func (e *pathClashError) Error() string {
	return fmt.Sprintf("%s is both a file and a directory", e.path)
}

// readTree flattens the tree of a commit
func (r *Repository) readTree(treeHash plumbing.Hash) (fileSet, error) {
	files := fileSet{}
	if treeHash.IsZero() {
		return files, nil
	}

	tree, err := object.GetTree(r.Storer, treeHash)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree %s: %w", treeHash, err)
	}

	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()
	for {
		name, entry, err := walker.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to walk tree %s: %w", treeHash, err)
		}
		if entry.Mode == filemode.Dir {
			continue
		}
		files[name] = treeEntry{mode: entry.Mode, hash: entry.Hash}
	}
	return files, nil
}

type dirNode struct {
	files map[string]treeEntry
	dirs  map[string]*dirNode
}

func newDirNode() *dirNode {
	return &dirNode{files: map[string]treeEntry{}, dirs: map[string]*dirNode{}}
}

// writeTree stores the nested trees for files and returns the root tree hash
func (r *Repository) writeTree(files fileSet) (plumbing.Hash, error) {
	root := newDirNode()
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		node := root
		parts := strings.Split(p, "/")
		for i, part := range parts[:len(parts)-1] {
			if _, isFile := node.files[part]; isFile {
				return plumbing.ZeroHash, &pathClashError{path: strings.Join(parts[:i+1], "/")}
			}
			child, ok := node.dirs[part]
			if !ok {
				child = newDirNode()
				node.dirs[part] = child
			}
			node = child
		}
		name := parts[len(parts)-1]
		if _, isDir := node.dirs[name]; isDir {
			return plumbing.ZeroHash, &pathClashError{path: p}
		}
		node.files[name] = files[p]
	}

	return r.storeDir(root)
}

func (r *Repository) storeDir(node *dirNode) (plumbing.Hash, error) {
	entries := make([]object.TreeEntry, 0, len(node.files)+len(node.dirs))
	for name, e := range node.files {
		entries = append(entries, object.TreeEntry{Name: name, Mode: e.mode, Hash: e.hash})
	}
	for name, child := range node.dirs {
		hash, err := r.storeDir(child)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: hash})
	}
	sort.Slice(entries, func(i, j int) bool {
		return sortName(entries[i]) < sortName(entries[j])
	})

	tree := &object.Tree{Entries: entries}
	obj := r.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode tree: %w", err)
	}
	hash, err := r.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store tree: %w", err)
	}
	return hash, nil
}

// sortName orders directories as if their name ended with a slash
func sortName(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

// storeCommit encodes and stores a commit object
func (r *Repository) storeCommit(c *object.Commit) (plumbing.Hash, error) {
	obj := r.Storer.NewEncodedObject()
	if err := c.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode commit: %w", err)
	}
	hash, err := r.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store commit: %w", err)
	}
	return hash, nil
}
