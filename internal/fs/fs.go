// Package fs bridges the pure engine and the working tree: it loads the
// snapshot an operation set needs and commits a result snapshot back to
// disk.
package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sokinpui/mdapply/model"
)

// PathResolver finds absolute paths for snapshot-relative files.
type PathResolver struct {
	lookupDirs []string
}

// NewPathResolver creates a new PathResolver. With no lookup dirs the
// current working directory is used.
func NewPathResolver(lookupDirs []string) *PathResolver {
	if len(lookupDirs) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			// This is unlikely to fail, but if it does, it's a critical error.
			panic(fmt.Sprintf("could not get current working directory: %v", err))
		}
		return &PathResolver{lookupDirs: []string{wd}}
	}

	absDirs := make([]string, 0, len(lookupDirs))
	for _, dir := range lookupDirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		absDirs = append(absDirs, abs)
	}
	return &PathResolver{lookupDirs: absDirs}
}

// Resolve finds an absolute path, assuming a new file in the first lookup
// directory if it doesn't exist anywhere.
func (r *PathResolver) Resolve(relativePath string) string {
	if existing := r.ResolveExisting(relativePath); existing != "" {
		return existing
	}
	return filepath.Join(r.lookupDirs[0], filepath.FromSlash(relativePath))
}

// ResolveExisting finds an absolute path only if the file exists.
func (r *PathResolver) ResolveExisting(relativePath string) string {
	for _, dir := range r.lookupDirs {
		absPath := filepath.Join(dir, filepath.FromSlash(relativePath))
		if _, err := os.Stat(absPath); err == nil {
			return absPath
		}
	}
	return ""
}

// Root is the directory new files are created under.
func (r *PathResolver) Root() string { return r.lookupDirs[0] }

// LoadSnapshot reads the files an operation set can touch into a
// snapshot. Besides every referenced path, any file sharing a basename
// with a referenced path is included so the planner's suffix repair has
// candidates to work with.
func LoadSnapshot(ops []model.FileOperation, r *PathResolver) model.Snapshot {
	referenced := make(map[string]struct{})
	basenames := make(map[string]struct{})
	for _, op := range ops {
		for _, p := range opPaths(op) {
			referenced[p] = struct{}{}
			basenames[baseOf(p)] = struct{}{}
		}
	}

	snap := make(model.Snapshot)
	for _, dir := range r.lookupDirs {
		root := dir
		filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			name := d.Name()
			if d.IsDir() {
				if path != root && (strings.HasPrefix(name, ".") || name == "node_modules") {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			key := filepath.ToSlash(rel)
			if _, ok := snap[key]; ok {
				return nil
			}
			_, wantPath := referenced[key]
			_, wantBase := basenames[baseOf(key)]
			if !wantPath && !wantBase {
				return nil
			}
			if content, err := os.ReadFile(path); err == nil {
				snap[key] = model.FileState{Content: string(content)}
			}
			return nil
		})
	}

	// Referenced files living under skipped directories still resolve.
	for p := range referenced {
		if _, ok := snap[p]; ok {
			continue
		}
		if abs := r.ResolveExisting(p); abs != "" {
			if content, err := os.ReadFile(abs); err == nil {
				snap[p] = model.FileState{Content: string(content)}
			}
		}
	}
	return snap
}

func opPaths(op model.FileOperation) []string {
	if op.Kind == model.OpRename {
		return []string{op.From}
	}
	return []string{op.Path}
}

func baseOf(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// FileAction records one disk mutation performed by Commit, for the
// state history. Hash is the content hash after the action; for a delete
// it is the hash of the trashed content.
type FileAction struct {
	Action string // "create", "modify" or "delete"
	Path   string // snapshot-relative path
	Abs    string
	Hash   string
}

// CommitResult lists what Commit changed, by snapshot path.
type CommitResult struct {
	Created  []string
	Modified []string
	Deleted  []string
	Actions  []FileAction
}

// Commit writes the difference between originals and result to disk.
// Deleted files move to trashDir and the pre-modify contents of changed
// files are copied under backupDir, so the run can be reverted.
func Commit(originals, result model.Snapshot, r *PathResolver, backupDir, trashDir string) (CommitResult, error) {
	var res CommitResult

	paths := make([]string, 0, len(result))
	for p := range result {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		st := result[path]
		orig, had := originals[path]
		hadFile := had && !orig.Absent

		switch {
		case st.Absent && hadFile:
			abs := r.Resolve(path)
			hash, _ := FileSHA256(abs)
			if err := moveToDir(abs, trashDir, path); err != nil {
				return res, fmt.Errorf("failed to trash %s: %w", path, err)
			}
			res.Deleted = append(res.Deleted, path)
			res.Actions = append(res.Actions, FileAction{Action: "delete", Path: path, Abs: abs, Hash: hash})

		case !st.Absent && !hadFile:
			abs := r.Resolve(path)
			if err := writeFile(abs, st.Content); err != nil {
				return res, err
			}
			res.Created = append(res.Created, path)
			res.Actions = append(res.Actions, FileAction{Action: "create", Path: path, Abs: abs, Hash: hashOf(st.Content)})

		case !st.Absent && hadFile && st.Content != orig.Content:
			abs := r.Resolve(path)
			if err := copyToDir(abs, backupDir, path); err != nil {
				return res, fmt.Errorf("failed to back up %s: %w", path, err)
			}
			if err := writeFile(abs, st.Content); err != nil {
				return res, err
			}
			res.Modified = append(res.Modified, path)
			res.Actions = append(res.Actions, FileAction{Action: "modify", Path: path, Abs: abs, Hash: hashOf(st.Content)})
		}
	}
	return res, nil
}

func writeFile(abs, content string) error {
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return err
	}
	return os.WriteFile(abs, []byte(content), 0644)
}

// moveToDir relocates abs under dir, keyed by its snapshot path.
func moveToDir(abs, dir, rel string) error {
	dst := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := os.Rename(abs, dst); err == nil {
		return nil
	}
	if err := copyFile(abs, dst); err != nil {
		return err
	}
	return os.Remove(abs)
}

func copyToDir(abs, dir, rel string) error {
	dst := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return copyFile(abs, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// FileSHA256 hashes a file's content.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashOf(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// RestoreFromDir moves dir/rel back to abs, failing rather than
// overwriting an existing file.
func RestoreFromDir(dir, rel, abs string) error {
	src := filepath.Join(dir, filepath.FromSlash(rel))
	if _, err := os.Stat(src); err != nil {
		return err
	}
	if _, err := os.Stat(abs); err == nil {
		return fmt.Errorf("cannot restore %s: file already exists", abs)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return err
	}
	if err := os.Rename(src, abs); err == nil {
		return nil
	}
	if err := copyFile(src, abs); err != nil {
		return err
	}
	return os.Remove(src)
}
