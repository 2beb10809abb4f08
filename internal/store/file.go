package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vedantwpatil/Path-Pilot/internal/path"
)

// FileStore keeps each path as a JSON file under pathsDir and each pause
// state as a JSON file under statesDir, the layout the original bot used.
// Writes go through a temp file and an atomic rename so a crash mid-save
// never leaves a truncated path or pause state behind.
type FileStore struct {
	pathsDir  string
	statesDir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the directories if needed.
func NewFileStore(pathsDir, statesDir string) (*FileStore, error) {
	for _, dir := range []string{pathsDir, statesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create %s: %w", dir, err)
		}
	}
	return &FileStore{pathsDir: pathsDir, statesDir: statesDir}, nil
}

func (s *FileStore) pathFile(name string) string {
	return filepath.Join(s.pathsDir, sanitize(name)+".json")
}

func (s *FileStore) stateFile(pathName string) string {
	return filepath.Join(s.statesDir, sanitize(pathName)+".state.json")
}

// sanitize strips filesystem-hostile characters from user-chosen names.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		return r
	}, name)
}

func writeAtomic(file string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(file), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, file); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (s *FileStore) SavePath(_ context.Context, p *path.Path) error {
	data, err := path.Encode(p)
	if err != nil {
		return fmt.Errorf("store: encode path %q: %w", p.Name, err)
	}
	if err := writeAtomic(s.pathFile(p.Name), data); err != nil {
		return fmt.Errorf("store: save path %q: %w", p.Name, err)
	}
	return nil
}

func (s *FileStore) LoadPath(_ context.Context, name string) (*path.Path, error) {
	data, err := os.ReadFile(s.pathFile(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("store: path %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("store: load path %q: %w", name, err)
	}
	p, err := path.Decode(name, data)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return p, nil
}

func (s *FileStore) ListPaths(_ context.Context) ([]PathInfo, error) {
	entries, err := os.ReadDir(s.pathsDir)
	if err != nil {
		return nil, fmt.Errorf("store: list paths: %w", err)
	}
	var infos []PathInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		info := PathInfo{Name: name, Size: fi.Size(), Modified: fi.ModTime()}
		// Counts are best effort; an unreadable file still shows up.
		if data, err := os.ReadFile(filepath.Join(s.pathsDir, entry.Name())); err == nil {
			if p, err := path.Decode(name, data); err == nil {
				info.Moves, info.Clicks = p.Stats()
			}
		}
		infos = append(infos, info)
	}
	// Most recently modified first, like the original menu.
	sort.Slice(infos, func(i, j int) bool { return infos[i].Modified.After(infos[j].Modified) })
	return infos, nil
}

func (s *FileStore) DeletePath(_ context.Context, name string) error {
	if err := os.Remove(s.pathFile(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("store: path %q: %w", name, ErrNotFound)
		}
		return fmt.Errorf("store: delete path %q: %w", name, err)
	}
	return nil
}

func (s *FileStore) RenamePath(ctx context.Context, oldName, newName string) error {
	if _, err := os.Stat(s.pathFile(oldName)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("store: path %q: %w", oldName, ErrNotFound)
		}
		return fmt.Errorf("store: rename path %q: %w", oldName, err)
	}
	// The name is stored inside the file as well, so rewrite rather than
	// just renaming the file.
	p, err := s.LoadPath(ctx, oldName)
	if err != nil {
		return err
	}
	p.Name = newName
	if err := s.SavePath(ctx, p); err != nil {
		return err
	}
	if err := os.Remove(s.pathFile(oldName)); err != nil {
		return fmt.Errorf("store: rename path %q: %w", oldName, err)
	}
	return nil
}

func (s *FileStore) SavePause(_ context.Context, st *path.PauseState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode pause state for %q: %w", st.PathName, err)
	}
	if err := writeAtomic(s.stateFile(st.PathName), data); err != nil {
		return fmt.Errorf("store: save pause state for %q: %w", st.PathName, err)
	}
	return nil
}

func (s *FileStore) LoadPause(_ context.Context, pathName string) (*path.PauseState, error) {
	data, err := os.ReadFile(s.stateFile(pathName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("store: pause state for %q: %w", pathName, ErrNotFound)
		}
		return nil, fmt.Errorf("store: load pause state for %q: %w", pathName, err)
	}
	var st path.PauseState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("store: decode pause state for %q: %w", pathName, err)
	}
	return &st, nil
}

func (s *FileStore) DeletePause(_ context.Context, pathName string) error {
	if err := os.Remove(s.stateFile(pathName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: delete pause state for %q: %w", pathName, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
