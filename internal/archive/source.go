package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

// source — файловое представление выгрузки: zip-архив или распакованная директория.
type source interface {
	// ReadFile читает файл по пути относительно корня выгрузки.
	ReadFile(name string) ([]byte, error)
	// List возвращает имена файлов (без поддиректорий и служебных "._*") в dir, отсортированные по имени.
	// ok=false, если директории нет.
	List(dir string) (names []string, ok bool, err error)
	Close() error
}

func openSource(p string) (source, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	if info.IsDir() {
		return &dirSource{fsys: os.DirFS(p)}, nil
	}
	return openZip(p)
}

type dirSource struct {
	fsys fs.FS
}

func (s *dirSource) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(s.fsys, name)
}

func (s *dirSource) List(dir string) ([]string, bool, error) {
	entries, err := fs.ReadDir(s.fsys, dir)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && !strings.HasPrefix(e.Name(), "._") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, true, nil
}

func (s *dirSource) Close() error { return nil }

// zipSource индексирует записи архива. Если выгрузка упакована в одну корневую
// папку (export/users.json), префикс папки отбрасывается.
type zipSource struct {
	rc    *zip.ReadCloser
	files map[string]*zip.File
	dirs  map[string][]string
}

func openZip(p string) (*zipSource, error) {
	rc, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("archive: open zip %s: %w", p, err)
	}
	prefix := rootPrefix(rc.File)
	s := &zipSource{rc: rc, files: make(map[string]*zip.File), dirs: make(map[string][]string)}
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := strings.TrimPrefix(f.Name, prefix)
		if name == "" || strings.HasPrefix(path.Base(name), "._") {
			continue
		}
		s.files[name] = f
		dir := path.Dir(name)
		s.dirs[dir] = append(s.dirs[dir], path.Base(name))
	}
	for dir := range s.dirs {
		sort.Strings(s.dirs[dir])
	}
	return s, nil
}

// rootPrefix ищет users.json на минимальной глубине и возвращает его директорию с "/".
func rootPrefix(files []*zip.File) string {
	best := ""
	depth := -1
	for _, f := range files {
		if path.Base(f.Name) != usersFile {
			continue
		}
		d := strings.Count(f.Name, "/")
		if depth == -1 || d < depth {
			depth = d
			best = f.Name
		}
	}
	if depth <= 0 {
		return ""
	}
	return path.Dir(best) + "/"
}

func (s *zipSource) ReadFile(name string) ([]byte, error) {
	f, ok := s.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *zipSource) List(dir string) ([]string, bool, error) {
	names, ok := s.dirs[dir]
	if !ok {
		return nil, false, nil
	}
	out := make([]string, len(names))
	copy(out, names)
	return out, true, nil
}

func (s *zipSource) Close() error {
	return s.rc.Close()
}
