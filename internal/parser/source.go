package parser

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/pable/cricroster/internal/model"
)

// Record is one raw match file taken from a source.
type Record struct {
	MatchID string // file name without extension
	Entry   string // name inside the source
	Data    []byte
	Err     error // set when the raw bytes could not be read
}

// Source yields the raw match records of one format in a stable order.
type Source interface {
	Format() model.Format
	Name() string
	// Each calls fn for every record. A non-nil error from fn stops the walk
	// and is returned.
	Each(ctx context.Context, fn func(Record) error) error
	Close() error
}

// ArchivePath is the conventional location of a format's archive in dataDir.
func ArchivePath(dataDir string, f model.Format) string {
	return filepath.Join(dataDir, f.ArchiveKey()+"_json.zip")
}

// Archive reads match records from a Cricsheet zip download.
type Archive struct {
	path   string
	format model.Format
	hash   string
	zr     *zip.ReadCloser
}

// OpenArchive opens the zip at p and hashes it so runs can record exactly
// which download they were built from.
func OpenArchive(p string, format model.Format) (*Archive, error) {
	hash, err := hashFile(p)
	if err != nil {
		return nil, err
	}
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", p, err)
	}
	return &Archive{path: p, format: format, hash: hash, zr: zr}, nil
}

func hashFile(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash archive: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func (a *Archive) Format() model.Format { return a.format }
func (a *Archive) Name() string         { return filepath.Base(a.path) }

// Hash is the hex SHA-256 of the archive file.
func (a *Archive) Hash() string { return a.hash }

// Len returns the number of JSON entries in the archive.
func (a *Archive) Len() int {
	n := 0
	for _, f := range a.zr.File {
		if isMatchFile(f.Name) {
			n++
		}
	}
	return n
}

// Each walks the archive's JSON entries in directory order.
func (a *Archive) Each(ctx context.Context, fn func(Record) error) error {
	for _, f := range a.zr.File {
		if !isMatchFile(f.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		data, rerr := readEntry(f)
		if err := fn(Record{MatchID: stem(f.Name), Entry: f.Name, Data: data, Err: rerr}); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archive) Close() error { return a.zr.Close() }

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Dir reads match records from an extracted archive directory.
type Dir struct {
	dir    string
	format model.Format
}

// OpenDir returns a source over the *.json files directly inside dir.
func OpenDir(dir string, format model.Format) (*Dir, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open dir: %s is not a directory", dir)
	}
	return &Dir{dir: dir, format: format}, nil
}

func (d *Dir) Format() model.Format { return d.format }
func (d *Dir) Name() string         { return filepath.Base(d.dir) }
func (d *Dir) Close() error         { return nil }

// Each walks the directory's JSON files in lexical order.
func (d *Dir) Each(ctx context.Context, fn func(Record) error) error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && isMatchFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, rerr := os.ReadFile(filepath.Join(d.dir, name))
		if err := fn(Record{MatchID: stem(name), Entry: name, Data: data, Err: rerr}); err != nil {
			return err
		}
	}
	return nil
}

func isMatchFile(name string) bool {
	return strings.HasSuffix(name, ".json")
}

func stem(name string) string {
	base := path.Base(filepath.ToSlash(name))
	return strings.TrimSuffix(base, path.Ext(base))
}
