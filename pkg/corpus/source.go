package corpus

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Source is one corpus document.
type Source interface {
	ID() string
	Lines() ([]string, error)
}

var paratextName = regexp.MustCompile(`^\d{2}([A-Z0-9]{3})`)

// DocumentID derives a document ID from a file name. Paratext names such as
// 01GENTST.SFM give the book code; anything else gives the upper-cased base name.
func DocumentID(path string) string {
	base := filepath.Base(path)
	if m := paratextName.FindStringSubmatch(strings.ToUpper(base)); m != nil {
		return m[1]
	}
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}

// FileSource reads a document from disk.
type FileSource struct {
	Path string
	id   string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path, id: DocumentID(path)}
}

func (f *FileSource) ID() string { return f.id }

func (f *FileSource) Lines() ([]string, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadLines(file)
}

// Stamp identifies the file's current revision by path, size and
// modification time without reading it.
func (f *FileSource) Stamp() (string, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return "", err
	}
	return f.Path + "|" + strconv.FormatInt(info.Size(), 10) + "|" + strconv.FormatInt(info.ModTime().UnixNano(), 10), nil
}

// ReadLines decodes r as UTF-8, or as UTF-16 when it carries that BOM, drops
// any BOM and returns NFC-normalised lines. Invalid UTF-8 is an error.
func ReadLines(r io.Reader) ([]string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(encoding.UTF8Validator))
	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, norm.NFC.String(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// MemorySource is a document held in memory.
type MemorySource struct {
	DocumentID string
	Text       string
}

func (m MemorySource) ID() string { return m.DocumentID }

func (m MemorySource) Lines() ([]string, error) {
	return ReadLines(strings.NewReader(m.Text))
}

// FileSources wraps each path in a FileSource.
func FileSources(files []string) []Source {
	sources := make([]Source, 0, len(files))
	for _, path := range files {
		sources = append(sources, NewFileSource(path))
	}
	return sources
}
