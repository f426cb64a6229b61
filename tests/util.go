package testutil

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/trezcool/sanggar/core"
	"github.com/trezcool/sanggar/storage/uploads"
)

// NewStore returns an upload store rooted in a fresh temp dir.
func NewStore(t *testing.T) *uploads.Store {
	t.Helper()
	return uploads.New(t.TempDir())
}

// WriteFile creates `rel` under the store root with `content`.
func WriteFile(t *testing.T, store *uploads.Store, rel string, content []byte) string {
	t.Helper()
	abs := filepath.Join(store.Root(), filepath.FromSlash(strings.TrimPrefix(rel, "/")))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	if err := os.WriteFile(abs, content, 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	return abs
}

// WriteDocx creates a minimal .docx at `rel` holding one paragraph per item.
func WriteDocx(t *testing.T, store *uploads.Store, rel string, paragraphs ...string) string {
	t.Helper()
	abs := WriteFile(t, store, rel, nil)
	f, err := os.Create(abs)
	if err != nil {
		t.Fatalf("WriteDocx() failed: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("[Content_Types].xml")
	if err != nil {
		t.Fatalf("WriteDocx() failed: %v", err)
	}
	_, _ = fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`)

	w, err = zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("WriteDocx() failed: %v", err)
	}
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString("<w:p><w:r><w:t xml:space=\"preserve\">")
		if err := xml.EscapeText(&body, []byte(p)); err != nil {
			t.Fatalf("WriteDocx() failed: %v", err)
		}
		body.WriteString("</w:t></w:r></w:p>")
	}
	_, _ = fmt.Fprintf(w,
		`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>%s</w:body></w:document>`,
		body.String(),
	)
	if err := zw.Close(); err != nil {
		t.Fatalf("WriteDocx() failed: %v", err)
	}
	return abs
}

// CountingFS records every filesystem call made through an upload store.
type CountingFS struct {
	*uploads.Store

	mu     sync.Mutex
	Stats  int
	Mkdirs int
}

func NewCountingFS(store *uploads.Store) *CountingFS {
	return &CountingFS{Store: store}
}

func (fs *CountingFS) Stat(name string) (os.FileInfo, error) {
	fs.mu.Lock()
	fs.Stats++
	fs.mu.Unlock()
	return fs.Store.Stat(name)
}

func (fs *CountingFS) MkdirAll(dir string) error {
	fs.mu.Lock()
	fs.Mkdirs++
	fs.mu.Unlock()
	return fs.Store.MkdirAll(dir)
}

func (fs *CountingFS) Calls() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.Stats + fs.Mkdirs
}

type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger keeps log entries in memory.
type Logger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) add(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.add("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.add("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.add("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.add("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.add("fatal", msg, args) }

// Count returns how many entries were logged at `level`.
func (l *Logger) Count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int
	for _, e := range l.Entries {
		if e.Level == level {
			n++
		}
	}
	return n
}
