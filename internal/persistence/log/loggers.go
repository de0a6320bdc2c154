package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// JSONLZstdWriter appends JSON lines to hourly zstd files named
// <prefix>-YYYY-MM-DD-HH.jsonl.zst under baseDir.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	now func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	dir := filepath.Dir(w.pathForHour(hour))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// Entry is one authority ruling on a submitted path.
type Entry struct {
	Seq      uint64 `json:"seq"`
	Time     string `json:"time"`
	Round    int    `json:"round"`
	Player   string `json:"player"`
	PathID   string `json:"path_id"`
	EntityID string `json:"entity_id"`

	Vector bool `json:"vector,omitempty"`
	Swim   bool `json:"swim,omitempty"`
	Forced bool `json:"forced,omitempty"`

	// Commands is the compact command encoding of the submitted steps.
	Commands     string `json:"commands"`
	Submitted    int    `json:"submitted"`
	StepsApplied int    `json:"steps_applied"`
	MP           int    `json:"mp"`

	Accepted bool   `json:"accepted"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`

	BeforeDigest string `json:"before_digest"`
	AfterDigest  string `json:"after_digest,omitempty"`
}

// JournalLogger writes accepted paths in commit order; replaying the journal
// against the starting scenario reproduces the game.
type JournalLogger struct{ w *JSONLZstdWriter }

func NewJournalLogger(gameDir string) *JournalLogger {
	return &JournalLogger{w: NewJSONLZstdWriter(filepath.Join(gameDir, "journal"), "journal")}
}

func (l *JournalLogger) WriteEntry(v Entry) error { return l.w.Write(v) }
func (l *JournalLogger) Close() error             { return l.w.Close() }

// AuditLogger writes every ruling, rejections included.
type AuditLogger struct{ w *JSONLZstdWriter }

func NewAuditLogger(gameDir string) *AuditLogger {
	return &AuditLogger{w: NewJSONLZstdWriter(filepath.Join(gameDir, "audit"), "audit")}
}

func (l *AuditLogger) WriteEntry(v Entry) error { return l.w.Write(v) }
func (l *AuditLogger) Close() error             { return l.w.Close() }
