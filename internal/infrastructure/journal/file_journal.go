package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/errs"
	"obiwork/internal/ports"
)

var streamName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// maxLine bounds a single journal entry when reading back.
const maxLine = 1 << 20

// FileJournal writes one <stream>.jsonl file per stream under dir. Files are
// opened in append mode for every write; no handle is held between calls.
type FileJournal struct {
	dir string
	mu  sync.Mutex
}

var _ ports.Journal = (*FileJournal)(nil)

func NewFileJournal(dir string) *FileJournal {
	return &FileJournal{dir: dir}
}

func (j *FileJournal) Dir() string {
	return j.dir
}

func (j *FileJournal) Path(stream string) string {
	return filepath.Join(j.dir, stream+".jsonl")
}

func (j *FileJournal) Append(ctx context.Context, stream string, entry any) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if !streamName.MatchString(stream) {
		return fmt.Errorf("invalid journal stream %q", stream)
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return errs.Wrapf(err, "encode %s entry", stream)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return errs.Wrapf(err, "create journal directory %q", j.dir)
	}
	f, err := os.OpenFile(j.Path(stream), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errs.Wrapf(err, "open %s journal", stream)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return errs.Wrapf(err, "append %s journal", stream)
	}
	if err := f.Close(); err != nil {
		return errs.Wrapf(err, "close %s journal", stream)
	}
	return nil
}

// ReadAll returns every entry in stream in file order. A missing file is an
// empty stream; blank and malformed lines are skipped.
func (j *FileJournal) ReadAll(ctx context.Context, stream string) ([]json.RawMessage, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if !streamName.MatchString(stream) {
		return nil, fmt.Errorf("invalid journal stream %q", stream)
	}

	f, err := os.Open(j.Path(stream))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errs.Wrapf(err, "open %s journal", stream)
	}
	defer f.Close()

	var (
		entries []json.RawMessage
		skipped int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLine)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(err, "check context")
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		if !json.Valid(raw) {
			skipped++
			continue
		}
		entries = append(entries, append(json.RawMessage(nil), raw...))
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrapf(err, "scan %s journal", stream)
	}

	if skipped > 0 {
		logging.Warn(
			logging.WithComponent(ctx, "infrastructure.journal"),
			"skipped malformed journal lines",
			slog.String("stream", stream),
			slog.Int("skipped", skipped),
		)
	}
	return entries, nil
}

// Probe checks that the journal directory exists and accepts new files.
func (j *FileJournal) Probe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return errs.Wrapf(err, "create journal directory %q", j.dir)
	}
	f, err := os.CreateTemp(j.dir, ".probe-*")
	if err != nil {
		return errs.Wrap(err, "journal directory not writable")
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
