package eventlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/danij/Forum-sub001/internal/idgen"
	"github.com/danij/Forum-sub001/internal/store"
)

// fileNamePattern matches the event-log naming convention of §6.1/§6.3.
var fileNamePattern = regexp.MustCompile(`^forum-(\d+)\.events$`)

// ImporterConfig mirrors the persistence.* options of §6.4 that govern the
// importer's half.
type ImporterConfig struct {
	InputFolder      string
	ValidateChecksum bool
}

// Result summarizes one import run (§4.4: "reports the count of
// successfully imported records").
type Result struct {
	FilesScanned    int
	FilesImported   int
	RecordsImported int
}

// Importer replays a directory tree of event-log files into repos (C7).
type Importer struct {
	cfg   ImporterConfig
	repos *Repositories
	log   Logger
}

func NewImporter(cfg ImporterConfig, repos *Repositories, log Logger) *Importer {
	return &Importer{cfg: cfg, repos: repos, log: log}
}

type foundFile struct {
	path string
	ts   int64
}

// Import performs the full §4.4 procedure: scan, sort, replay each file in
// batch mode, then apply the deferred visit-count and lastSeen
// post-processing.
func (im *Importer) Import() (Result, error) {
	var result Result

	files, err := im.scan()
	if err != nil {
		return result, fmt.Errorf("eventlog: scan %s: %w", im.cfg.InputFolder, err)
	}
	result.FilesScanned = len(files)

	im.repos.Collection.EnterBatchMode()
	defer im.repos.Collection.ExitBatchMode()

	pendingVisits := make(map[string]uint32)
	maxLastSeen := make(map[string]idgen.Timestamp)

	// Files must replay in strict timestamp order (§4.4), so the group's
	// concurrency is capped at 1: a bounded gate rather than a sequential
	// for-loop, kept consistent with the rest of the pipeline's use of
	// errgroup for bounded work even where, as here, the work itself has no
	// real parallelism to exploit.
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(1)
	for _, f := range files {
		f := f
		g.Go(func() error {
			n, err := im.importFile(f.path, pendingVisits, maxLastSeen)
			result.RecordsImported += n
			if err != nil {
				return fmt.Errorf("eventlog: import %s after %d records: %w", f.path, n, err)
			}
			result.FilesImported++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	im.applyPostProcessing(pendingVisits, maxLastSeen)
	return result, nil
}

// openWithRetry opens path, retrying a transient failure a few times —
// the input folder may contain a file still being rotated into place by a
// concurrently-running writer process.
func openWithRetry(path string) (*os.File, error) {
	var f *os.File
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	err := backoff.Retry(func() error {
		var err error
		f, err = os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
	return f, err
}

func (im *Importer) scan() ([]foundFile, error) {
	var found []foundFile
	err := filepath.WalkDir(im.cfg.InputFolder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		m := fileNamePattern.FindStringSubmatch(d.Name())
		if m == nil {
			return nil
		}
		ts, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil
		}
		found = append(found, foundFile{path: path, ts: ts})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ts < found[j].ts })
	return found, nil
}

// importFile replays every record in path in file order (§4.4 steps 2-6),
// accumulating INCREMENT_DISCUSSION_THREAD_NUMBER_OF_VISITS and lastSeen
// updates rather than applying them immediately.
func (im *Importer) importFile(path string, pendingVisits map[string]uint32, maxLastSeen map[string]idgen.Timestamp) (int, error) {
	f, err := openWithRetry(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	for {
		blob, err := decodeFrame(f, im.cfg.ValidateChecksum)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}
			return count, err
		}
		if err := im.applyOne(blob, pendingVisits, maxLastSeen); err != nil {
			return count, err
		}
		count++
	}
}

func (im *Importer) applyOne(blob []byte, pendingVisits map[string]uint32, maxLastSeen map[string]idgen.Timestamp) error {
	r := newReader(blob)
	eventType := store.EventType(r.uint16())
	eventVersion := r.uint16()
	contextVersion := r.uint16()
	if contextVersion != contextVersion1 {
		return fmt.Errorf("eventlog: unsupported context version %d", contextVersion)
	}
	ctx := decodeContextV1(r)
	if r.err != nil {
		return r.err
	}

	if !ctx.PerformedBy.IsZero() {
		if ctx.CurrentTime > maxLastSeen[ctx.PerformedBy.String()] {
			maxLastSeen[ctx.PerformedBy.String()] = ctx.CurrentTime
		}
	}

	entry, ok := codecTable[eventType]
	if !ok {
		// §4.4 step 6 / §9 open question: hard-fail on unknown event types
		// rather than silently skipping them.
		return fmt.Errorf("eventlog: unknown event type %d", eventType)
	}
	apply, ok := entry.applyFor[eventVersion]
	if !ok {
		return fmt.Errorf("eventlog: unsupported version %d for event type %d", eventVersion, eventType)
	}

	if eventType == store.EventIncrementThreadVisits {
		threadID := r.id()
		count := r.uint32()
		if r.err != nil {
			return r.err
		}
		pendingVisits[threadID.String()] += count
		return nil
	}

	if err := apply(im.repos, ctx, r); err != nil {
		return err
	}
	return r.err
}

// applyPostProcessing runs §4.4's deferred step: batched visit increments
// and per-user max-lastSeen, applied once after every file has replayed.
func (im *Importer) applyPostProcessing(pendingVisits map[string]uint32, maxLastSeen map[string]idgen.Timestamp) {
	for threadIDStr, count := range pendingVisits {
		id, err := idgen.ParseID(threadIDStr)
		if err != nil {
			continue
		}
		im.repos.Threads.ImportIncrementVisits(id, count)
	}
	for userIDStr, ts := range maxLastSeen {
		id, err := idgen.ParseID(userIDStr)
		if err != nil {
			continue
		}
		im.repos.Users.ImportSetLastSeen(id, ts)
	}
}
