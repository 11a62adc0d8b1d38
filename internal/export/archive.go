// Package export writes accumulated tables to disk as zip archives of CSV files.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/sensorlens/internal/dataframe"
	"github.com/sanspareilsmyn/sensorlens/internal/metrics"
)

// WriteArchive writes one "<table name>.csv" entry per table. Repeated names get
// a "-<n>" suffix. It returns the entry names in table order.
func WriteArchive(w io.Writer, tables []*dataframe.Table) ([]string, error) {
	zw := zip.NewWriter(w)
	used := make(map[string]int, len(tables))
	names := make([]string, 0, len(tables))

	for _, tbl := range tables {
		name := entryName(tbl.Name(), used)
		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: time.Now(),
		})
		if err != nil {
			return names, fmt.Errorf("create entry %q: %w", name, err)
		}
		if err := WriteCSV(f, tbl); err != nil {
			return names, fmt.Errorf("entry %q: %w", name, err)
		}
		names = append(names, name)
	}
	return names, zw.Close()
}

func entryName(table string, used map[string]int) string {
	base := strings.NewReplacer("/", "_", "\\", "_").Replace(table)
	n := used[base]
	used[base] = n + 1
	if n == 0 {
		return base + ".csv"
	}
	return fmt.Sprintf("%s-%d.csv", base, n)
}

type Config struct {
	Directory string
	Prefix    string
}

// Exporter writes archives into a directory. File names carry a session id
// fixed for the life of the Exporter, so archives of one run sort together.
type Exporter struct {
	cfg     Config
	session uuid.UUID
	logger  *zap.Logger
	now     func() time.Time

	mu  sync.Mutex
	seq int
}

func NewExporter(cfg Config, logger *zap.Logger) (*Exporter, error) {
	if cfg.Directory == "" {
		return nil, ErrNoDirectory
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "sensorlens"
	}
	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchiveFailed, err)
	}
	return &Exporter{
		cfg:     cfg,
		session: uuid.New(),
		logger:  logger.Named("exporter"),
		now:     time.Now,
	}, nil
}

func (e *Exporter) Session() uuid.UUID { return e.session }

// Export writes tables into a new archive and returns its path. Tables without
// rows are skipped; when none has rows no file is written and path is empty.
func (e *Exporter) Export(tables []*dataframe.Table) (path string, err error) {
	nonEmpty := make([]*dataframe.Table, 0, len(tables))
	rows := 0
	for _, tbl := range tables {
		if n := tbl.RowCount(); n > 0 {
			nonEmpty = append(nonEmpty, tbl)
			rows += n
		}
	}
	if len(nonEmpty) == 0 {
		return "", nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	path = filepath.Join(e.cfg.Directory, fmt.Sprintf("%s-%s-%s-%04d.zip",
		e.cfg.Prefix, e.session, e.now().UTC().Format("20060102T150405"), e.seq))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrArchiveFailed, err)
	}
	entries, err := WriteArchive(f, nonEmpty)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: %w", ErrArchiveFailed, err)
	}

	metrics.ArchivesWritten.Inc()
	for _, tbl := range nonEmpty {
		metrics.RowsExported.WithLabelValues(tbl.Name()).Add(float64(tbl.RowCount()))
	}
	e.logger.Info("Archive written",
		zap.String("path", path),
		zap.Strings("entries", entries),
		zap.Int("rows", rows),
	)
	return path, nil
}
