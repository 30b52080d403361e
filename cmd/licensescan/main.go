// licensescan watches the license upload directory, OCRs new documents and
// writes the extracted license number back onto the upload record so the
// verification flow has something to check against. It runs beside the API
// server with its own database connection.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"medicare-api/pkg/docscan"
	"medicare-api/repository"
)

func main() {
	var (
		dir  = flag.String("dir", "", "license directory to watch (default $UPLOAD_BASE/licenses)")
		once = flag.Bool("once", false, "scan pending uploads and exit instead of watching")
	)
	flag.Parse()

	log, _ := zap.NewProduction()
	defer log.Sync()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database", zap.Error(err))
	}
	uploads := repository.NewUploadRepository(db)

	watchDir := *dir
	if watchDir == "" {
		base := os.Getenv("UPLOAD_BASE")
		if base == "" {
			base = "uploads"
		}
		watchDir = filepath.Join(base, "licenses")
	}

	w := &worker{uploads: uploads, dir: watchDir, log: log}
	ctx := context.Background()

	w.scanPending(ctx)
	if *once {
		return
	}
	if err := w.watch(ctx); err != nil {
		log.Fatal("watch failed", zap.Error(err))
	}
}

type worker struct {
	uploads repository.UploadRepository
	dir     string
	log     *zap.Logger
}

// scanPending processes uploads that predate the worker or arrived while it
// was down.
func (w *worker) scanPending(ctx context.Context) {
	pending, err := w.uploads.FindPendingScan(ctx, 200)
	if err != nil {
		w.log.Error("pending-scan query failed", zap.Error(err))
		return
	}
	for _, up := range pending {
		w.scanFile(ctx, up.StoredName)
	}
}

// watch runs the debounced fsnotify loop. Uploads are written in one go by
// the API server, but the debounce keeps partially-flushed files out.
func (w *worker) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	w.log.Info("watching", zap.String("dir", w.dir))

	pending := map[string]time.Time{}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				pending[filepath.Base(ev.Name)] = time.Now()
			}
		case err := <-watcher.Errors:
			w.log.Error("watcher error", zap.Error(err))
		case <-ticker.C:
			now := time.Now()
			for name, seen := range pending {
				if now.Sub(seen) > 300*time.Millisecond { // stable
					delete(pending, name)
					w.scanFile(ctx, name)
				}
			}
		}
	}
}

func (w *worker) scanFile(ctx context.Context, storedName string) {
	up, err := w.uploads.FindByStoredName(ctx, storedName)
	if err != nil {
		// Files without a record are none of our business.
		return
	}
	if up.LicenseNumber != "" || up.ScanFailed {
		return
	}
	if !docscan.SupportedImage(storedName) {
		if err := w.uploads.MarkScanFailed(ctx, up.ID, "unsupported format, needs manual review"); err != nil {
			w.log.Error("mark failed", zap.Uint("upload_id", up.ID), zap.Error(err))
		}
		return
	}

	text, err := docscan.ExtractText(filepath.Join(w.dir, storedName))
	if err != nil {
		w.log.Warn("ocr failed", zap.String("file", storedName), zap.Error(err))
		if err := w.uploads.MarkScanFailed(ctx, up.ID, err.Error()); err != nil {
			w.log.Error("mark failed", zap.Uint("upload_id", up.ID), zap.Error(err))
		}
		return
	}
	number, ok := docscan.FindLicenseNumber(text)
	if !ok {
		if err := w.uploads.MarkScanFailed(ctx, up.ID, "no license number detected"); err != nil {
			w.log.Error("mark failed", zap.Uint("upload_id", up.ID), zap.Error(err))
		}
		return
	}
	if err := w.uploads.SetScanResult(ctx, up.ID, number); err != nil {
		w.log.Error("save scan result failed", zap.Uint("upload_id", up.ID), zap.Error(err))
		return
	}
	w.log.Info("license scanned", zap.String("file", storedName), zap.String("license_number", number))
}
