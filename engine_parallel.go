package canon

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/jward/canon/internal/frontend"
	"github.com/jward/canon/internal/store"
)

// workItem is one file on its way through the indexing pipeline.
type workItem struct {
	path    string
	content []byte
	fileID  int64
	batch   *store.BatchedStore

	// Set by the worker.
	pkg string
}

// IndexFilesParallel indexes files in three steps. File records are
// prepared serially, files are parsed into per-file batches by a pool of
// workers, and the batches are committed one at a time.
func (e *Engine) IndexFilesParallel(ctx context.Context, paths []string) error {
	// Prepare.
	var items []workItem
	for _, path := range paths {
		item, skip, err := e.prepareFile(path)
		if err != nil {
			return fmt.Errorf("prepare %s: %w", path, err)
		}
		if skip {
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil
	}

	// Extract.
	numWorkers := e.cfg.Options.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = max(min(numWorkers, len(items)), 1)

	workCh := make(chan workItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	type result struct {
		item workItem
		err  error
	}
	resultCh := make(chan result, len(items))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each item has its own BatchedStore, so workers never share
			// write state.
			for item := range workCh {
				err := e.extractFile(ctx, &item)
				resultCh <- result{item: item, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Commit.
	var errs []error
	for res := range resultCh {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("extract %s: %w", res.item.path, res.err))
			// Drop the file record so the next run retries it.
			if err := e.store.DeleteFile(res.item.fileID); err != nil {
				errs = append(errs, fmt.Errorf("cleanup %s: %w", res.item.path, err))
			}
			continue
		}
		if err := e.store.CommitBatch(res.item.batch); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", res.item.path, err))
			continue
		}
		if err := e.store.SetFilePackage(res.item.fileID, res.item.pkg); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", res.item.path, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("parallel indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

// prepareFile replaces the stored record of path and returns its work item.
// skip reports an unchanged or unsupported file.
func (e *Engine) prepareFile(path string) (workItem, bool, error) {
	lang, content, hash, skip, err := e.checkFile(path)
	if err != nil || skip {
		return workItem{}, skip, err
	}
	if err := e.replaceFile(path); err != nil {
		return workItem{}, false, err
	}

	fileID, err := e.store.InsertFile(&store.File{
		Path:        path,
		Language:    lang,
		Hash:        hash,
		LineCount:   countLines(content),
		LastIndexed: time.Now(),
	})
	if err != nil {
		return workItem{}, false, fmt.Errorf("insert file: %w", err)
	}

	return workItem{
		path:    path,
		content: content,
		fileID:  fileID,
		batch:   store.NewBatchedStore(e.store),
	}, false, nil
}

// extractFile parses a single file into its BatchedStore. Each call creates
// its own tree-sitter parser, so workers never share one.
func (e *Engine) extractFile(ctx context.Context, item *workItem) error {
	unit, err := frontend.Parse(ctx, item.path, item.content, frontend.WithLogger(e.logger))
	if err != nil {
		return err
	}
	item.pkg = unit.Package
	return writeUnit(item.batch, item.fileID, unit)
}
