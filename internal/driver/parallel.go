package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"typeck/internal/typeck"
)

// listProgramFiles returns every program file under dir, sorted.
func listProgramFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsProgramFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ProgramFiles lists the inputs CheckPath would check for path.
func ProgramFiles(path string) ([]string, error) {
	if IsProgramFile(path) {
		return []string{path}, nil
	}
	return listProgramFiles(path)
}

// checkFile loads and checks one input and reports it to opts.Finished.
func checkFile(ctx context.Context, path string, opts Options) (*Result, error) {
	res, err := loadAndCheck(ctx, path, opts)
	if opts.Finished != nil {
		opts.Finished(path, res, err)
	}
	return res, err
}

func loadAndCheck(ctx context.Context, path string, opts Options) (*Result, error) {
	in, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Check(ctx, in, opts)
}

// CheckDir checks every program file under dir, several files at a time.
// Results are in file order. The first load or internal error stops the
// remaining files.
func CheckDir(ctx context.Context, dir string, opts Options) ([]*Result, error) {
	files, err := listProgramFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	var mu sync.Mutex
	if report := opts.Progress; report != nil {
		opts.Progress = func(path string, ev typeck.ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			report(path, ev)
		}
	}
	if finished := opts.Finished; finished != nil {
		opts.Finished = func(path string, res *Result, err error) {
			mu.Lock()
			defer mu.Unlock()
			finished(path, res, err)
		}
	}

	// indices are unique per goroutine, no mutex needed
	results := make([]*Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := checkFile(gctx, path, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CheckPath checks a single file, or every program file of a directory.
func CheckPath(ctx context.Context, path string, opts Options) ([]*Result, error) {
	if IsProgramFile(path) {
		res, err := checkFile(ctx, path, opts)
		if err != nil {
			return nil, err
		}
		return []*Result{res}, nil
	}
	return CheckDir(ctx, path, opts)
}
