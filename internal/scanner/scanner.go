// scanner is used to collect KCL sources below a directory.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"
)

const Extension = ".kcl"

var log = commonlog.GetLogger("kclsp.scanner")

// Scan walks the subtree under root. Directories whose name begins with "."
// are skipped entirely, as are files without the KCL extension. Files are read
// on a worker goroutine and handed to callback in walk order. Scan returns
// once every callback has completed, with the first callback error, if any.
// A root that is itself a file is passed to callback regardless of its name.
func Scan(
	ctx context.Context,
	root string,
	callback func(path string, document []byte) error,
) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		data, err := os.ReadFile(root)
		if err != nil {
			return err
		}
		return callback(root, data)
	}

	fileCh := make(chan string, 100)
	g, ctx := errgroup.WithContext(ctx)

	// worker goroutine
	g.Go(func() error {
		for path := range fileCh {
			data, err := os.ReadFile(path)
			if err != nil {
				log.Warningf("read error: %s: %s", path, err)
				continue
			}
			if err := callback(path, data); err != nil {
				return err
			}
		}
		return nil
	})

	g.Go(func() error {
		defer close(fileCh)
		log.Debugf("starting WalkDir at %q", root)
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.Warningf("walk error: %s", err)
				return nil
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return fs.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != Extension {
				return nil
			}

			select {
			case fileCh <- path:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	return g.Wait()
}
