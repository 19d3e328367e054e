package filewatch

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Change is a notice that a watched file has been touched.
type Change struct {
	// Path is the path of the changed file.
	Path string

	// Op is what happened to the file (e.g. "WRITE", "CREATE").
	Op string
}

// Changes watches directory dir and reports changes of files whose base name satisfies match.
//
// # Args
//
// - ctx: context.Context. Watching stops when ctx is done, and then the channel is closed.
//
// - dir: directory to be watched. It should exist.
//
// - match: predicate for base name of changed file. nil matches everything.
//
// # Returns
//
// - <-chan Change: notices. Chmod-only events are not reported.
//
// - error: error caused when it fails to start watching.
func Changes(ctx context.Context, dir string, match func(name string) bool) (<-chan Change, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	ch := make(chan Change)
	go func() {
		defer close(ch)
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.Errors:
				// watching continues; errors here are about single events.
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op == fsnotify.Chmod {
					continue
				}
				if match != nil && !match(filepath.Base(event.Name)) {
					continue
				}
				select {
				case ch <- Change{Path: event.Name, Op: event.Op.String()}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

// Named returns a predicate matching base name exactly.
func Named(name string) func(string) bool {
	return func(s string) bool { return s == name }
}
