package cleanup

import (
	"fmt"
	"io/ioutil"
	"path"
	"strings"
	"sync"

	"github.com/dbcdk/laconicman/logging"
	"github.com/dbcdk/laconicman/util"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

var log = logging.GetInstance()

// Built-in protection patterns. These are compiled in and always
// applied; a rules file can add patterns but never remove these.
var defaultProtectedPatterns = []string{
	"webapp-deployer-api.pwa.*",
	"container-registry.pwa.*",
	"webapp-deployer-ui.pwa.*",
}

// Rules answers whether a resource name is protected from deletion.
// Matching is glob-style ('*' matches any run of characters),
// case-sensitive, against the full name.
type Rules struct {
	mu    sync.RWMutex
	extra []string
}

func NewRules() *Rules {
	return &Rules{}
}

// Protected reports whether any pattern matches the name. A name that
// matches is never eligible for deletion, regardless of confirmation.
func (r *Rules) Protected(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, pattern := range defaultProtectedPatterns {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	for _, pattern := range r.extra {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// Patterns returns a snapshot of all active patterns, built-ins first.
func (r *Rules) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(defaultProtectedPatterns)+len(r.extra))
	out = append(out, defaultProtectedPatterns...)
	out = append(out, r.extra...)
	return out
}

// LoadExtraFile replaces the extra pattern set with the contents of
// the given file: one glob per line, blank lines and '#' comments
// ignored. Malformed patterns fail the whole load.
func (r *Rules) LoadExtraFile(file string) error {
	raw, err := ioutil.ReadFile(file)
	if err != nil {
		return err
	}

	patterns := make([]string, 0)
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := path.Match(line, ""); err != nil {
			return fmt.Errorf("bad protection pattern %q: %v", line, err)
		}
		patterns = append(patterns, line)
	}

	r.mu.Lock()
	r.extra = patterns
	r.mu.Unlock()

	log.Info("Loaded extra protection rules",
		zap.String("file", file),
		zap.Int("patterns", len(patterns)),
	)
	return nil
}

// WatchExtraFile reloads the extra rules whenever the file is written.
// Edits take effect on the next cleanup; a plan already computed is
// not revisited.
func (r *Rules) WatchExtraFile(config *util.Config, file string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write {
					log.Info("Received inotify write event for file",
						zap.String("file", event.Name),
					)
					if err := r.LoadExtraFile(file); err != nil {
						log.Error("Reloading protection rules failed",
							zap.String("file", file),
							zap.String("error", err.Error()),
						)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error("Inotify watch error",
					zap.String("error", err.Error()),
				)
			case stopping := <-config.State.ShutdownChan:
				if stopping {
					log.Info("Stopping inotify watch loop")
					watcher.Close()
					return
				}
			}
		}
	}()

	return watcher.Add(file)
}
