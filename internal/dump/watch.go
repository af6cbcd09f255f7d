package dump

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/josuejuca/analytics-imogo/internal/repository"
)

// WatchRestoreDir replays every *.sql dump dropped into dir until stopCh is
// closed. Handled files are renamed to <name>.imported (<name>.failed on
// error) so a restart does not replay them again. A periodic sweep backs up
// the watcher in case an event is missed.
func WatchRestoreDir(dir string, repo repository.AccessLogRepository, stopCh <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	sweep := func() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("restore sweep failed")
			return
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				importDump(filepath.Join(dir, entry.Name()), repo)
			}
		}
	}
	sweep()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				importDump(event.Name, repo)
			}
		case err := <-watcher.Errors:
			if err != nil {
				log.Error().Err(err).Msg("restore watcher error")
			}
		case <-ticker.C:
			sweep()
		}
	}
}

func importDump(path string, repo repository.AccessLogRepository) {
	if !strings.HasSuffix(path, ".sql") {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		return
	}
	applied, err := Import(repo, f)
	f.Close()
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("dump restore failed")
		_ = os.Rename(path, path+".failed")
		return
	}
	log.Info().Str("file", path).Int("statements", applied).Msg("dump restored")
	_ = os.Rename(path, path+".imported")
}
