/*
   CartDrive - game cartridge bridge daemon
   Copyright (c) 2026, the CartDrive authors

   This file is part of CartDrive.

   CartDrive is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   CartDrive is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with CartDrive. If not, see <http://www.gnu.org/licenses/>.
*/

/*
	Package library manages the local collection of cartridge images: a
	directory tree of image files, kept searchable through a full-text
	index that follows file system changes.
*/
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/blueyonder1234/cartdrive/pkg/util"
)

//
const replaceChars = "`~!@#$%^&*_-+=()[]{}|;:',.<>?"

var nameCleaner *strings.Replacer

//
func init() {
	rep := make([]string, 2*len(replaceChars))
	for ix, c := range replaceChars {
		rep[ix*2] = string(c)
		rep[ix*2+1] = " "
	}
	nameCleaner = strings.NewReplacer(rep...)
}

//
type Entry struct {
	Name string
}

/*
	NewIndex creates or opens the search index stored at base for the
	image library rooted at dir. The index will not pick up changes
	until Start has been called.
*/
func NewIndex(base, dir string) (*Index, error) {

	var err error
	i := &Index{}

	if i.base, err = filepath.Abs(base); err != nil {
		return nil, err
	}
	if i.dir, err = filepath.Abs(dir); err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{"base": i.base, "library": i.dir})

	if _, err := os.Stat(i.base); err != nil {
		if os.IsNotExist(err) {
			logger.Info("creating new library index")
			i.index, err = bleve.New(i.base, bleve.NewIndexMapping())
		}

		if err != nil {
			logger.Errorf("cannot create library index: %v", err)
			return nil, err
		}

		i.empty = true

	} else {
		logger.Info("opening library index")
		if i.index, err = bleve.Open(i.base); err != nil {
			logger.Errorf("cannot open library index: %v", err)
			return nil, err
		}
	}

	i.batch = i.index.NewBatch()
	return i, nil
}

//
type Index struct {
	base    string
	dir     string
	stopped bool
	//
	index   bleve.Index
	empty   bool
	watcher *util.DirWatcher
	//
	batch      *bleve.Batch
	batchCount int
}

// Dir returns the library root directory.
func (i *Index) Dir() string {
	return i.dir
}

/*
	Start brings the index in sync with the library directory, pruning
	entries whose files are gone and adding files changed since the
	last run, then starts following file system changes.
*/
func (i *Index) Start() error {

	start := time.Now()
	log.Info("pruning library index")
	if err := i.prune(); err != nil {
		return fmt.Errorf("error pruning library index: %v", err)
	}
	log.WithField(
		"duration", time.Since(start)).Info("library index pruning finished")

	start = time.Now()
	log.Info("updating library index")
	if err := i.update(); err != nil {
		return fmt.Errorf("error updating library index: %v", err)
	}
	log.WithField(
		"duration", time.Since(start)).Info("library index update finished")

	if err := i.startWatching(); err != nil {
		return fmt.Errorf("error starting library watcher: %v", err)
	}

	if err := i.batched(true); err != nil {
		return err
	}

	log.Info("library index ready")
	return nil
}

//
func (i *Index) Stop() {

	if i.watcher != nil {
		i.watcher.Stop()
	}

	if i.index != nil {
		i.index.Close()
	}

	i.stopped = true
}

//
func (i *Index) prune() error {

	if i.empty {
		return nil
	}

	ix, err := i.index.Advanced()
	if err != nil {
		return err
	}

	rd, err := ix.Reader()
	if err != nil {
		return err
	}
	defer rd.Close()

	docs, err := rd.DocIDReaderAll()
	if err != nil {
		return err
	}
	defer docs.Close()

	for {
		d, err := docs.Next()
		if err != nil {
			return err
		}
		if d == nil {
			return nil
		}
		id, err := rd.ExternalID(d)
		if err != nil {
			return err
		}
		if _, err := os.Stat(filepath.Join(i.dir, id)); os.IsNotExist(err) {
			i.removeEntry(id)
		}
	}
}

//
func (i *Index) update() error {

	var lastMod time.Time
	if !i.empty {
		if store, err := os.Stat(filepath.Join(i.base, "store")); err == nil {
			lastMod = store.ModTime()
			log.Debugf("last library index mod time: %v", lastMod)
		}
	}

	i.empty = false

	return filepath.Walk(i.dir,

		func(path string, info os.FileInfo, err error) error {

			if err != nil {
				return err
			}

			if i.stopped {
				return fmt.Errorf("forced exit")
			}

			// hidden files and directories are not library content;
			// this also keeps an index stored under the library root
			// out of itself
			if strings.HasPrefix(info.Name(), ".") && path != i.dir {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.IsDir() && info.ModTime().After(lastMod) {
				i.addEntry(i.makeRelative(path))
			}

			return nil
		})
}

//
func (i *Index) startWatching() error {
	log.Info("starting library watcher")
	var err error
	if i.watcher, err = util.NewDirWatcher(i.dir); err != nil {
		return err
	}
	return i.watcher.Start(5*time.Second, i.watchEvent, i.flushEvent)
}

//
func (i *Index) watchEvent(evt fsnotify.Event) error {

	if strings.HasPrefix(filepath.Base(evt.Name), ".") {
		return nil
	}

	rel := i.makeRelative(evt.Name)
	log.WithFields(
		log.Fields{"path": rel, "op": evt.Op}).Debug("library index update")

	switch evt.Op {

	case fsnotify.Create:
		if info, err := os.Stat(evt.Name); err != nil {
			log.Errorf("cannot add new library entry: %v", err)
		} else if !info.IsDir() {
			i.addEntry(rel)
		}

	case fsnotify.Rename:
		fallthrough
	case fsnotify.Remove:
		i.removeEntry(rel)

	default:
		log.Debug("no library index update required")
	}

	return nil
}

//
func (i *Index) flushEvent() error {
	return i.batched(true)
}

//
func (i *Index) addEntry(path string) error {

	logger := log.WithField("file", path)
	logger.Debug("adding new entry to library index")

	if err := i.batch.Index(
		path, Entry{Name: nameCleaner.Replace(path)}); err != nil {
		logger.Errorf("failed to batch library entry add: %v", err)
		return err
	}

	return i.batched(false)
}

//
func (i *Index) removeEntry(path string) error {
	log.WithField("file", path).Debug("removing deleted entry from library index")
	i.batch.Delete(path)
	return i.batched(false)
}

// Not thread safe. After setup, add and remove are only ever called
// from the dir watcher, no concurrency.
func (i *Index) batched(flush bool) error {

	if i.batchCount++; flush || i.batchCount > 100 {
		log.Debug("flushing pending library index actions")
		if err := i.index.Batch(i.batch); err != nil {
			log.Errorf("failed to execute library index batch: %v", err)
			return err
		}
		i.batch = i.index.NewBatch()
		i.batchCount = 0
	}

	return nil
}

//
func (i *Index) makeRelative(path string) string {
	if len(path) > len(i.dir) && strings.HasPrefix(path, i.dir) {
		return path[len(i.dir)+1:]
	}
	return path
}
