// Package cache persists discovered controller metadata so later boots can
// replay registration without scanning source again.
package cache

import (
	"fmt"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/toyz/routewire/internal/errors"
	"github.com/toyz/routewire/internal/metadata"
	"github.com/toyz/routewire/internal/utils/fileops"
)

const (
	// FileName is the snapshot file created inside the cache directory
	FileName = "routewire-controllers.yaml"

	// Version is the snapshot format version written by Update
	Version = 1
)

// State of the snapshot for one boot
type State int

const (
	Stale State = iota
	Fresh
)

func (s State) String() string {
	if s == Fresh {
		return "fresh"
	}
	return "stale"
}

// Snapshot is the document stored on disk
type Snapshot struct {
	Version   int                  `yaml:"version"`
	Generated string               `yaml:"generated"`
	Classes   []metadata.ClassInfo `yaml:"classes"`
}

// Controller owns the snapshot file of one cache directory
type Controller struct {
	dir string
	now func() time.Time
}

// New creates a controller for dir. The directory is created on first Update.
func New(dir string) *Controller {
	return &Controller{dir: dir, now: time.Now}
}

// File returns the snapshot path
func (c *Controller) File() string {
	return filepath.Join(c.dir, FileName)
}

// State reports Fresh when the snapshot exists and debug is off
func (c *Controller) State(debug bool) State {
	if debug || !fileops.Exists(c.File()) {
		return Stale
	}
	return Fresh
}

// IsFresh is shorthand for State(debug) == Fresh
func (c *Controller) IsFresh(debug bool) bool {
	return c.State(debug) == Fresh
}

// Update writes classes as a new snapshot, replacing any previous one atomically
func (c *Controller) Update(classes []metadata.ClassInfo) error {
	if classes == nil {
		classes = []metadata.ClassInfo{}
	}
	snap := Snapshot{
		Version:   Version,
		Generated: c.now().UTC().Format(time.RFC3339),
		Classes:   classes,
	}

	content, err := yaml.Marshal(&snap)
	if err != nil {
		return errors.WrapCacheError("encode", c.File(), err)
	}
	if err := fileops.WriteFileAtomic(c.File(), content, 0o644); err != nil {
		return errors.WrapCacheError("write", c.File(), err)
	}
	return nil
}

// Load reads the snapshot. A missing, corrupt or foreign snapshot is a
// configuration error naming the file.
func (c *Controller) Load() (*Snapshot, error) {
	path := c.File()
	if !fileops.Exists(path) {
		return nil, errors.New(errors.ConfigurationErrorCode,
			fmt.Sprintf("controller cache '%s' does not exist", path)).
			WithContext("path", path).
			WithSuggestion("run a boot with debug enabled or 'routewire -cache <dir>' to create it")
	}

	content, err := fileops.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := yaml.Unmarshal(content, &snap); err != nil {
		return nil, errors.Wrap(errors.ConfigurationErrorCode,
			fmt.Sprintf("controller cache '%s' is corrupt", path), err).
			WithContext("path", path).
			WithSuggestion("delete the file to regenerate it")
	}
	if snap.Version != Version {
		return nil, errors.New(errors.ConfigurationErrorCode,
			fmt.Sprintf("controller cache '%s' has version %d, expected %d", path, snap.Version, Version)).
			WithContext("path", path).
			WithSuggestion("delete the file to regenerate it")
	}
	return &snap, nil
}

// Clean removes the snapshot. Removing a missing snapshot succeeds.
func (c *Controller) Clean() error {
	return fileops.RemoveFile(c.File())
}
