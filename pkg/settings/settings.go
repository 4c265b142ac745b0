// Package settings keeps the list of tracked assets. The list lives in a
// YAML file next to the database so that it can be edited by hand while
// the daemon is down.
package settings

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

// Asset is one tracked instrument reference.
type Asset struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name,omitempty"`
}

type fileContent struct {
	Assets []Asset `yaml:"assets"`
	// Deleted assets are parked here instead of being forgotten, so a
	// fat-fingered delete can be undone by editing the file.
	DisabledAssets []Asset `yaml:"disabled_assets,omitempty"`
}

// Store owns the tracked-asset list. Mutations save the file before they
// return; the caller serializes them (the settings actor handles them on
// its sequential path).
type Store struct {
	path   string
	logger trading.Logger

	mutex    sync.RWMutex
	assets   []Asset
	disabled []Asset
}

// NewStore loads the asset list from the given file. A missing file yields
// an empty store; the file appears on the first mutation.
func NewStore(path string, logger trading.Logger) (*Store, error) {
	store := &Store{
		path:   path,
		logger: logger.WithField("component", "settings"),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("could not read assets file: [%v]", err)
	}

	var content fileContent
	if err := yaml.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("could not decode assets file: [%v]", err)
	}

	store.assets = content.Assets
	store.disabled = content.DisabledAssets

	return store, nil
}

// Assets returns a copy of the tracked list.
func (s *Store) Assets() []Asset {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return append([]Asset(nil), s.assets...)
}

// Contains reports whether the id is currently tracked.
func (s *Store) Contains(id string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, asset := range s.assets {
		if asset.ID == id {
			return true
		}
	}
	return false
}

// Add starts tracking the asset and saves. Adding a tracked id again only
// refreshes its name.
func (s *Store) Add(id, name string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, asset := range s.assets {
		if asset.ID == id {
			s.assets[i].Name = name
			return s.save()
		}
	}

	s.assets = append(s.assets, Asset{ID: id, Name: name})

	s.logger.WithField("id", id).Infof("tracking new asset")

	return s.save()
}

// Delete stops tracking the asset, parks it on the disabled list, and
// saves. Deleting an untracked id is a no-op.
func (s *Store) Delete(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, asset := range s.assets {
		if asset.ID != id {
			continue
		}

		s.assets = append(s.assets[:i], s.assets[i+1:]...)
		s.disabled = append(s.disabled, asset)

		s.logger.WithField("id", id).Infof("asset disabled")

		return s.save()
	}

	return nil
}

// save writes the file; callers hold the write lock.
func (s *Store) save() error {
	raw, err := yaml.Marshal(&fileContent{
		Assets:         s.assets,
		DisabledAssets: s.disabled,
	})
	if err != nil {
		return fmt.Errorf("could not encode assets file: [%v]", err)
	}

	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("could not write assets file: [%v]", err)
	}

	return nil
}
