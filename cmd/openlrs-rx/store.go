// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package main

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/tve/openlrs/model"
)

// fileStore persists a single BindData as a CBOR-encoded file, the
// collab.Store this command wires in for boardcfg.PersistConfig.Path.
// CBOR over gob/json follows seedhammer-seedhammer's choice of
// fxamacker/cbor for its own compact persisted records.
type fileStore struct {
	path string
}

func newFileStore(path string) *fileStore {
	return &fileStore{path: path}
}

func (s *fileStore) Load() (model.BindData, error) {
	var bd model.BindData
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return bd, fmt.Errorf("fileStore: %w", err)
	}
	if err := cbor.Unmarshal(raw, &bd); err != nil {
		return bd, fmt.Errorf("fileStore: %w", err)
	}
	return bd, nil
}

func (s *fileStore) Save(bd model.BindData) error {
	raw, err := cbor.Marshal(bd)
	if err != nil {
		return fmt.Errorf("fileStore: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return fmt.Errorf("fileStore: %w", err)
	}
	return nil
}
