// Package sde loads the slices of the EVE static data export the LP ETL
// needs: NPC corporations (which of them run an LP store) and item type
// names.
package sde

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"evegem/internal/logger"
)

// Corp is one NPC corporation from the SDE.
type Corp struct {
	ID         int32
	Name       string
	FactionID  int32
	HasLPStore bool
}

// ItemType is the type metadata the ETL joins onto offers.
type ItemType struct {
	ID         int32
	Name       string
	Marketable bool
}

// Data holds the parsed SDE slices.
type Data struct {
	Corps    map[int32]*Corp
	Types    map[int32]*ItemType
	Factions map[int32]string
}

// Load parses npcCorporations, factions and types JSONL files found under
// dir (searched recursively, matching the official SDE export layout).
func Load(dir string) (*Data, error) {
	data := &Data{
		Corps:    make(map[int32]*Corp),
		Types:    make(map[int32]*ItemType),
		Factions: make(map[int32]string),
	}

	logger.Info("SDE", "Loading NPC corporations...")
	err := readJSONL(dir, "npcCorporations", func(raw json.RawMessage) error {
		var c struct {
			Key           int32             `json:"_key"`
			Name          map[string]string `json:"name"`
			FactionID     int32             `json:"factionID"`
			LPOfferTables []int32           `json:"lpOfferTables"`
		}
		if err := json.Unmarshal(raw, &c); err != nil {
			return err
		}
		name := c.Name["en"]
		if name == "" {
			name = fmt.Sprintf("Corp %d", c.Key)
		}
		data.Corps[c.Key] = &Corp{
			ID:         c.Key,
			Name:       name,
			FactionID:  c.FactionID,
			HasLPStore: len(c.LPOfferTables) > 0,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load npc corporations: %w", err)
	}

	logger.Info("SDE", "Loading factions...")
	err = readJSONL(dir, "factions", func(raw json.RawMessage) error {
		var f struct {
			Key  int32             `json:"_key"`
			Name map[string]string `json:"name"`
		}
		if err := json.Unmarshal(raw, &f); err != nil {
			return err
		}
		data.Factions[f.Key] = f.Name["en"]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load factions: %w", err)
	}

	logger.Info("SDE", "Loading item types...")
	err = readJSONL(dir, "types", func(raw json.RawMessage) error {
		var t struct {
			Key           int32             `json:"_key"`
			Name          map[string]string `json:"name"`
			MarketGroupID int32             `json:"marketGroupID"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return err
		}
		name := t.Name["en"]
		if name == "" {
			name = fmt.Sprintf("Type %d", t.Key)
		}
		data.Types[t.Key] = &ItemType{
			ID:         t.Key,
			Name:       name,
			Marketable: t.MarketGroupID != 0,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load types: %w", err)
	}

	logger.Section("SDE Statistics")
	logger.Stats("NPC corporations", len(data.Corps))
	logger.Stats("Item types", len(data.Types))
	return data, nil
}

// LPStoreCorpIDs returns the sorted ids of corporations that run an LP
// store.
func (d *Data) LPStoreCorpIDs() []int32 {
	ids := make([]int32, 0, len(d.Corps))
	for id, c := range d.Corps {
		if c.HasLPStore {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// TypeName returns the item's English name, falling back to "Type {id}".
func (d *Data) TypeName(typeID int32) string {
	if t, ok := d.Types[typeID]; ok {
		return t.Name
	}
	return fmt.Sprintf("Type %d", typeID)
}

// FactionName returns the faction's English name, or "" when unknown.
func (d *Data) FactionName(factionID int32) string {
	return d.Factions[factionID]
}

// readJSONL streams a .jsonl file found under dir (case-insensitive base
// name, searched recursively) through fn, one record per line. A missing
// file is skipped with a warning so partial SDE extracts still load.
func readJSONL(dir, baseName string, fn func(json.RawMessage) error) error {
	var filePath string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		name := strings.TrimSuffix(info.Name(), ".jsonl")
		if strings.EqualFold(name, baseName) && strings.HasSuffix(info.Name(), ".jsonl") {
			filePath = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil && err != filepath.SkipAll {
		return err
	}
	if filePath == "" {
		logger.Warn("SDE", fmt.Sprintf("File %s.jsonl not found, skipping", baseName))
		return nil
	}

	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := fn(json.RawMessage(line)); err != nil {
			return err
		}
	}
	return scanner.Err()
}
