package sde

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "npcCorporations.jsonl"), `
{"_key":1000125,"name":{"en":"Concord"},"factionID":500001,"lpOfferTables":[10]}
{"_key":1000001,"name":{"en":"Hedion University"},"factionID":500003}
`)
	writeFile(t, filepath.Join(dir, "factions.jsonl"),
		`{"_key":500001,"name":{"en":"Caldari State"}}`+"\n")
	// Types deliberately in a subdirectory; the loader walks.
	writeFile(t, filepath.Join(dir, "fsd", "types.jsonl"), `
{"_key":34,"name":{"en":"Tritanium"},"marketGroupID":18}
{"_key":35,"name":{"en":"Pyerite"}}
`)

	data, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	concord, ok := data.Corps[1000125]
	if !ok || concord.Name != "Concord" || !concord.HasLPStore {
		t.Errorf("Concord = %+v, want LP store corp named Concord", concord)
	}
	hedion := data.Corps[1000001]
	if hedion == nil || hedion.HasLPStore {
		t.Errorf("Hedion = %+v, want no LP store", hedion)
	}

	ids := data.LPStoreCorpIDs()
	if len(ids) != 1 || ids[0] != 1000125 {
		t.Errorf("LPStoreCorpIDs = %v, want [1000125]", ids)
	}

	if got := data.TypeName(34); got != "Tritanium" {
		t.Errorf("TypeName(34) = %q", got)
	}
	if got := data.TypeName(999); got != "Type 999" {
		t.Errorf("TypeName(999) = %q, want fallback", got)
	}
	if !data.Types[34].Marketable {
		t.Error("Tritanium should be marketable")
	}
	if data.Types[35].Marketable {
		t.Error("type without marketGroupID should not be marketable")
	}

	if got := data.FactionName(500001); got != "Caldari State" {
		t.Errorf("FactionName = %q", got)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	// Empty dir: every file missing is a warning, not an error.
	data, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load on empty dir: %v", err)
	}
	if len(data.Corps) != 0 || len(data.Types) != 0 {
		t.Errorf("expected empty data, got %d corps, %d types", len(data.Corps), len(data.Types))
	}
}

func TestLPStoreCorpIDsSorted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "npcCorporations.jsonl"), `
{"_key":1000182,"name":{"en":"B"},"lpOfferTables":[1]}
{"_key":1000003,"name":{"en":"A"},"lpOfferTables":[2]}
{"_key":1000035,"name":{"en":"C"},"lpOfferTables":[3]}
`)
	data, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	ids := data.LPStoreCorpIDs()
	want := []int32{1000003, 1000035, 1000182}
	if len(ids) != len(want) {
		t.Fatalf("got %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}
