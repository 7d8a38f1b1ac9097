package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestOffersFor_FiltersHiddenItems(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "json", "lp_offers.json"), `{
		"1000125": [
			{"itemId": 200, "lpCost": 100, "iskCost": 0, "qty": 1},
			{"itemId": 201, "lpCost": 50, "iskCost": 1000, "qty": 2}
		]
	}`)
	writeFile(t, filepath.Join(dir, "config", "lp_items_config.json"), `{
		"items": {"201": {"hide": true}, "999": {"hide": false}}
	}`)

	c := New(dir)
	offers, err := c.OffersFor(1000125)
	if err != nil {
		t.Fatalf("OffersFor: %v", err)
	}
	if len(offers) != 1 || offers[0].ItemID != 200 {
		t.Errorf("offers = %+v, want only item 200", offers)
	}
}

func TestOffersFor_UnknownCorpIsEmptyNotError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "json", "lp_offers.json"), `{}`)

	offers, err := New(dir).OffersFor(42)
	if err != nil {
		t.Fatalf("OffersFor: %v", err)
	}
	if len(offers) != 0 {
		t.Errorf("offers = %+v, want empty", offers)
	}
}

func TestOffersFor_MissingCatalogIsFatal(t *testing.T) {
	if _, err := New(t.TempDir()).OffersFor(42); err == nil {
		t.Error("expected error for missing offer catalog")
	}
}

func TestOffer_OptionalMetricsDistinguishAbsentFromZero(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "json", "lp_offers.json"), `{
		"1": [
			{"itemId": 10, "lpCost": 1, "qty": 1, "iskPerLp": 0, "volumePerDay14": 5},
			{"itemId": 11, "lpCost": 1, "qty": 1}
		]
	}`)

	offers, err := New(dir).OffersFor(1)
	if err != nil {
		t.Fatal(err)
	}
	if offers[0].IskPerLp == nil || *offers[0].IskPerLp != 0 {
		t.Errorf("iskPerLp = %v, want present zero", offers[0].IskPerLp)
	}
	if offers[1].IskPerLp != nil || offers[1].VolumePerDay14 != nil {
		t.Errorf("offer 11 metrics should be absent: %+v", offers[1])
	}
}

func TestCorps_Parse(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "json", "lp_corps.json"), `{
		"corps": [{"corpId": 1000125, "name": "Concord", "faction": "CONCORD Assembly"}]
	}`)

	corps, err := New(dir).Corps()
	if err != nil {
		t.Fatalf("Corps: %v", err)
	}
	if len(corps) != 1 || corps[0].CorpID != 1000125 || corps[0].Name != "Concord" {
		t.Errorf("corps = %+v", corps)
	}
}

func TestHideList_ReloadsOnMtimeChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lp_items_config.json")
	writeFile(t, path, `{"items": {"200": {"hide": true}}}`)

	h := NewHideList(path)
	if !h.Hidden()[200] {
		t.Fatal("expected item 200 hidden")
	}

	writeFile(t, path, `{"items": {"300": {"hide": true}}}`)
	// mtime resolution can be coarse; force it forward.
	future := time.Now().Add(2 * time.Second)
	os.Chtimes(path, future, future)

	hidden := h.Hidden()
	if hidden[200] || !hidden[300] {
		t.Errorf("hidden = %v, want only 300 after reload", hidden)
	}
}

func TestHideList_MissingFileHidesNothing(t *testing.T) {
	h := NewHideList(filepath.Join(t.TempDir(), "absent.json"))
	if len(h.Hidden()) != 0 {
		t.Error("expected empty hide set for missing file")
	}
}
