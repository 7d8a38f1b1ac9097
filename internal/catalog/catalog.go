// Package catalog loads the LP store catalog produced by the ETL worker:
// per-corp offer lists, the corporation directory, and the operator-curated
// item hide-list.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// RequiredItem is one bill-of-materials line of an offer.
type RequiredItem struct {
	TypeID int32   `json:"typeId"`
	Name   string  `json:"name,omitempty"`
	Qty    float64 `json:"qty"`
}

// Offer is one loyalty-store line item belonging to one corporation.
// Snapshot metrics (iskPerLp, volumePerDay*) are pointers: the ETL worker
// omits them when the item has no market data, and "absent" must stay
// distinguishable from zero.
type Offer struct {
	ID             int64          `json:"id"`
	CorpID         int32          `json:"corpId"`
	ItemID         int32          `json:"itemId"`
	ItemName       string         `json:"itemName,omitempty"`
	LpCost         float64        `json:"lpCost"`
	IskCost        float64        `json:"iskCost"`
	Qty            int64          `json:"qty"`
	RequiredItems  []RequiredItem `json:"requiredItems,omitempty"`
	IskPerLp       *float64       `json:"iskPerLp,omitempty"`
	VolumePerDay   *float64       `json:"volumePerDay,omitempty"`
	VolumePerDay14 *float64       `json:"volumePerDay14,omitempty"`
	VolumePerDay30 *float64       `json:"volumePerDay30,omitempty"`
}

// Corp is one entry of the corporation directory.
type Corp struct {
	CorpID  int32  `json:"corpId"`
	Name    string `json:"name"`
	Faction string `json:"faction,omitempty"`
}

// Catalog reads offer and corp files from the data directory.
type Catalog struct {
	offersFile string
	corpsFile  string
	hide       *HideList
}

// New creates a Catalog rooted at dataDir (expects json/lp_offers.json,
// json/lp_corps.json and config/lp_items_config.json underneath).
func New(dataDir string) *Catalog {
	return &Catalog{
		offersFile: filepath.Join(dataDir, "json", "lp_offers.json"),
		corpsFile:  filepath.Join(dataDir, "json", "lp_corps.json"),
		hide:       NewHideList(filepath.Join(dataDir, "config", "lp_items_config.json")),
	}
}

// OffersFor returns the corporation's offers with hidden items removed.
// An unreadable offers file is a structural failure; a corp absent from the
// file yields an empty slice.
func (c *Catalog) OffersFor(corpID int32) ([]Offer, error) {
	raw, err := os.ReadFile(c.offersFile)
	if err != nil {
		return nil, fmt.Errorf("read offer catalog: %w", err)
	}
	var byCorp map[string][]Offer
	if err := json.Unmarshal(raw, &byCorp); err != nil {
		return nil, fmt.Errorf("parse offer catalog: %w", err)
	}

	offers := byCorp[strconv.Itoa(int(corpID))]
	hidden := c.hide.Hidden()
	visible := offers[:0]
	for _, o := range offers {
		if hidden[o.ItemID] {
			continue
		}
		visible = append(visible, o)
	}
	return visible, nil
}

// Corps returns the corporation directory.
func (c *Catalog) Corps() ([]Corp, error) {
	raw, err := os.ReadFile(c.corpsFile)
	if err != nil {
		return nil, fmt.Errorf("read corps: %w", err)
	}
	var doc struct {
		Corps []Corp `json:"corps"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse corps: %w", err)
	}
	return doc.Corps, nil
}

// HideList is the operator hide-list from lp_items_config.json, re-read only
// when the file mtime changes. A missing or unreadable file means nothing is
// hidden.
type HideList struct {
	path  string
	mu    sync.Mutex
	mtime time.Time
	set   map[int32]bool
}

// NewHideList creates a hide-list backed by the given config file.
func NewHideList(path string) *HideList {
	return &HideList{path: path, set: map[int32]bool{}}
}

// Hidden returns the current set of hidden item ids.
func (h *HideList) Hidden() map[int32]bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	st, err := os.Stat(h.path)
	if err != nil {
		h.mtime = time.Time{}
		h.set = map[int32]bool{}
		return h.set
	}
	if st.ModTime().Equal(h.mtime) {
		return h.set
	}

	raw, err := os.ReadFile(h.path)
	if err != nil {
		return h.set
	}
	var cfg struct {
		Items map[string]struct {
			Hide bool `json:"hide"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return h.set
	}

	set := make(map[int32]bool)
	for id, v := range cfg.Items {
		if !v.Hide {
			continue
		}
		if n, err := strconv.Atoi(id); err == nil {
			set[int32(n)] = true
		}
	}
	h.mtime = st.ModTime()
	h.set = set
	return h.set
}
