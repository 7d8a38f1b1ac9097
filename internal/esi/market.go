package esi

import "fmt"

// MarketOrder is a single order from the region order book.
type MarketOrder struct {
	OrderID      int64   `json:"order_id"`
	TypeID       int32   `json:"type_id"`
	LocationID   int64   `json:"location_id"`
	SystemID     int32   `json:"system_id"`
	Price        float64 `json:"price"`
	VolumeRemain int64   `json:"volume_remain"`
	IsBuyOrder   bool    `json:"is_buy_order"`
}

// FetchBuyOrders fetches the full buy-order snapshot for one type in a
// region, following X-Pages pagination.
func (c *Client) FetchBuyOrders(regionID, typeID int32) ([]MarketOrder, error) {
	return c.fetchOrders(regionID, typeID, "buy", true)
}

// FetchSellOrders fetches the full sell-order snapshot for one type in a
// region.
func (c *Client) FetchSellOrders(regionID, typeID int32) ([]MarketOrder, error) {
	return c.fetchOrders(regionID, typeID, "sell", false)
}

// fetchOrders follows X-Pages pagination. A page that fails after retries is
// skipped rather than failing the whole snapshot.
func (c *Client) fetchOrders(regionID, typeID int32, orderType string, buy bool) ([]MarketOrder, error) {
	url := fmt.Sprintf("%s/markets/%d/orders/?datasource=tranquility&order_type=%s&type_id=%d",
		c.BaseURL, regionID, orderType, typeID)

	var first []MarketOrder
	pages, err := c.getPage(url, 1, &first)
	if err != nil {
		return nil, err
	}

	orders := first
	for p := 2; p <= pages; p++ {
		var page []MarketOrder
		if _, err := c.getPage(url, p, &page); err != nil {
			continue
		}
		orders = append(orders, page...)
	}

	// ESI occasionally returns the other side on mixed endpoints; keep the
	// snapshot strictly to the requested side.
	filtered := orders[:0]
	for _, o := range orders {
		if o.IsBuyOrder == buy {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

// BestBuyPrice returns the highest buy price in the snapshot, or 0 when the
// snapshot is empty.
func BestBuyPrice(orders []MarketOrder) float64 {
	best := 0.0
	for _, o := range orders {
		if o.Price > best {
			best = o.Price
		}
	}
	return best
}

// MinSellPrice returns the lowest sell price in the snapshot, or 0 when the
// snapshot is empty.
func MinSellPrice(orders []MarketOrder) float64 {
	min := 0.0
	for _, o := range orders {
		if min == 0 || o.Price < min {
			min = o.Price
		}
	}
	return min
}
