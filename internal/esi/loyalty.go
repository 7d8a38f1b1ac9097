package esi

import "fmt"

// LoyaltyOffer is one redeemable line item in an NPC corporation's LP store,
// as returned by /loyalty/stores/{corp}/offers/.
type LoyaltyOffer struct {
	OfferID       int64                `json:"offer_id"`
	TypeID        int32                `json:"type_id"`
	Quantity      int64                `json:"quantity"`
	LpCost        float64              `json:"lp_cost"`
	IskCost       float64              `json:"isk_cost"`
	AkCost        int64                `json:"ak_cost"`
	RequiredItems []LoyaltyRequirement `json:"required_items"`
}

// LoyaltyRequirement is one bill-of-materials line the player must supply in
// addition to LP and ISK.
type LoyaltyRequirement struct {
	TypeID   int32 `json:"type_id"`
	Quantity int64 `json:"quantity"`
}

// FetchLoyaltyOffers fetches the LP store catalog for one corporation.
// A corporation without an LP store yields an empty slice, not an error.
func (c *Client) FetchLoyaltyOffers(corpID int32) ([]LoyaltyOffer, error) {
	url := fmt.Sprintf("%s/loyalty/stores/%d/offers/?datasource=tranquility", c.BaseURL, corpID)

	var offers []LoyaltyOffer
	if err := c.GetJSON(url, &offers); err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return offers, nil
}
