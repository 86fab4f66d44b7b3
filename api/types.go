// Package api provides a Go client for the Shopify Admin GraphQL API.
package api

import "context"

// ShopInfo is the subset of the shop object used to verify connectivity
type ShopInfo struct {
	Name            string `json:"name"`
	MyshopifyDomain string `json:"myshopifyDomain"`
	Email           string `json:"email,omitempty"`
	Currency        string `json:"currencyCode,omitempty"`
	Plan            struct {
		DisplayName string `json:"displayName"`
	} `json:"plan"`
}

const shopQuery = `query {
  shop {
    name
    myshopifyDomain
    email
    currencyCode
    plan { displayName }
  }
}`

// GetShop fetches basic shop information
func (c *Client) GetShop(ctx context.Context) (*ShopInfo, error) {
	return Execute[*ShopInfo](ctx, c, shopQuery, nil, Path{Key("data"), Key("shop")})
}

// ThrottleStatus is the state of the shop's query cost bucket.
type ThrottleStatus struct {
	MaximumAvailable   float64 `json:"maximumAvailable"`
	CurrentlyAvailable float64 `json:"currentlyAvailable"`
	RestoreRate        float64 `json:"restoreRate"`
}

// QueryCost is the cost report the platform attaches under extensions.cost.
type QueryCost struct {
	RequestedQueryCost float64        `json:"requestedQueryCost"`
	ActualQueryCost    float64        `json:"actualQueryCost"`
	ThrottleStatus     ThrottleStatus `json:"throttleStatus"`
}

const costProbeQuery = `query { shop { id } }`

// GetQueryCost runs a minimal query and returns its cost report, which
// carries the current throttle status.
func (c *Client) GetQueryCost(ctx context.Context) (*QueryCost, error) {
	cost, err := Execute[*QueryCost](ctx, c, costProbeQuery, nil, Path{Key("extensions"), Key("cost")})
	if err != nil {
		return nil, err
	}
	if cost == nil {
		return nil, &Error{Kind: KindNotWantedJSONFormat, Message: "response has no cost report"}
	}
	return cost, nil
}
