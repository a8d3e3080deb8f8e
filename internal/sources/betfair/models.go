package betfair

// Wire payloads for the exchange REST API. Only the fields the adapter
// reads are declared.

type eventFilter struct {
	Filter marketFilter `json:"filter"`
}

type marketFilter struct {
	EventTypeIDs    []string `json:"eventTypeIds,omitempty"`
	EventIDs        []string `json:"eventIds,omitempty"`
	InPlayOnly      bool     `json:"inPlayOnly,omitempty"`
	MarketTypeCodes []string `json:"marketTypeCodes,omitempty"`
}

type catalogueRequest struct {
	Filter           marketFilter `json:"filter"`
	MaxResults       int          `json:"maxResults"`
	MarketProjection []string     `json:"marketProjection,omitempty"`
}

type bookRequest struct {
	MarketIDs       []string        `json:"marketIds"`
	PriceProjection priceProjection `json:"priceProjection"`
}

type priceProjection struct {
	PriceData []string `json:"priceData"`
}

type eventResult struct {
	Event       event `json:"event"`
	MarketCount int   `json:"marketCount"`
}

type event struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Venue    string `json:"venue"`
	OpenDate string `json:"openDate"`
}

type marketCatalogue struct {
	MarketID     string      `json:"marketId"`
	MarketName   string      `json:"marketName"`
	TotalMatched float64     `json:"totalMatched"`
	Description  marketDesc  `json:"description"`
	Event        event       `json:"event"`
	Runners      []runnerCat `json:"runners"`
}

type marketDesc struct {
	MarketType string `json:"marketType"`
}

type runnerCat struct {
	SelectionID int64  `json:"selectionId"`
	RunnerName  string `json:"runnerName"`
}

type marketBook struct {
	MarketID     string       `json:"marketId"`
	Status       string       `json:"status"`
	Inplay       bool         `json:"inplay"`
	TotalMatched float64      `json:"totalMatched"`
	Runners      []runnerBook `json:"runners"`
}

type runnerBook struct {
	SelectionID int64         `json:"selectionId"`
	Status      string        `json:"status"`
	EX          exchangePrice `json:"ex"`
}

type exchangePrice struct {
	AvailableToBack []priceSize `json:"availableToBack"`
	AvailableToLay  []priceSize `json:"availableToLay"`
}

type priceSize struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}
