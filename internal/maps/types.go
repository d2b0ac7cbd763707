package maps

// LookupRequest represents the query parameters of the autocomplete box.
type LookupRequest struct {
	Query string `form:"q" binding:"required,min=3"`
}

// GeocodeRequest identifies an address to place on the map.
type GeocodeRequest struct {
	StreetType   string `form:"streetType"`
	StreetName   string `form:"streetName"`
	StreetNumber string `form:"streetNumber"`
	Municipality string `form:"municipality" binding:"required"`
	Province     string `form:"province" binding:"required"`
}

// AddressSuggestion is the normalized data returned to the valuation form.
type AddressSuggestion struct {
	Label        string  `json:"label"`
	StreetType   string  `json:"streetType"`
	StreetName   string  `json:"streetName"`
	StreetNumber string  `json:"streetNumber"`
	PostalCode   string  `json:"postalCode"`
	Municipality string  `json:"municipality"`
	Province     string  `json:"province"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
}

type nominatimAddress struct {
	Road         string `json:"road"`
	Pedestrian   string `json:"pedestrian"`
	Street       string `json:"street"`
	Square       string `json:"square"`
	HouseNumber  string `json:"house_number"`
	Postcode     string `json:"postcode"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
	State        string `json:"state"`
	Province     string `json:"province"`
}

// nominatimResponse mirrors the relevant parts of the OSM search payload.
type nominatimResponse struct {
	DisplayName string           `json:"display_name"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Address     nominatimAddress `json:"address"`
}
