package nominatim

import "encoding/json"

// Address is the addressdetails block of a search result.
type Address struct {
	Road         string `json:"road"`
	HouseNumber  string `json:"house_number"`
	Postcode     string `json:"postcode"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	Hamlet       string `json:"hamlet"`
	State        string `json:"state"`
	CountryCode  string `json:"country_code"`
}

// Place mirrors the relevant parts of the OSM search payload.
type Place struct {
	PlaceID     json.Number `json:"place_id"`
	DisplayName string      `json:"display_name"`
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
	Type        string      `json:"type"`
	Address     Address     `json:"address"`
}

// SearchParams are the query parameters of one /search call.
type SearchParams struct {
	Query        string
	CountryCodes string
	Limit        int
	Language     string
}
