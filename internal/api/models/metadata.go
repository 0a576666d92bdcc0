package models

// Enums represents the enum values used by the API.
type Enums struct {
	Units      []string `json:"units"`
	Products   []string `json:"products"`
	Parameters []string `json:"parameters"`
	Statuses   []string `json:"statuses"`
	Locales    []string `json:"locales"`
}
