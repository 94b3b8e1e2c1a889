package models

import "encoding/json"

// Collection представляет HAL+JSON ответ API со списком элементов
type Collection struct {
	Embedded struct {
		Elements []json.RawMessage `json:"elements"`
	} `json:"_embedded"`

	Total    int `json:"total"`
	Count    int `json:"count"`
	PageSize int `json:"pageSize"`
	Offset   int `json:"offset"`

	Links struct {
		Self struct {
			Href string `json:"href"`
		} `json:"self"`

		Next *struct {
			Href string `json:"href"`
		} `json:"next,omitempty"`
	} `json:"_links"`
}

// IsCollection определяет, является ли документ коллекцией
// (по наличию массива _embedded.elements).
func IsCollection(doc json.RawMessage) bool {
	var probe struct {
		Embedded struct {
			Elements *json.RawMessage `json:"elements"`
		} `json:"_embedded"`
	}
	if err := json.Unmarshal(doc, &probe); err != nil {
		return false
	}
	return probe.Embedded.Elements != nil
}
