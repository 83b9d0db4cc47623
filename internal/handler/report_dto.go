package handler

import "encoding/json"

type ReportResponse struct {
	Date      string          `json:"date"`
	CreatedAt string          `json:"created_at"`
	Report    json.RawMessage `json:"report"`
}

type DatesResponse struct {
	Dates []string `json:"dates"`
	Total int      `json:"total"`
	Limit int      `json:"limit"`
}
