package metrobank

import (
	"encoding/json"
	"fmt"
	"strings"

	"foreclosure-ingest/models"
)

// payload is the JSON envelope of one intercepted listing response.
type payload struct {
	Data []payloadItem `json:"data"`
}

type payloadItem struct {
	ObjectNo    string   `json:"objectNo"` // bank-assigned case number, stable
	Address     string   `json:"address"`
	SaleDate    string   `json:"saleDate"` // ROC compact date
	SaleRound   int      `json:"saleRound"`
	FloorPrice  string   `json:"floorPrice"` // 萬元
	AreaPing    float64  `json:"areaPing"`
	DeliverNote string   `json:"deliverNote"`
	Photos      []string `json:"photos"`
}

// ParsePayload maps one intercepted response body to raw records.
func ParsePayload(body []byte, sourceURL string) ([]models.RawRecord, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("payload unmarshal: %w", err)
	}

	records := make([]models.RawRecord, 0, len(p.Data))
	for _, item := range p.Data {
		records = append(records, models.RawRecord{
			"objectId":  item.ObjectNo,
			"address":   item.Address,
			"date":      item.SaleDate,
			"round":     fmt.Sprintf("%d", item.SaleRound),
			"price":     item.FloorPrice,
			"areaPing":  fmt.Sprintf("%g", item.AreaPing),
			"delivery":  item.DeliverNote,
			"images":    strings.Join(item.Photos, "|"),
			"sourceUrl": sourceURL,
		})
	}
	return records, nil
}
