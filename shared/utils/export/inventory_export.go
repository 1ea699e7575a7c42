package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
)

// InventoryRow is one exported box with its placement and QR link
// flattened for tabular output.
type InventoryRow struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	Location    string `json:"location"`
	QRCode      string `json:"qr_code"`
	Status      string `json:"status"`
	ShortID     string `json:"short_id"`
}

// CSVHeader is the fixed export header row. Order and spelling are part
// of the export contract.
var CSVHeader = []string{"Name", "Description", "Tags", "Location", "QR Code", "Status", "Short ID"}

// WriteCSV writes rows as RFC 4180 CSV with the fixed header. Embedded
// commas, quotes and newlines are escaped by the csv writer
// (double-quote doubling).
func WriteCSV(w io.Writer, rows []InventoryRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.Name,
			row.Description,
			row.Tags,
			row.Location,
			row.QRCode,
			row.Status,
			row.ShortID,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes rows as a JSON array
func WriteJSON(w io.Writer, rows []InventoryRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
