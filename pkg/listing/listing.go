package listing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Columns every listing file must carry, in projection order.
var Columns = []string{
	"Name", "Location", "Year", "Kilometers_Driven", "Fuel_Type",
	"Transmission", "Owner_Type", "Mileage", "Engine", "Power",
	"Seats", "Price",
}

var ErrMissingColumn = errors.New("missing required column")

// ReadCSV parses a car listing export and returns one flattened document per row.
func ReadCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range Columns {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var docs []string
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		get := func(col string) string {
			i := pos[col]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if get("Name") == "" {
			continue
		}
		docs = append(docs, Project(get))
	}
	return docs, nil
}

// Project renders one listing as "Name: X | Location: Y | ... | Price: P lakhs".
func Project(get func(col string) string) string {
	return fmt.Sprintf(
		"Name: %s | Location: %s | Year: %s | Kilometers Driven: %s | Fuel Type: %s | "+
			"Transmission: %s | Owner Type: %s | Mileage: %s | Engine: %s | Power: %s | "+
			"Seats: %s | Price: %s lakhs",
		get("Name"), get("Location"), get("Year"), get("Kilometers_Driven"), get("Fuel_Type"),
		get("Transmission"), get("Owner_Type"), get("Mileage"), get("Engine"), get("Power"),
		get("Seats"), get("Price"),
	)
}
