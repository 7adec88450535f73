package catalogue

import (
	"encoding/csv"
	"os"
	"strings"
)

// ReadList loads a product list from a csv with a name,url header.
// Column order follows the header; a url or link column is accepted,
// same for name or title.
func ReadList(path string) ([]Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	nameIdx, urlIdx := 0, 1
	for i, col := range records[0] {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name", "title":
			nameIdx = i
		case "url", "link":
			urlIdx = i
		}
	}

	var products []Product
	for _, rec := range records[1:] {
		var p Product
		if nameIdx < len(rec) {
			p.Name = strings.TrimSpace(rec[nameIdx])
		}
		if urlIdx < len(rec) {
			p.URL = strings.TrimSpace(rec[urlIdx])
		}
		if p.Name == "" && p.URL == "" {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// WriteList replaces the csv at path with the given products.
func WriteList(path string, products []Product) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	err = writer.Write([]string{"name", "url"})
	if err != nil {
		return err
	}
	for _, p := range products {
		err = writer.Write([]string{p.Name, p.URL})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
