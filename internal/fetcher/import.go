package fetcher

import (
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// ProjectRow is one row of a bulk project import file.
type ProjectRow struct {
	Name    string
	Company string
	Ticker  string
	Country string
	URLs    []string
}

// projectColumns maps normalized header names to ProjectRow fields.
// Analyst-supplied spreadsheets are inconsistent, so several spellings are
// accepted per column.
var projectColumns = map[string]string{
	"project":      "name",
	"project name": "name",
	"name":         "name",
	"company":      "company",
	"company name": "company",
	"issuer":       "company",
	"ticker":       "ticker",
	"symbol":       "ticker",
	"country":      "country",
	"location":     "country",
	"url":          "urls",
	"urls":         "urls",
	"document url": "urls",
	"documents":    "urls",
	"report url":   "urls",
}

// ReadProjectCSV parses a project list from CSV. The first row must be a
// header; unknown columns are ignored. Rows without a project name are
// skipped. URL cells may hold several URLs separated by semicolons.
func ReadProjectCSV(ctx context.Context, r io.Reader) ([]ProjectRow, error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(ctx, r, CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}

	var header []string
	select {
	case header = <-headerCh:
	default:
		return nil, eris.New("import: csv file has no header row")
	}

	return mapProjectRows(header, rows)
}

// ReadProjectXLSX parses a project list from the first sheet of an XLSX file.
func ReadProjectXLSX(path string) ([]ProjectRow, error) {
	rows, err := ReadXLSX(path, XLSXOptions{})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.New("import: xlsx file is empty")
	}
	return mapProjectRows(rows[0], rows[1:])
}

func mapProjectRows(header []string, rows [][]string) ([]ProjectRow, error) {
	fields := make([]string, len(header))
	hasName := false
	for i, h := range header {
		field := projectColumns[strings.ToLower(strings.TrimSpace(h))]
		fields[i] = field
		if field == "name" {
			hasName = true
		}
	}
	if !hasName {
		return nil, eris.Errorf("import: no project name column in header %v", header)
	}

	var out []ProjectRow
	for _, row := range rows {
		var pr ProjectRow
		for i, cell := range row {
			if i >= len(fields) {
				break
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			switch fields[i] {
			case "name":
				pr.Name = cell
			case "company":
				pr.Company = cell
			case "ticker":
				pr.Ticker = cell
			case "country":
				pr.Country = cell
			case "urls":
				for _, u := range strings.Split(cell, ";") {
					if u = strings.TrimSpace(u); u != "" {
						pr.URLs = append(pr.URLs, u)
					}
				}
			}
		}
		if pr.Name == "" {
			continue
		}
		out = append(out, pr)
	}
	return out, nil
}
