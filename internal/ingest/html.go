package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tyler180/boxscore-stats/internal/boxscore"
)

// ReadHTML reads the first table in a saved page whose header names at least
// two known columns, falling back to the first table. Tables hidden inside
// HTML comments are read too.
func ReadHTML(name string, r io.Reader) (Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Table{Name: name}, fmt.Errorf("read html: %w", err)
	}
	clean := strings.ReplaceAll(string(raw), "<!--", "")
	clean = strings.ReplaceAll(clean, "-->", "")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(clean))
	if err != nil {
		return Table{Name: name}, fmt.Errorf("parse html: %w", err)
	}

	t := Table{Name: name}
	table := findStatsTable(doc)
	if table.Length() == 0 {
		return t, nil
	}

	header, body := splitTable(table)
	t.Header = header
	body.Each(func(_ int, tr *goquery.Selection) {
		if tr.HasClass("thead") || tr.HasClass("over_header") {
			return
		}
		cells := cellTexts(tr)
		if len(cells) == 0 {
			return
		}
		t.add(cells)
	})
	return t, nil
}

func findStatsTable(doc *goquery.Document) *goquery.Selection {
	var chosen *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, cand *goquery.Selection) bool {
		header, _ := splitTable(cand)
		if boxscore.ReconcileHeaders(header).Len() >= 2 {
			chosen = cand
			return false
		}
		return true
	})
	if chosen != nil {
		return chosen
	}
	return doc.Find("table").First()
}

// splitTable returns the header cells and the body rows. The last thead row
// is the header (the rows above it are group labels); without a thead the
// first row is.
func splitTable(table *goquery.Selection) ([]string, *goquery.Selection) {
	if thead := table.Find("thead tr").Last(); thead.Length() > 0 {
		return cellTexts(thead), table.Find("tbody tr")
	}
	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil, rows
	}
	return cellTexts(rows.First()), rows.Slice(1, rows.Length())
}

func cellTexts(tr *goquery.Selection) []string {
	var out []string
	tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
		out = append(out, strings.TrimSpace(cell.Text()))
	})
	return out
}
