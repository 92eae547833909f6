package picks

import (
	"fmt"
	"strings"

	"spreadpool/internal/models"

	"github.com/PuerkitoBio/goquery"
)

var noise = strings.NewReplacer("\n", " ", "\t", " ", "\r", " ", "*", " ")

// page is one roster of picks: a header row naming owners, then pick rows
type page [][]string

// ParsePages reads every table body of every HTML document and splits its
// rows into pages. Rows keep only the cells worth reading.
func ParsePages(bodies []string) ([]page, error) {
	var pages []page
	for i, body := range bodies {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(noise.Replace(body)))
		if err != nil {
			return nil, &models.ExtractionError{Err: fmt.Errorf("body %d: %w", i, err)}
		}
		sanitize(doc)

		doc.Find("tbody").Each(func(_ int, tbody *goquery.Selection) {
			pages = append(pages, segment(tbody)...)
		})
	}
	return pages, nil
}

func sanitize(doc *goquery.Document) {
	doc.Find("style, script, link, head, meta").Remove()
	doc.Find("tbody").Find("font, div, u, b, i").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithSelection(s.Contents())
	})
}

func segment(tbody *goquery.Selection) []page {
	var (
		pages   []page
		current page
	)
	flush := func() {
		if len(current) > 0 {
			pages = append(pages, current)
		}
		current = nil
	}

	tbody.ChildrenFiltered("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := rowCells(tr)
		switch {
		case len(cells) == 0:
		case strings.Contains(strings.ToLower(cells[0]), "page"):
			flush()
		case len(cells) <= 1:
		case strings.Contains(cells[0], "DEFAULT PICK"), strings.Contains(cells[0], "POINTS"):
			// season totals and fallbacks, not picks
		case strings.Contains(cells[0], "Name") && len(current) > 0:
			flush()
			current = append(current, cells)
		default:
			current = append(current, cells)
		}
	})
	flush()

	return pages
}

// rowCells returns the trimmed text of cells that are neither blank nor
// contain '/' or '-', which mark dates and other metadata.
func rowCells(tr *goquery.Selection) []string {
	var cells []string
	tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
		text := strings.TrimSpace(cell.Text())
		if text == "" || strings.ContainsAny(text, "/-") {
			return
		}
		cells = append(cells, text)
	})
	return cells
}

// rawPicks is an owner's unparsed pick tokens in table order
type rawPicks struct {
	owners []string
	tokens map[string][]string
}

func (r *rawPicks) set(owner string, tokens []string) {
	if r.tokens == nil {
		r.tokens = map[string][]string{}
	}
	if _, ok := r.tokens[owner]; !ok {
		r.owners = append(r.owners, owner)
	}
	r.tokens[owner] = tokens
}

// collect zips each page's rows against its header. Later pages replace
// earlier owners with the same name.
func collect(pages []page) (*rawPicks, error) {
	result := &rawPicks{}

	for _, p := range pages {
		var owners []string
		columns := map[string][]string{}

		for _, row := range p {
			if strings.Contains(row[0], "Name") {
				for _, name := range row[1:] {
					if models.IsSkipToken(name) {
						continue
					}
					owners = append(owners, name)
					columns[name] = nil
				}
				continue
			}
			if len(owners) == 0 {
				continue
			}

			if len(row) < len(owners) {
				return nil, &models.ExtractionError{
					Err: fmt.Errorf("row %q has %d picks for %d owners", strings.Join(row, " "), len(row), len(owners)),
				}
			}
			for i, owner := range owners {
				columns[owner] = append(columns[owner], row[i])
			}
		}

		for _, owner := range owners {
			result.set(owner, columns[owner])
		}
	}

	return result, nil
}
