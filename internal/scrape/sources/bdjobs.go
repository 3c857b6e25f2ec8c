package sources

import (
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobradar-engine/internal/config"
	"jobradar-engine/internal/domain"
)

// parseBdjobs extracts listings from a Bdjobs search result page. The
// listing grid is built client-side, so this source runs rendered.
func parseBdjobs(html string, src config.Source) ([]domain.Listing, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, &ParseError{Source: src.ID, Cause: fmt.Sprintf("bad document: %v", err)}
	}

	items := doc.Find("div.job-list-item")
	if items.Length() == 0 {
		// distinguish "past the last page" from a layout we don't recognize
		if doc.Find("div.job-list, div.no-jobs-found").Length() == 0 {
			return nil, 0, &ParseError{Source: src.ID, Cause: "unexpected page layout: no job list container"}
		}
		return nil, 0, nil
	}

	pageURL := firstPageURL(src.BaseURL)

	var out []domain.Listing
	skipped := 0
	items.Each(func(i int, el *goquery.Selection) {
		title := CleanText(el.Find("h3, a.job-title").First().Text())
		href, _ := el.Find("a").First().Attr("href")
		jobURL := absURL(pageURL, href)

		if title == "" || jobURL == "" {
			skipped++
			log.Printf("[parse:%s] skipping malformed entry #%d (title=%q url=%q)", src.ID, i, title, jobURL)
			return
		}

		l := domain.Listing{
			Source:    src.ID,
			Title:     title,
			Company:   CleanText(el.Find("div.company-name, span.company").First().Text()),
			Location:  CleanText(el.Find("div.location, span.location").First().Text()),
			SalaryRaw: CleanText(el.Find("div.salary, span.salary").First().Text()),
			URL:       jobURL,
			Snippet:   CleanText(el.Find("p.summary, div.job-summary").First().Text()),
		}
		if min, max, ok := ExtractSalaryRange(l.SalaryRaw); ok {
			l.SalaryMin, l.SalaryMax = min, max
		}
		out = append(out, l)
	})

	return out, skipped, nil
}
