package sources

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobradar-engine/internal/config"
	"jobradar-engine/internal/domain"
)

// parseCareerhub extracts listings from a CareerHub-style board. The
// markup is server-rendered, so the static strategy is enough.
func parseCareerhub(html string, src config.Source) ([]domain.Listing, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, &ParseError{Source: src.ID, Cause: fmt.Sprintf("bad document: %v", err)}
	}

	items := doc.Find("div.job-item")
	if items.Length() == 0 {
		if doc.Find("div.jobs, ul.jobs-list").Length() == 0 {
			return nil, 0, &ParseError{Source: src.ID, Cause: "unexpected page layout: no jobs container"}
		}
		return nil, 0, nil
	}

	pageURL := firstPageURL(src.BaseURL)

	var out []domain.Listing
	skipped := 0
	items.Each(func(i int, el *goquery.Selection) {
		link := el.Find("h4 a, a.title").First()
		title := CleanText(link.Text())
		href, _ := link.Attr("href")
		jobURL := absURL(pageURL, href)

		if title == "" || jobURL == "" {
			skipped++
			log.Printf("[parse:%s] skipping malformed entry #%d (title=%q url=%q)", src.ID, i, title, jobURL)
			return
		}

		l := domain.Listing{
			Source:    src.ID,
			Title:     title,
			Company:   CleanText(el.Find("span.company, div.company").First().Text()),
			Location:  CleanText(el.Find("span.location, div.location").First().Text()),
			SalaryRaw: CleanText(el.Find("span.salary, div.salary").First().Text()),
			URL:       jobURL,
			Snippet:   CleanText(el.Find("p.summary, div.summary").First().Text()),
		}
		if min, max, ok := ExtractSalaryRange(l.SalaryRaw); ok {
			l.SalaryMin, l.SalaryMax = min, max
		}
		if dt, ok := el.Find("time").First().Attr("datetime"); ok {
			for _, layout := range []string{time.RFC3339, "2006-01-02"} {
				if t, err := time.Parse(layout, dt); err == nil {
					l.PostedAt = &t
					break
				}
			}
		}
		out = append(out, l)
	})

	return out, skipped, nil
}
