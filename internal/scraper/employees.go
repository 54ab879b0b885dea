package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ugrasage/sagebot-go/internal/storage"
)

const staffPath = "/staff"

// ScrapeEmployees fetches the staff directory for an organization.
func ScrapeEmployees(ctx context.Context, client *Client, baseURL, org string) ([]*storage.Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context canceled before scraping employees: %w", err)
	}

	doc, err := client.GetDocument(ctx, baseURL+staffPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch staff directory: %w", err)
	}
	return ParseEmployees(doc, org), nil
}

// ParseEmployees extracts staff records from the directory page.
//
// Directory rows look like:
//
//	<tr class="person" data-id="42">
//	  <td class="name">Петров Иван Сергеевич</td>
//	  <td class="position">доцент</td>
//	  <td class="department">кафедра математики</td>
//	  <td class="room">1/415</td>
//	</tr>
//
// Names are stored lowercase so roster lookups can match inflected
// user input with a stemmed prefix search.
func ParseEmployees(doc *goquery.Document, org string) []*storage.Employee {
	var employees []*storage.Employee

	doc.Find("tr.person").Each(func(_ int, row *goquery.Selection) {
		id, _ := row.Attr("data-id")
		if id == "" {
			return
		}

		last, first, patronymic := splitPersonName(row.Find("td.name").Text())
		if last == "" {
			return
		}

		campus, room := splitRoom(row.Find("td.room").Text())

		employees = append(employees, &storage.Employee{
			ID:           id,
			Organization: org,
			LastName:     last,
			FirstName:    first,
			Patronymic:   patronymic,
			Position:     strings.ToLower(strings.TrimSpace(row.Find("td.position").Text())),
			Department:   strings.ToLower(strings.TrimSpace(row.Find("td.department").Text())),
			Campus:       campus,
			Room:         room,
		})
	})

	return employees
}

// splitPersonName splits "Петров Иван Сергеевич" into lowered last,
// first and patronymic parts.
func splitPersonName(s string) (string, string, string) {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	switch len(parts) {
	case 0:
		return "", "", ""
	case 1:
		return parts[0], "", ""
	case 2:
		return parts[0], parts[1], ""
	default:
		return parts[0], parts[1], strings.Join(parts[2:], " ")
	}
}
