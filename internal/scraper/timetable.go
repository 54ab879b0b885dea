package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ugrasage/sagebot-go/internal/sliceutil"
	"github.com/ugrasage/sagebot-go/internal/storage"
)

const (
	groupsPath    = "/timetable/groups"
	timetablePath = "/timetable/group"
)

// weekdayNumbers maps lowered Russian weekday headers to 1..7.
var weekdayNumbers = map[string]int{
	"понедельник": 1,
	"вторник":     2,
	"среда":       3,
	"четверг":     4,
	"пятница":     5,
	"суббота":     6,
	"воскресенье": 7,
}

// specMarkers maps the parenthesized session type on subject cells to
// the stored spec code.
var specMarkers = map[string]string{
	"лек":                 "лек",
	"лекция":              "лек",
	"пр":                  "пр",
	"практика":            "пр",
	"лаб":                 "лаб",
	"лабораторная":        "лаб",
	"лабораторные":        "лаб",
	"лабораторная работа": "лаб",
}

// ScrapeGroups fetches the list of group names for an organization.
func ScrapeGroups(ctx context.Context, client *Client, baseURL string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context canceled before scraping groups: %w", err)
	}

	doc, err := client.GetDocument(ctx, baseURL+groupsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch group list: %w", err)
	}
	return ParseGroups(doc), nil
}

// ParseGroups extracts group names from the group selection page.
func ParseGroups(doc *goquery.Document) []string {
	var groups []string

	doc.Find("select[name=group] option, ul.groups a").Each(func(_ int, s *goquery.Selection) {
		name := strings.ToLower(strings.TrimSpace(s.Text()))
		if name == "" {
			return
		}
		groups = append(groups, name)
	})

	return sliceutil.Deduplicate(groups, func(g string) string { return g })
}

// ScrapeTimetable fetches the weekly timetable for one group.
func ScrapeTimetable(ctx context.Context, client *Client, baseURL, org, group string) ([]*storage.Lesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context canceled before scraping timetable: %w", err)
	}

	url := fmt.Sprintf("%s%s?name=%s", baseURL, timetablePath, group)
	doc, err := client.GetDocument(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timetable for %s: %w", group, err)
	}
	return ParseTimetable(doc, org, group), nil
}

// ParseTimetable extracts lessons from a group's timetable page.
//
// The schedule table interleaves day header rows with lesson rows:
//
//	<tr class="day"><th>Понедельник</th></tr>
//	<tr class="lesson">
//	  <td class="time">08:30 - 10:00</td>
//	  <td class="subject">Математический анализ (лек)</td>
//	  <td class="subgroup">2</td>
//	  <td class="room">1/312</td>
//	  <td class="teacher" data-id="42">Петров Иван Сергеевич</td>
//	</tr>
func ParseTimetable(doc *goquery.Document, org, group string) []*storage.Lesson {
	var lessons []*storage.Lesson
	weekday := 0

	doc.Find("table.schedule tr").Each(func(_ int, row *goquery.Selection) {
		if row.HasClass("day") {
			name := strings.ToLower(strings.TrimSpace(row.Find("th").First().Text()))
			if wd, ok := weekdayNumbers[name]; ok {
				weekday = wd
			}
			return
		}
		if !row.HasClass("lesson") || weekday == 0 {
			return
		}

		startsAt, endsAt := splitTimeRange(row.Find("td.time").Text())
		if startsAt == "" {
			return
		}

		className, spec := splitSubject(row.Find("td.subject").Text())
		if className == "" {
			return
		}

		campus, room := splitRoom(row.Find("td.room").Text())
		teacher := row.Find("td.teacher")
		employeeID, _ := teacher.Attr("data-id")

		lessons = append(lessons, &storage.Lesson{
			Organization: org,
			GroupName:    group,
			Subgroup:     strings.TrimSpace(row.Find("td.subgroup").Text()),
			ClassName:    className,
			Spec:         spec,
			Weekday:      weekday,
			StartsAt:     startsAt,
			EndsAt:       endsAt,
			Campus:       campus,
			Room:         room,
			EmployeeID:   employeeID,
			EmployeeName: strings.ToLower(strings.TrimSpace(teacher.Text())),
		})
	})

	return lessons
}

// splitTimeRange parses "08:30 - 10:00" into start and end times.
func splitTimeRange(s string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return "", ""
	}
	start := strings.TrimSpace(parts[0])
	end := strings.TrimSpace(parts[1])
	if len(start) != 5 || len(end) != 5 {
		return "", ""
	}
	return start, end
}

// splitSubject parses "Математический анализ (лек)" into the lowered
// class name and spec code. An unrecognized marker is kept as part of
// the name.
func splitSubject(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}

	open := strings.LastIndex(s, "(")
	if open > 0 && strings.HasSuffix(s, ")") {
		marker := strings.ToLower(strings.TrimSpace(s[open+1 : len(s)-1]))
		if spec, ok := specMarkers[marker]; ok {
			return strings.ToLower(strings.TrimSpace(s[:open])), spec
		}
	}
	return strings.ToLower(s), ""
}

// splitRoom parses "1/312" into campus and room. A bare "312" means
// no campus.
func splitRoom(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return "", s
}

// CollectClassNames returns the distinct class names in a lesson set,
// used to rebuild the subject roster.
func CollectClassNames(lessons []*storage.Lesson) []string {
	names := make([]string, 0, len(lessons))
	for _, l := range lessons {
		names = append(names, l.ClassName)
	}
	return sliceutil.Deduplicate(names, func(n string) string { return n })
}
