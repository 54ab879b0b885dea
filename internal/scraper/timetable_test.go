package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParseGroups(t *testing.T) {
	t.Parallel()

	doc := docFrom(t, `
		<select name="group">
			<option></option>
			<option>1491М</option>
			<option>1492м</option>
			<option>1491М</option>
		</select>`)

	groups := ParseGroups(doc)
	assert.Equal(t, []string{"1491м", "1492м"}, groups)
}

func TestParseTimetable(t *testing.T) {
	t.Parallel()

	doc := docFrom(t, `
		<table class="schedule">
			<tr class="day"><th>Понедельник</th></tr>
			<tr class="lesson">
				<td class="time">08:30 - 10:00</td>
				<td class="subject">Математический анализ (лек)</td>
				<td class="subgroup"></td>
				<td class="room">1/312</td>
				<td class="teacher" data-id="42">Петров Иван Сергеевич</td>
			</tr>
			<tr class="lesson">
				<td class="time">10:15 - 11:45</td>
				<td class="subject">Физика (лаб)</td>
				<td class="subgroup">2</td>
				<td class="room">101</td>
				<td class="teacher" data-id="43">Сидорова Анна</td>
			</tr>
			<tr class="day"><th>Вторник</th></tr>
			<tr class="lesson">
				<td class="time">08:30 - 10:00</td>
				<td class="subject">Химия нефти и газа</td>
				<td class="subgroup"></td>
				<td class="room">2/201</td>
				<td class="teacher"></td>
			</tr>
			<tr class="lesson">
				<td class="time">нет</td>
				<td class="subject">Окно</td>
			</tr>
		</table>`)

	lessons := ParseTimetable(doc, "югу", "1491м")
	require.Len(t, lessons, 3)

	first := lessons[0]
	assert.Equal(t, "югу", first.Organization)
	assert.Equal(t, "1491м", first.GroupName)
	assert.Equal(t, "математический анализ", first.ClassName)
	assert.Equal(t, "лек", first.Spec)
	assert.Equal(t, 1, first.Weekday)
	assert.Equal(t, "08:30", first.StartsAt)
	assert.Equal(t, "10:00", first.EndsAt)
	assert.Equal(t, "1", first.Campus)
	assert.Equal(t, "312", first.Room)
	assert.Equal(t, "42", first.EmployeeID)
	assert.Equal(t, "петров иван сергеевич", first.EmployeeName)

	second := lessons[1]
	assert.Equal(t, "лаб", second.Spec)
	assert.Equal(t, "2", second.Subgroup)
	assert.Empty(t, second.Campus)
	assert.Equal(t, "101", second.Room)

	third := lessons[2]
	assert.Equal(t, 2, third.Weekday)
	assert.Equal(t, "химия нефти и газа", third.ClassName)
	assert.Empty(t, third.Spec)
	assert.Empty(t, third.EmployeeID)
}

func TestSplitSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		name string
		spec string
	}{
		{"Физика (лек)", "физика", "лек"},
		{"Физика (лаборатОРНАЯ)", "физика", "лаб"},
		{"Теория вероятностей (практика)", "теория вероятностей", "пр"},
		{"Математика (дискретная)", "математика (дискретная)", ""},
		{"Физика", "физика", ""},
		{"  ", "", ""},
	}
	for _, tt := range tests {
		name, spec := splitSubject(tt.in)
		assert.Equal(t, tt.name, name, tt.in)
		assert.Equal(t, tt.spec, spec, tt.in)
	}
}

func TestSplitTimeRange(t *testing.T) {
	t.Parallel()

	start, end := splitTimeRange(" 08:30 - 10:00 ")
	assert.Equal(t, "08:30", start)
	assert.Equal(t, "10:00", end)

	start, end = splitTimeRange("весь день")
	assert.Empty(t, start)
	assert.Empty(t, end)
}

func TestCollectClassNames(t *testing.T) {
	t.Parallel()

	doc := docFrom(t, `
		<table class="schedule">
			<tr class="day"><th>Среда</th></tr>
			<tr class="lesson"><td class="time">08:30 - 10:00</td><td class="subject">Физика</td></tr>
			<tr class="lesson"><td class="time">10:15 - 11:45</td><td class="subject">Физика (лаб)</td></tr>
			<tr class="lesson"><td class="time">12:00 - 13:30</td><td class="subject">Химия</td></tr>
		</table>`)

	names := CollectClassNames(ParseTimetable(doc, "югу", "11г"))
	assert.Equal(t, []string{"физика", "химия"}, names)
}
