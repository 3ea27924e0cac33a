package wdsf

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/palmares-dance/palmares/pkg/competition"
	"github.com/palmares-dance/palmares/pkg/normalize"
)

var leadingDigits = regexp.MustCompile(`^\d+`)

// calendarRecord is one contest line of the yearly calendar.
type calendarRecord struct {
	place string
	date  string
	url   string
}

func parseCalendar(body string) ([]calendarRecord, error) {
	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(body, "\ufeff")))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return []calendarRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	columns := map[string]int{}
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Location", "Date", "CompetitionUrl"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing column %s", required)
		}
	}

	records := []calendarRecord{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		field := func(name string) string {
			if i := columns[name]; i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		contestURL := field("CompetitionUrl")
		records = append(records, calendarRecord{
			place: normalize.TitleCase(normalize.StripParenthetical(normalize.FoldDiacritics(field("Location")))),
			date:  field("Date"),
			// keep the competition part of the contest url
			url: contestURL[:strings.LastIndex(contestURL, "/")+1],
		})
	}
	return records, nil
}

func load(body string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(normalize.ReplaceUnallowed(body)))
}

// parseContestLinks returns the contest links listed under the day of date.
func parseContestLinks(body string, date time.Time) []string {
	doc, err := load(body)
	if err != nil {
		return nil
	}
	var links []string
	doc.Find(".competitionList h3").Each(func(i int, day *goquery.Selection) {
		parsed, err := time.Parse(dayLayout, strings.TrimSpace(day.Text()))
		if err != nil || !parsed.Equal(competition.Day(date)) {
			return
		}
		doc.Find(fmt.Sprintf(".competitionList table:nth-of-type(%d) a", i+1)).Each(func(_ int, link *goquery.Selection) {
			href, ok := link.Attr("href")
			if !ok || strings.TrimSpace(link.Text()) == "Upcoming" {
				return
			}
			links = append(links, href)
		})
	})
	return links
}

// parseRanking reads a contest ranking page. It reports false for contests
// still running or cancelled.
func parseRanking(body string) (competition.Contest, bool, error) {
	if strings.Contains(body, "Not ranked yet") || strings.Contains(body, "Cancelled") {
		return competition.Contest{}, false, nil
	}
	doc, err := load(body)
	if err != nil {
		return competition.Contest{}, false, err
	}

	heading := doc.Find("h1").First()
	title := strings.Replace(strings.TrimSpace(heading.Text()), "Ranking of ", "", 1)
	if subtitle := heading.Next().Text(); subtitle != "" {
		if i := strings.Index(subtitle, "taken"); i >= 0 {
			subtitle = subtitle[:i]
		}
		subtitle = strings.TrimSpace(strings.Replace(subtitle, "The following results are from the WDSF", "", 1))
		if subtitle != "" {
			title += " " + subtitle
		}
	}

	contest := competition.Contest{Title: title, Results: map[string]int{}}
	doc.Find(".list").Each(func(_ int, heat *goquery.Selection) {
		heat.Find("tbody > tr").Each(func(_ int, row *goquery.Selection) {
			digits := leadingDigits.FindString(strings.TrimSpace(row.Find("td:nth-child(1)").Text()))
			rank, err := strconv.Atoi(digits)
			if err != nil {
				// excused or no-show couple
				return
			}
			name := normalize.TitleCase(normalize.FoldDiacritics(row.Find("td:nth-child(2)").Text()))
			if _, known := contest.Results[name]; !known {
				contest.Results[name] = rank
			}
		})
	})
	return contest, true, nil
}
