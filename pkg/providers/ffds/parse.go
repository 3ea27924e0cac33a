package ffds

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/palmares-dance/palmares/pkg/competition"
	"github.com/palmares-dance/palmares/pkg/normalize"
)

var numManifRegex = regexp.MustCompile(`NumManif=(\d+)$`)

// listRow is one event of the results index, before date parsing.
type listRow struct {
	id    string
	place string
	date  string
}

func load(body string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(normalize.ReplaceUnallowed(body)))
}

// queryEscape escapes like a browser does for a path component: spaces
// become %20.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func parseList(body string) ([]listRow, error) {
	doc, err := load(body)
	if err != nil {
		return nil, err
	}
	rows := []listRow{}
	doc.Find("table#tosort > tbody > tr").Each(func(_ int, line *goquery.Selection) {
		href, ok := line.Find("td:last-child a").Attr("href")
		if !ok {
			return
		}
		match := numManifRegex.FindStringSubmatch(href)
		if match == nil {
			return
		}
		cells := line.Find("td")
		place := normalize.TitleCase(strings.ToLower(strings.TrimSpace(cells.Eq(0).Text())))
		rows = append(rows, listRow{
			id:    match[1],
			place: normalize.StripParenthetical(place),
			date:  strings.TrimSpace(cells.Eq(1).Text()),
		})
	})
	return rows, nil
}

func parseContestLinks(body string) []string {
	doc, err := load(body)
	if err != nil {
		return nil
	}
	var links []string
	doc.Find("td > a").Each(func(_ int, link *goquery.Selection) {
		if href, ok := link.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	})
	return links
}

func cleanContest(title string) string {
	title = strings.Replace(title, "Compétition à points", "", 1)
	title = strings.Replace(title, "Compétition sans points", "", 1)
	return strings.TrimSpace(title)
}

// parseRanking reads a contest page. Heats are listed from the final, so
// the first rank seen for a couple wins.
func parseRanking(body string) (competition.Contest, error) {
	doc, err := load(strings.ReplaceAll(body, "</div></th>", "</th>"))
	if err != nil {
		return competition.Contest{}, err
	}
	contest := competition.Contest{
		Title:   cleanContest(doc.Find("h3").Text()),
		Results: map[string]int{},
	}

	var parseErr error
	doc.Find(".portlet").EachWithBreak(func(i int, heat *goquery.Selection) bool {
		heat.Find("tbody > tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			cell := row.Find("td:nth-child(3)")
			if cell.Length() == 0 {
				return true
			}
			raw, err := cell.Html()
			if err != nil {
				parseErr = err
				return false
			}
			names, err := normalize.CleanCoupleName(raw)
			if err != nil {
				parseErr = fmt.Errorf("failed to parse ranking %q heat %d: %w", contest.Title, i+1, err)
				return false
			}
			rank, err := strconv.Atoi(strings.TrimSpace(row.Find("td:nth-child(1)").Text()))
			if err != nil {
				return true
			}
			if _, known := contest.Results[names]; !known {
				contest.Results[names] = rank
			}
			return true
		})
		return parseErr == nil
	})
	if parseErr != nil {
		return competition.Contest{}, parseErr
	}
	return contest, nil
}

func parseGroups(body string) ([]group, error) {
	doc, err := load(body)
	if err != nil {
		return nil, err
	}
	groups := []group{}
	doc.Find("[name=club_id] option").Each(func(_ int, option *goquery.Selection) {
		id, _ := option.Attr("value")
		if id == "" {
			return
		}
		groups = append(groups, group{id: id, name: strings.TrimSpace(option.Text())})
	})
	return groups, nil
}

func parseCouples(body string) ([]string, error) {
	doc, err := load(body)
	if err != nil {
		return nil, err
	}
	couples := []string{}
	var parseErr error
	doc.Find("#tosort tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		raw := strings.Replace(strings.TrimSpace(row.Find("td:first-child").Text()), " / ", "<br>", 1)
		names, err := normalize.CleanCoupleName(raw)
		if err != nil {
			parseErr = fmt.Errorf("failed to parse couple names %q: %w", raw, err)
			return false
		}
		couples = append(couples, names)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return couples, nil
}
