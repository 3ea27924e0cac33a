package competition

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func mustNew(t *testing.T, place string, date time.Time, url string) *Competition {
	t.Helper()
	c, err := New(Fingerprint(place, date), place, date, "WDSF", url)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRequiresID(t *testing.T) {
	_, err := New("", "Kiev", time.Now(), "WDSF", "http://example.com")
	if !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
}

func TestNewKeepsCalendarDay(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("no tzdata: %v", err)
	}
	// 00:30 in Paris is still the previous day in UTC
	c := mustNew(t, "Illzach", time.Date(2013, 2, 16, 0, 30, 0, 0, paris), "http://example.com/1313")
	want := time.Date(2013, 2, 16, 0, 0, 0, 0, time.UTC)
	if !c.Date.Equal(want) {
		t.Fatalf("date = %s, want %s", c.Date, want)
	}
	if !reflect.DeepEqual(c.DataURLs, []string{"http://example.com/1313"}) {
		t.Fatalf("unexpected data urls %#v", c.DataURLs)
	}
	if c.Contests == nil || len(c.Contests) != 0 {
		t.Fatalf("expected empty contests, got %#v", c.Contests)
	}
}

func TestFingerprint(t *testing.T) {
	tests := []struct {
		place string
		date  time.Time
		want  string
	}{
		{"Kiev", time.Date(2013, 11, 24, 0, 0, 0, 0, time.UTC), "4aee29e66d0644c811b8babaf30e3be8"},
		{"Moscow", time.Date(2013, 1, 5, 0, 0, 0, 0, time.UTC), "7d00c5480c303ae032043495a6cc7d26"},
		{"San Lazzaro Di Savena", time.Date(2013, 1, 4, 0, 0, 0, 0, time.UTC), "b38521030e81c5ddcc7cdeebbe4fe14f"},
	}
	for _, tt := range tests {
		if got := Fingerprint(tt.place, tt.date); got != tt.want {
			t.Errorf("Fingerprint(%q, %s) = %s, want %s", tt.place, tt.date.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestAddDataURL(t *testing.T) {
	c := mustNew(t, "Kiev", time.Date(2013, 11, 24, 0, 0, 0, 0, time.UTC), "a")
	if c.AddDataURL("a") {
		t.Fatal("duplicate url should not be added")
	}
	if !c.AddDataURL("b") {
		t.Fatal("new url should be added")
	}
	if c.AddDataURL("") {
		t.Fatal("empty url should not be added")
	}
	if !reflect.DeepEqual(c.DataURLs, []string{"a", "b"}) {
		t.Fatalf("unexpected data urls %#v", c.DataURLs)
	}
}

func TestMerge(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2013, 1, d, 0, 0, 0, 0, time.UTC) }
	moscowOpen := mustNew(t, "Moscow", day(5), "http://wdsf/Open-Moscow")
	grandSlam := mustNew(t, "Moscow", day(5), "http://wdsf/GrandSlam-Moscow")
	sameAgain := mustNew(t, "Moscow", day(5), "http://wdsf/Open-Moscow")
	lazzaro := mustNew(t, "San Lazzaro Di Savena", day(4), "http://wdsf/Lazzaro")

	merged := Merge([]*Competition{nil, moscowOpen, grandSlam, nil, lazzaro, sameAgain})
	if len(merged) != 2 {
		t.Fatalf("expected 2 competitions, got %d", len(merged))
	}
	if merged[0] != lazzaro || merged[1] != moscowOpen {
		t.Fatalf("unexpected order: %s, %s", merged[0].Place, merged[1].Place)
	}
	want := []string{"http://wdsf/Open-Moscow", "http://wdsf/GrandSlam-Moscow"}
	if !reflect.DeepEqual(merged[1].DataURLs, want) {
		t.Fatalf("unexpected data urls.\nwant: %#v\ngot:  %#v", want, merged[1].DataURLs)
	}
}

func TestMergeIdempotent(t *testing.T) {
	day := func(m time.Month, d int) time.Time { return time.Date(2013, m, d, 0, 0, 0, 0, time.UTC) }
	input := []*Competition{
		mustNew(t, "Kiev", day(11, 24), "http://wdsf/Kiev-World-Open"),
		mustNew(t, "Kiev", day(11, 24), "http://wdsf/Kiev-Open"),
		mustNew(t, "Paris", day(3, 2), "http://wdsf/Paris"),
		nil,
		mustNew(t, "Kiev", day(11, 24), "http://wdsf/Kiev-World-Standard"),
		mustNew(t, "Moscow", day(1, 5), "http://wdsf/Moscow"),
	}
	once := Merge(input)
	snapshot := make([]Competition, len(once))
	for i, c := range once {
		snapshot[i] = *c
		snapshot[i].DataURLs = append([]string(nil), c.DataURLs...)
	}

	twice := Merge(once)
	if len(twice) != len(once) {
		t.Fatalf("expected %d competitions, got %d", len(once), len(twice))
	}
	for i, c := range twice {
		if !reflect.DeepEqual(*c, snapshot[i]) {
			t.Fatalf("competition %d changed on second merge.\nwant: %#v\ngot:  %#v", i, snapshot[i], *c)
		}
		if i > 0 && c.Date.Before(twice[i-1].Date) {
			t.Fatalf("competitions not sorted by date at %d", i)
		}
	}
	if got := len(twice[2].DataURLs); got != 3 {
		t.Fatalf("expected Kiev to keep 3 urls, got %d", got)
	}
}

func TestRankingsOf(t *testing.T) {
	c := mustNew(t, "Kiev", time.Date(2013, 11, 24, 0, 0, 0, 0, time.UTC), "a")
	c.Contests = []Contest{
		{Title: "Junior II Latin Open", Results: map[string]int{"Leonardo Lini - Mia Gabusi": 1, "Mirco Ranieri - Sofia Beltrandi": 22}},
		{Title: "Adult Standard", Results: map[string]int{"Someone Else - Other": 3}},
	}
	got := RankingsOf([]*Competition{c}, "lini")
	want := []Ranking{{Couple: "Leonardo Lini - Mia Gabusi", Contest: "Junior II Latin Open", Kind: KindLatin, Rank: 1, Total: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected rankings.\nwant: %#v\ngot:  %#v", want, got)
	}
}

func TestDanceKind(t *testing.T) {
	tests := map[string]string{
		"Adulte Latines":        "lat",
		"Youth Standard":        "std",
		"Senior I Ten Dance":    "ten",
		"Championnat 10 danses": "ten",
		"Rock":                  "",
	}
	for title, want := range tests {
		if got := DanceKind(title); got != want {
			t.Errorf("DanceKind(%q) = %q, want %q", title, got, want)
		}
	}
}
