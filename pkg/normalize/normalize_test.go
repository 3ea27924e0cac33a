package normalize

import (
	"strings"
	"testing"
)

func TestFoldDiacritics(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"É", "e"},
		{"ç", "c"},
		{"  Ñandú ", "nandu"},
		{"Łódź", "lodz"},
		{"Kraków", "krakow"},
		{"J.P", "j.p"},
		{"東京", "東京"},
	}
	for _, tt := range tests {
		if got := FoldDiacritics(tt.in); got != tt.want {
			t.Errorf("FoldDiacritics(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFoldDiacriticsAndDots(t *testing.T) {
	if got := FoldDiacriticsAndDots("à.b"); got != "a b" {
		t.Fatalf("FoldDiacriticsAndDots(%q) = %q, want %q", "à.b", got, "a b")
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"aix-en-provence": "Aix-En-Provence",
		"jean claude":     "Jean Claude",
		"PARIS":           "Paris",
	}
	for in, want := range tests {
		if got := TitleCase(in); got != want {
			t.Errorf("TitleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"San Lazzaro Di Savena": "san-lazzaro-di-savena",
		"Saint-Étienne (42)":    "saint-etienne-42",
		"  Kiev ":               "kiev",
		"--":                    "",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStripParenthetical(t *testing.T) {
	if got := StripParenthetical("Illzach (68)"); got != "Illzach" {
		t.Fatalf("got %q", got)
	}
	if got := StripParenthetical("Moscow"); got != "Moscow" {
		t.Fatalf("got %q", got)
	}
}

func TestReplaceUnallowed(t *testing.T) {
	if got := ReplaceUnallowed("a b«c"); got != "a b c" {
		t.Fatalf("got %q", got)
	}
}

func TestCleanCoupleName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "surname first",
			raw:  "DUONG Patrick<br>BUI THI HUYEN Chau",
			want: "Patrick Duong - Chau Bui Thi Huyen",
		},
		{
			name: "compound given name",
			raw:  "FAUQUEUX Alain<br/>FAUQUEUX Anne-Marie",
			want: "Alain Fauqueux - Anne-Marie Fauqueux",
		},
		{
			name: "accented capitals and markup",
			raw:  "<span>LÉGIER</span> Geneviève<br />FUMAT Jean Claude",
			want: "Genevieve Legier - Jean Claude Fumat",
		},
		{
			name: "initials",
			raw:  "DUPONT J.Pierre<br>MARTIN Marie",
			want: "J Pierre Dupont - Marie Martin",
		},
		{
			name: "unknown couple",
			raw:  "Couple Inconnu",
			want: UnknownCouple,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanCoupleName(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("CleanCoupleName(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCleanCoupleNameErrors(t *testing.T) {
	for _, raw := range []string{"SOLO Dancer", "A<br>B<br>C", "<b></b><br>MARTIN Marie"} {
		_, err := CleanCoupleName(raw)
		if err == nil {
			t.Fatalf("expected error for %q", raw)
		}
		if !strings.Contains(err.Error(), raw) {
			t.Errorf("error %q should quote raw input %q", err, raw)
		}
	}
}
