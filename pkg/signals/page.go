package signals

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/pemistahl/lingua-go"
)

// PageContext is the document-level context computed once per scan and
// shared by every control's signal bundle.
type PageContext struct {
	URL      string
	Title    string
	SiteName string
	Byline   string
	Headings []string
	// Language is the ISO 639-1 code lingua detected for the page text,
	// or "" when detection was inconclusive. The context scoring tier
	// only applies to English pages because its keyword tables are
	// English.
	Language string
}

var languageDetector = lingua.NewLanguageDetectorBuilder().
	FromLanguages(
		lingua.English, lingua.Spanish, lingua.French, lingua.German,
		lingua.Portuguese, lingua.Italian, lingua.Dutch, lingua.Japanese,
	).
	Build()

// NewPageContext derives page-level context from a parsed document.
// Readability and language detection are best-effort: a page they choke on
// still yields title and headings from the raw document.
func NewPageContext(doc *goquery.Document, rawURL string) *PageContext {
	pc := &PageContext{URL: rawURL}

	pc.Title = strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("h1, h2, h3").Each(func(i int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" && len(text) < 200 {
			pc.Headings = append(pc.Headings, text)
		}
	})

	if html, err := doc.Html(); err == nil {
		if parsed, perr := url.Parse(rawURL); perr == nil {
			parser := readability.NewParser()
			if article, aerr := parser.Parse(strings.NewReader(html), parsed); aerr == nil {
				pc.SiteName = article.SiteName
				pc.Byline = article.Byline
				if pc.Title == "" {
					pc.Title = article.Title
				}
			}
		}
	}

	sample := pc.Title + " " + strings.Join(pc.Headings, " ")
	if len(sample) > 20 {
		if lang, ok := languageDetector.DetectLanguageOf(sample); ok {
			pc.Language = strings.ToLower(lang.IsoCode639_1().String())
		}
	}

	return pc
}

// IsEnglish reports whether the page is English or of undetected language.
// Undetected counts as English so sparse pages still get context scoring.
func (pc *PageContext) IsEnglish() bool {
	return pc == nil || pc.Language == "" || pc.Language == "en"
}
