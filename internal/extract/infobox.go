// Package extract pulls structured company fields out of article content:
// the semi-structured infobox table when present, and free-form prose as a
// fallback. All pattern and synonym tables live in data, not code, so
// parsing stays a pure function from text to field map.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/wikipedia-enrich/internal/model"
)

// Founding years outside this range are treated as parse noise.
const minFoundingYear = 1600

// execSentinel routes a label to executive name/title extraction instead of
// a plain field assignment.
const execSentinel = "__executive__"

// labelSynonyms maps normalized infobox row labels to field keys. Ordered so
// the contains-fallback is deterministic; more specific labels come first.
var labelSynonyms = []struct {
	label string
	field string
}{
	{"under secretary", execSentinel},
	{"agency executive", execSentinel},
	{"key people", execSentinel},
	{"administrator", execSentinel},
	{"secretary", execSentinel},
	{"director", execSentinel},
	{"ceo", execSentinel},
	{"number of employees", model.FieldEmployees},
	{"employees", model.FieldEmployees},
	{"founded", model.FieldYearFounded},
	{"formed", model.FieldYearFounded},
	{"established", model.FieldYearFounded},
	{"creation", model.FieldYearFounded},
	{"headquarters", model.FieldHeadquarters},
	{"hq", model.FieldHeadquarters},
	{"location", model.FieldHeadquarters},
	{"industry", model.FieldIndustry},
	{"company type", model.FieldType},
	{"type", model.FieldType},
	{"revenue", model.FieldRevenue},
}

var (
	numberRe     = regexp.MustCompile(`\d[\d,]*`)
	yearRe       = regexp.MustCompile(`\b\d{4}\b`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// ParseInfobox extracts a flat field map from rendered article HTML. An
// absent or malformed infobox yields an empty map; this is the expected case
// for many articles, not an error.
func ParseInfobox(rawHTML string) model.ExtractedFields {
	fields := model.ExtractedFields{}
	if rawHTML == "" {
		return fields
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		zap.L().Debug("extract: unparseable article html", zap.Error(err))
		return fields
	}

	box := doc.Find("table.infobox").First()
	if box.Length() == 0 {
		return fields
	}

	if logo := infoboxLogo(box); logo != "" {
		fields.Set(model.FieldLogo, logo)
	}
	if site := infoboxWebsite(box); site != "" {
		fields.Set(model.FieldWebsite, site)
	}

	box.Find("tr").Each(func(_ int, row *goquery.Selection) {
		th := row.Find("th").First()
		td := row.Find("td").First()
		if th.Length() == 0 || td.Length() == 0 {
			return
		}
		label := strings.ToLower(collapseSpace(th.Text()))
		value := collapseSpace(td.Text())
		if value == "" || value == "-" || value == "—" {
			return
		}
		applyRow(fields, label, value)
	})

	return fields
}

// applyRow dispatches one label/value pair onto the field map. Later rows
// never overwrite earlier ones; the first row for a field wins.
func applyRow(fields model.ExtractedFields, label, value string) {
	field := fieldForLabel(label)
	if field == "" {
		return
	}

	if field == execSentinel {
		if !fields.Has(model.FieldCEOName) {
			name, title := executiveFromRow(label, value)
			fields.Set(model.FieldCEOName, name)
			if name != "" {
				fields.Set(model.FieldCEOTitle, title)
			}
		}
		return
	}
	if fields.Has(field) {
		return
	}

	switch field {
	case model.FieldYearFounded:
		if year := firstYear(value); year > 0 {
			fields.Set(field, year)
		}
	case model.FieldEmployees:
		if n := firstNumber(value); n > 0 {
			fields.Set(field, n)
		}
	case model.FieldType:
		fields.Set(field, normalizeCompanyType(value))
	default:
		fields.Set(field, value)
	}
}

func fieldForLabel(label string) string {
	for _, syn := range labelSynonyms {
		if label == syn.label {
			return syn.field
		}
	}
	for _, syn := range labelSynonyms {
		if strings.Contains(label, syn.label) {
			return syn.field
		}
	}
	return ""
}

// infoboxLogo finds a logo image URL: the image-labelled sub-element first,
// then any embedded image hosted on the uploads CDN.
func infoboxLogo(box *goquery.Selection) string {
	if src, ok := box.Find(".infobox-image img").First().Attr("src"); ok {
		return absoluteURL(src)
	}

	var fallback string
	box.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if ok && strings.Contains(src, "upload.wikimedia.org") {
			fallback = absoluteURL(src)
			return false
		}
		return true
	})
	return fallback
}

// infoboxWebsite pulls the official site from a URL-labelled row, falling
// back to the first external anchor that does not link back into the
// encyclopedia itself.
func infoboxWebsite(box *goquery.Selection) string {
	var site string
	box.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		label := strings.ToLower(collapseSpace(row.Find("th").First().Text()))
		if label != "website" && label != "url" {
			return true
		}
		if href, ok := row.Find("td a[href]").First().Attr("href"); ok {
			site = href
		}
		return false
	})

	if site == "" {
		box.Find("a.external[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if !isSelfLink(href) {
				site = href
				return false
			}
			return true
		})
	}

	return normalizeWebsite(site)
}

// normalizeWebsite fixes protocol-relative and bare-domain forms and rejects
// links back into the encyclopedia's own domains.
func normalizeWebsite(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || isSelfLink(raw) {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		if !strings.Contains(raw, ".") {
			return ""
		}
		return "https://" + raw
	}
	return raw
}

func isSelfLink(href string) bool {
	return strings.Contains(href, "wikipedia.org") || strings.Contains(href, "wikimedia.org") ||
		strings.Contains(href, "wiktionary.org") || strings.HasPrefix(href, "./") ||
		strings.HasPrefix(href, "#")
}

func absoluteURL(src string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return src
}

// executiveTitles orders contextual keywords by specificity; the first one
// found in the label or value wins. Default is CEO.
var executiveTitles = []struct {
	keyword string
	title   string
}{
	{"under secretary", "Under Secretary"},
	{"chairman & ceo", "Chairman & CEO"},
	{"chairman and ceo", "Chairman & CEO"},
	{"administrator", "Administrator"},
	{"secretary", "Secretary"},
	{"director", "Director"},
	{"chairman", "Chairman"},
}

var personNameRe = regexp.MustCompile(`[A-Z][A-Za-z.'\-]+(?: [A-Z][A-Za-z.'\-]+)+`)

// executiveFromRow extracts an executive name and infers a title from
// contextual keywords in the label or value.
func executiveFromRow(label, value string) (name, title string) {
	// Keep only the first listed person; trailing roles and co-executives
	// follow a parenthesis, comma, or semicolon.
	head := value
	if i := strings.IndexAny(head, "(,;"); i >= 0 {
		head = head[:i]
	}
	name = strings.TrimSpace(personNameRe.FindString(head))
	if name == "" {
		name = strings.TrimSpace(personNameRe.FindString(value))
	}

	context := strings.ToLower(label + " " + value)
	for _, et := range executiveTitles {
		if strings.Contains(context, et.keyword) {
			return name, et.title
		}
	}
	return name, "CEO"
}

// normalizeCompanyType collapses free-text company types into three fixed
// categories. Unrecognized text is dropped rather than stored raw.
func normalizeCompanyType(value string) string {
	l := strings.ToLower(value)
	switch {
	case strings.Contains(l, "public"):
		return "Company - Public"
	case strings.Contains(l, "private"):
		return "Company - Private"
	case strings.Contains(l, "government"), strings.Contains(l, "agency"), strings.Contains(l, "federal"):
		return "Government Agency"
	default:
		return ""
	}
}

// firstYear parses the first embedded four-digit number that passes the
// plausible-founding-year check. Day-of-month numbers in full dates are
// skipped by the four-digit requirement.
func firstYear(value string) int {
	now := time.Now().Year()
	for _, raw := range yearRe.FindAllString(value, -1) {
		year, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		if year >= minFoundingYear && year <= now {
			return year
		}
	}
	return 0
}

func firstNumber(value string) int {
	raw := numberRe.FindString(value)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

func collapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
