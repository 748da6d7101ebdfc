// Package sitegen builds the HTML fragments the page composer stitches into
// the base template: a table of contents and one section per verb. Fragment
// text derived from stored records is escaped here, because the composer
// splices fragments verbatim.
package sitegen

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/verbatlas/pagegen/internal/verbstore"
)

// Person labels for the conjugation table header, in storage order.
var personLabels = []string{"yo", "tú", "él/ella", "nosotros", "vosotros", "ellos/ellas"}

// TOC renders the table-of-contents fragment: one anchor per verb.
func TOC(records []verbstore.Record) string {
	var b strings.Builder
	b.WriteString("<ul class=\"toc-list\">\n")
	for _, rec := range records {
		inf := html.EscapeString(rec.Infinitive)
		fmt.Fprintf(&b, "  <li><a href=\"#verb-%s\">%s</a></li>\n", anchorID(rec.Infinitive), inf)
	}
	b.WriteString("</ul>")
	return b.String()
}

// Sections renders the verb-section fragments, one article per record with
// its translation and conjugation tables.
func Sections(records []verbstore.Record) string {
	var b strings.Builder
	for i, rec := range records {
		if i > 0 {
			b.WriteString("\n")
		}
		writeSection(&b, rec)
	}
	return b.String()
}

func writeSection(b *strings.Builder, rec verbstore.Record) {
	fmt.Fprintf(b, "<article class=\"verb\" id=\"verb-%s\">\n", anchorID(rec.Infinitive))
	fmt.Fprintf(b, "  <h2>%s</h2>\n", html.EscapeString(rec.Infinitive))
	if rec.Translation != "" {
		fmt.Fprintf(b, "  <p class=\"translation\">%s</p>\n", html.EscapeString(rec.Translation))
	}
	if rec.Notes != "" {
		fmt.Fprintf(b, "  <p class=\"notes\">%s</p>\n", html.EscapeString(rec.Notes))
	}

	for _, tense := range sortedTenses(rec.Conjugations) {
		forms := rec.Conjugations[tense]
		fmt.Fprintf(b, "  <h3>%s</h3>\n", html.EscapeString(tense))
		b.WriteString("  <table class=\"conjugation\">\n")
		for i, form := range forms {
			person := ""
			if i < len(personLabels) {
				person = personLabels[i]
			}
			fmt.Fprintf(b, "    <tr><th>%s</th><td>%s</td></tr>\n",
				html.EscapeString(person), html.EscapeString(form))
		}
		b.WriteString("  </table>\n")
	}
	b.WriteString("</article>")
}

func sortedTenses(conjugations map[string][]string) []string {
	tenses := make([]string, 0, len(conjugations))
	for tense := range conjugations {
		tenses = append(tenses, tense)
	}
	sort.Strings(tenses)
	return tenses
}

// anchorID turns an infinitive into a stable fragment id. Spaces collapse to
// dashes and double quotes are dropped so the id is safe inside an attribute.
func anchorID(infinitive string) string {
	id := strings.ToLower(strings.TrimSpace(infinitive))
	id = strings.ReplaceAll(id, " ", "-")
	id = strings.ReplaceAll(id, "\"", "")
	return html.EscapeString(id)
}
