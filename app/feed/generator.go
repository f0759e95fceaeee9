package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"time"

	"github.com/lysyi3m/rss-watch/app/database"
)

// Generator renders recorded hits as an RSS 2.0 channel so the hit history
// can be followed from a feed reader.
type Generator struct {
	version string
}

func NewGenerator(version string) *Generator {
	return &Generator{version: version}
}

// Run expects hits newest first.
func (g *Generator) Run(settings database.Settings, hits []database.Hit, selfLink string) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", "RSS Watch hits", 4)
	g.writeElement(&buf, "link", settings.FeedURL, 4)
	description := "Feed entries matching the configured keywords"
	if settings.FeedURL != "" {
		description = fmt.Sprintf("Entries from %s matching the configured keywords", settings.FeedURL)
	}
	g.writeElement(&buf, "description", description, 4)

	if selfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(selfLink)))
	}

	lastBuildDate := time.Now().In(time.Local)
	if len(hits) > 0 {
		lastBuildDate = hits[0].Timestamp
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("RSS-Watch/%s", g.version), 4)

	for _, hit := range hits {
		g.writeItem(&buf, hit)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, hit database.Hit) {
	buf.WriteString("    <item>\n")

	buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"false\">hit-%d</guid>\n", hit.ID))
	g.writeElement(buf, "title", hit.Title, 6)
	g.writeElement(buf, "link", hit.Link, 6)
	g.writeElement(buf, "description", fmt.Sprintf("Matched keyword: %s", hit.MatchedKeyword), 6)
	g.writeElement(buf, "category", hit.MatchedKeyword, 6)
	g.writeElement(buf, "pubDate", hit.Timestamp.Format(time.RFC1123Z), 6)

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
