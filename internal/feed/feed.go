// Package feed serializes the ordered episode list and channel metadata
// into a podcast RSS document. Episode order and text are final by the
// time they arrive here; the emitter only renders.
package feed

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"coursecast/internal/config"
	"coursecast/internal/models"
)

// guidNamespace seeds the SHA1 UUIDs derived from file IDs. Fixed so the
// same file keeps the same GUID across regenerations.
var guidNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Emitter renders the feed document.
type Emitter struct {
	channel     models.ChannelMetadata
	linkBase    string
	yearRewrite *config.YearRewrite
}

// New builds an Emitter. linkBase is prepended to each episode's file path
// to form the enclosure URL; yearRewrite, when set, substitutes the year in
// rendered publish dates only.
func New(channel models.ChannelMetadata, linkBase string, yearRewrite *config.YearRewrite) *Emitter {
	return &Emitter{channel: channel, linkBase: strings.TrimRight(linkBase, "/"), yearRewrite: yearRewrite}
}

// GUID returns the stable identifier for a file ID.
func GUID(fileID string) string {
	return uuid.NewSHA1(guidNamespace, []byte(fileID)).String()
}

// Render produces the RSS document for an already-ordered episode list.
// Identical input yields byte-identical output: lastBuildDate derives from
// the newest publish time, never from the wall clock.
func (e *Emitter) Render(episodes []models.Episode) ([]byte, error) {
	lastBuild := time.Time{}
	for _, ep := range episodes {
		if ep.PublishedAt.After(lastBuild) {
			lastBuild = ep.PublishedAt.UTC()
		}
	}

	rss := rssFeed{
		Version:  "2.0",
		AtomNS:   "http://www.w3.org/2005/Atom",
		ITunesNS: "http://www.itunes.com/dtds/podcast-1.0.dtd",
		Channel: rssChannel{
			Title:       e.channel.Title,
			Link:        e.channel.Link,
			Description: e.channel.Description,
			Language:    e.channel.Language,
			Generator:   "coursecast",
			AtomLink: rssAtomLink{
				Href: e.channel.Link,
				Rel:  "self",
				Type: "application/rss+xml",
			},
		},
	}
	if !lastBuild.IsZero() {
		rss.Channel.LastBuildDate = e.renderDate(lastBuild)
	}
	if e.channel.Author != "" {
		rss.Channel.ITunesAuthor = e.channel.Author
	}
	if e.channel.Contact != "" {
		rss.Channel.ITunesOwner = &rssOwner{Email: e.channel.Contact}
	}
	if e.channel.ArtworkURL != "" {
		rss.Channel.ITunesImage = &rssImage{Href: e.channel.ArtworkURL}
	}

	for _, ep := range episodes {
		enclosure := e.enclosureURL(ep)
		link := ep.PrimaryLink
		if link == "" {
			link = enclosure
		}

		item := rssItem{
			Title:       ep.Title,
			Link:        link,
			GUID:        rssGUID{IsPermaLink: "false", Value: GUID(ep.File.ID)},
			PubDate:     e.renderDate(ep.PublishedAt),
			Description: ep.Description,
			Enclosure: rssEnclosure{
				URL:    enclosure,
				Length: ep.SizeBytes,
				Type:   ep.File.MIMEType,
			},
		}
		if ep.DurationSeconds != nil {
			if formatted := formatDuration(*ep.DurationSeconds); formatted != "" {
				item.ITunesDuration = formatted
			}
		}
		if ep.ArtworkURL != "" {
			item.ITunesImage = &rssImage{Href: ep.ArtworkURL}
		}
		item.ITunesAuthor = ep.Author
		if item.ITunesAuthor == "" {
			item.ITunesAuthor = e.channel.Author
		}
		rss.Channel.Items = append(rss.Channel.Items, item)
	}

	output, err := xml.MarshalIndent(rss, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), output...), nil
}

// enclosureURL joins the configured base URL with the file's path segments
// and name, each escaped.
func (e *Emitter) enclosureURL(ep models.Episode) string {
	if e.linkBase == "" {
		return ""
	}
	parts := make([]string, 0, len(ep.File.FolderPath)+1)
	for _, seg := range ep.File.FolderPath {
		parts = append(parts, url.PathEscape(seg))
	}
	parts = append(parts, url.PathEscape(ep.File.Name))
	return e.linkBase + "/" + strings.Join(parts, "/")
}

// renderDate formats a publish date as RFC1123Z, applying the configured
// year rewrite to the rendered text only. Internal ordering comparisons
// never see the rewritten year.
func (e *Emitter) renderDate(t time.Time) string {
	rendered := t.Format(time.RFC1123Z)
	if e.yearRewrite == nil {
		return rendered
	}
	from := strconv.Itoa(e.yearRewrite.From)
	to := strconv.Itoa(e.yearRewrite.To)
	return strings.Replace(rendered, from, to, 1)
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	total := int64(seconds + 0.5)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

type rssFeed struct {
	XMLName  xml.Name   `xml:"rss"`
	Version  string     `xml:"version,attr"`
	AtomNS   string     `xml:"xmlns:atom,attr"`
	ITunesNS string     `xml:"xmlns:itunes,attr"`
	Channel  rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string      `xml:"title"`
	Link          string      `xml:"link"`
	Description   string      `xml:"description"`
	Language      string      `xml:"language,omitempty"`
	LastBuildDate string      `xml:"lastBuildDate,omitempty"`
	Generator     string      `xml:"generator"`
	AtomLink      rssAtomLink `xml:"atom:link"`
	ITunesAuthor  string      `xml:"itunes:author,omitempty"`
	ITunesOwner   *rssOwner   `xml:"itunes:owner,omitempty"`
	ITunesImage   *rssImage   `xml:"itunes:image,omitempty"`
	Items         []rssItem   `xml:"item"`
}

type rssAtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssOwner struct {
	Email string `xml:"itunes:email"`
}

type rssImage struct {
	Href string `xml:"href,attr"`
}

type rssItem struct {
	Title          string       `xml:"title"`
	Link           string       `xml:"link"`
	GUID           rssGUID      `xml:"guid"`
	PubDate        string       `xml:"pubDate,omitempty"`
	Description    string       `xml:"description"`
	Enclosure      rssEnclosure `xml:"enclosure"`
	ITunesDuration string       `xml:"itunes:duration,omitempty"`
	ITunesAuthor   string       `xml:"itunes:author,omitempty"`
	ITunesImage    *rssImage    `xml:"itunes:image,omitempty"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}
