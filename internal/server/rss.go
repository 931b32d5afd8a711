package server

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const feedLimit = 50

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	Category    string  `xml:"category"`
	PubDate     string  `xml:"pubDate,omitempty"`
	Description string  `xml:"description"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

func (s *Server) handleFeed(c *gin.Context) {
	items, err := s.db.ListInsights("", feedLimit)
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	base := baseURL(c.Request)
	doc := rssDoc{
		Version: "2.0",
		Channel: rssChannel{
			Title:       "heartbeat insights",
			Link:        base + "/",
			Description: "Insights received from heartbeat pipeline runs",
		},
	}
	for i, it := range items {
		link := fmt.Sprintf("%s/insights/%d", base, it.ID)
		item := rssItem{
			Title:       it.Title,
			Link:        link,
			GUID:        rssGUID{IsPermaLink: true, Value: link},
			Category:    it.Category,
			Description: it.Statistics,
		}
		if it.ReceivedAt != nil {
			if t, err := time.Parse("2006-01-02 15:04:05", *it.ReceivedAt); err == nil {
				item.PubDate = t.UTC().Format(time.RFC1123Z)
				if i == 0 {
					doc.Channel.LastBuildDate = item.PubDate
				}
			}
		}
		doc.Channel.Items = append(doc.Channel.Items, item)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", append([]byte(xml.Header), out...))
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
