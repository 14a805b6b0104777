package search

import (
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/twium/twium/internal/types"
)

// Mobile search page selectors
const (
	tweetRow      = `table.tweet`
	tweetText     = `.tweet-text`
	tweetFullname = `.fullname`
	tweetUsername = `.username`
	moreLink      = `.w-button-more a`
)

var statusID = regexp.MustCompile(`/status/(\d+)`)

type resultPage struct {
	tweets []types.Tweet
	next   string
}

// parsePage extracts tweets and the absolute "load older" URL from a
// search page fetched from pageURL.
func parsePage(r io.Reader, pageURL *url.URL) (*resultPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	page := &resultPage{}
	doc.Find(tweetRow).Each(func(_ int, row *goquery.Selection) {
		href, _ := row.Attr("href")

		id, _ := row.Find(tweetText).Attr("data-id")
		if id == "" {
			if m := statusID.FindStringSubmatch(href); m != nil {
				id = m[1]
			}
		}
		if id == "" {
			return
		}

		t := types.Tweet{
			ID:           id,
			AuthorHandle: strings.TrimPrefix(strings.TrimSpace(row.Find(tweetUsername).First().Text()), "@"),
			AuthorName:   strings.TrimSpace(row.Find(tweetFullname).First().Text()),
			Content:      strings.TrimSpace(row.Find(tweetText).First().Text()),
		}
		if href != "" {
			if u, err := pageURL.Parse(href); err == nil {
				u.RawQuery = ""
				t.OriginalURL = u.String()
			}
		}
		page.tweets = append(page.tweets, t)
	})

	if href, ok := doc.Find(moreLink).First().Attr("href"); ok && href != "" {
		if u, err := pageURL.Parse(href); err == nil {
			page.next = u.String()
		}
	}

	return page, nil
}
