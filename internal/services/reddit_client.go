package services

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/storyreel/backend/internal/apperrors"
	"go.uber.org/zap"
)

// RedditClient fetches a post's title and body for campaigns that target
// specific reddit URLs instead of whole subreddits. The scraped text becomes
// the customStory payload of the generation request.
type RedditClient struct {
	httpClient *http.Client
	log        *zap.Logger
}

func NewRedditClient(timeout time.Duration, log *zap.Logger) *RedditClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RedditClient{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

var subredditRE = regexp.MustCompile(`/r/([^/]+)/`)

// SubredditFromURL extracts the subreddit segment of a post URL, or "" when
// the URL has none.
func SubredditFromURL(postURL string) string {
	m := subredditRE.FindStringSubmatch(postURL)
	if len(m) != 2 {
		return ""
	}
	return m[1]
}

// FetchStory scrapes title, body and author from a reddit post page. The
// old.reddit markup is stable enough to parse; failures surface as upstream
// errors and are recorded per batch item, never failing the sibling requests.
func (c *RedditClient) FetchStory(ctx context.Context, postURL string) (*CustomStory, error) {
	url := toOldReddit(postURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Upstream(err, "reddit fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Upstream(nil, "reddit returned %d for %s", resp.StatusCode, postURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, apperrors.Upstream(err, "reddit page parse failed")
	}

	story := parseStory(doc)
	if story.Title == "" {
		return nil, apperrors.Upstream(nil, "no post found at %s", postURL)
	}
	if story.Subreddit == "" {
		story.Subreddit = SubredditFromURL(postURL)
	}
	return story, nil
}

// parseStory pulls the post fields out of an old.reddit post page.
func parseStory(doc *goquery.Document) *CustomStory {
	story := &CustomStory{}

	entry := doc.Find("div.thing.link").First()
	story.Title = strings.TrimSpace(entry.Find("a.title").First().Text())
	if story.Title == "" {
		story.Title = strings.TrimSpace(doc.Find("a.title").First().Text())
	}

	story.Author = strings.TrimSpace(entry.Find("a.author").First().Text())
	if story.Author == "" {
		story.Author = strings.TrimSpace(doc.Find("a.author").First().Text())
	}

	if sub, ok := entry.Attr("data-subreddit"); ok {
		story.Subreddit = sub
	}

	var paragraphs []string
	doc.Find("div.expando div.usertext-body p, div.thing.link div.usertext-body p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	story.Story = strings.Join(paragraphs, "\n\n")

	return story
}

func toOldReddit(postURL string) string {
	url := strings.Replace(postURL, "://www.reddit.com", "://old.reddit.com", 1)
	return strings.Replace(url, "://reddit.com", "://old.reddit.com", 1)
}
