package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const redditPostHTML = `<!DOCTYPE html>
<html><body>
<div class="thing link" data-subreddit="nosleep">
  <a class="title">The Door That Should Not Open</a>
  <a class="author">sleepless_author</a>
  <div class="expando">
    <div class="usertext-body">
      <p>I moved into the house last winter.</p>
      <p></p>
      <p>The door in the basement was already there.</p>
    </div>
  </div>
</div>
</body></html>`

func TestSubredditFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.reddit.com/r/nosleep/comments/abc/the_door/", "nosleep"},
		{"https://old.reddit.com/r/tifu/comments/xyz/tifu_by/", "tifu"},
		{"https://reddit.com/r/AskReddit/comments/1/q/", "AskReddit"},
		{"https://www.reddit.com/user/someone/", ""},
		{"not a url", ""},
	}
	for _, tt := range tests {
		if got := SubredditFromURL(tt.url); got != tt.want {
			t.Errorf("SubredditFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestParseStory(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(redditPostHTML))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	story := parseStory(doc)
	if story.Title != "The Door That Should Not Open" {
		t.Errorf("title = %q", story.Title)
	}
	if story.Author != "sleepless_author" {
		t.Errorf("author = %q", story.Author)
	}
	if story.Subreddit != "nosleep" {
		t.Errorf("subreddit = %q", story.Subreddit)
	}
	want := "I moved into the house last winter.\n\nThe door in the basement was already there."
	if story.Story != want {
		t.Errorf("story = %q, want %q", story.Story, want)
	}
}

func TestFetchStory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("unexpected user agent %q", ua)
		}
		_, _ = w.Write([]byte(redditPostHTML))
	}))
	defer srv.Close()

	client := NewRedditClient(5*time.Second, zap.NewNop())
	story, err := client.FetchStory(context.Background(), srv.URL+"/r/nosleep/comments/abc/the_door/")
	if err != nil {
		t.Fatalf("FetchStory error: %v", err)
	}
	if story.Title == "" || story.Story == "" {
		t.Errorf("incomplete story %+v", story)
	}
}

func TestFetchStoryUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewRedditClient(5*time.Second, zap.NewNop())
	if _, err := client.FetchStory(context.Background(), srv.URL+"/r/nosleep/comments/abc/x/"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestFetchStoryEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>nothing here</p></body></html>"))
	}))
	defer srv.Close()

	client := NewRedditClient(5*time.Second, zap.NewNop())
	if _, err := client.FetchStory(context.Background(), srv.URL+"/r/nosleep/comments/abc/x/"); err == nil {
		t.Fatal("expected error when the page has no post")
	}
}

func TestToOldReddit(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.reddit.com/r/a/comments/1/x/", "https://old.reddit.com/r/a/comments/1/x/"},
		{"https://reddit.com/r/a/comments/1/x/", "https://old.reddit.com/r/a/comments/1/x/"},
		{"https://old.reddit.com/r/a/comments/1/x/", "https://old.reddit.com/r/a/comments/1/x/"},
	}
	for _, tt := range tests {
		if got := toOldReddit(tt.in); got != tt.want {
			t.Errorf("toOldReddit(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
