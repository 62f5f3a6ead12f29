package dto

import "github.com/storyreel/backend/internal/schedule"

type AuthTokenRequest struct {
	APIKey string `json:"api_key"`
}

type CreateCampaignRequest struct {
	Name             string            `json:"name"`
	Schedule         schedule.Schedule `json:"schedule"`
	Sources          []string          `json:"sources"`
	Subreddits       []string          `json:"subreddits"`
	RedditURLs       []string          `json:"reddit_urls"`
	UseRedditURLs    bool              `json:"use_reddit_urls"`
	Backgrounds      []string          `json:"backgrounds"`
	Voices           []string          `json:"voices"`
	VideosPerBatch   int               `json:"videos_per_batch"`
	AutoPostToTikTok bool              `json:"auto_post_to_tiktok"`
}

// UpdateCampaignRequest is a partial update; absent fields keep their stored
// values.
type UpdateCampaignRequest struct {
	Name             *string            `json:"name"`
	Schedule         *schedule.Schedule `json:"schedule"`
	Sources          *[]string          `json:"sources"`
	Subreddits       *[]string          `json:"subreddits"`
	RedditURLs       *[]string          `json:"reddit_urls"`
	UseRedditURLs    *bool              `json:"use_reddit_urls"`
	Backgrounds      *[]string          `json:"backgrounds"`
	Voices           *[]string          `json:"voices"`
	VideosPerBatch   *int               `json:"videos_per_batch"`
	AutoPostToTikTok *bool              `json:"auto_post_to_tiktok"`
}

type GenerateBatchRequest struct {
	CampaignID string `json:"campaign_id"`
}
