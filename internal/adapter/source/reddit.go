package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pulse/internal/domain/pulse"
)

// redditPost is the subset of the Reddit listing payload we consume.
type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Permalink   string  `json:"permalink"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Subreddit   string  `json:"subreddit"`
	Created     float64 `json:"created_utc"`
	SelfText    string  `json:"selftext"`
	Author      string  `json:"author"`
}

// redditResponse is the envelope of the Reddit listing API.
type redditResponse struct {
	Kind string `json:"kind"`
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string     `json:"kind"`
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// RedditClient fetches top posts from a subreddit and converts them to
// RawPosts. It exists to prove the source seam: the pipeline never knows
// which platform the posts came from.
type RedditClient struct {
	httpClient *http.Client
	baseURL    string
	subreddit  string
}

// NewRedditClient creates a Reddit client for the given subreddit
// (r/popular when empty).
func NewRedditClient(subreddit string, timeout time.Duration) *RedditClient {
	if subreddit == "" {
		subreddit = "popular"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RedditClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://www.reddit.com",
		subreddit:  subreddit,
	}
}

// Name returns the source identifier.
func (c *RedditClient) Name() string { return "reddit" }

// PostURL generates the Reddit discussion URL for a post.
func (c *RedditClient) PostURL(postID string) string {
	return fmt.Sprintf("%s/comments/%s", c.baseURL, postID)
}

// FetchPosts fetches the subreddit's top posts of the day.
func (c *RedditClient) FetchPosts(ctx context.Context, limit int) ([]pulse.RawPost, error) {
	if limit <= 0 {
		limit = 25
	}

	url := fmt.Sprintf("%s/r/%s/top.json?limit=%d&t=day", c.baseURL, c.subreddit, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// Reddit rate-limits default user agents aggressively.
	req.Header.Set("User-Agent", "pulse-app/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Reddit API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Reddit API returned status code %d", resp.StatusCode)
	}

	var listing redditResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode Reddit response: %w", err)
	}

	posts := make([]pulse.RawPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		rp := child.Data
		if rp.ID == "" {
			continue
		}
		post := pulse.RawPost{
			ID:           rp.ID,
			Title:        rp.Title,
			Content:      rp.SelfText,
			Author:       rp.Author,
			URL:          c.baseURL + rp.Permalink,
			Score:        rp.Score,
			CommentCount: rp.NumComments,
			Metadata:     map[string]string{"subreddit": rp.Subreddit},
		}
		if rp.Created > 0 {
			t := time.Unix(int64(rp.Created), 0).UTC()
			post.PostedAt = &t
		}
		posts = append(posts, post)
	}
	return posts, nil
}
