package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"pulse/internal/domain/pulse"
)

const (
	hnAPIBase = "https://hacker-news.firebaseio.com/v0"
	hnItemURL = "https://news.ycombinator.com/item?id="
)

// hnItem is the Hacker News Firebase API item payload.
type hnItem struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Text        string `json:"text"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}

// HackerNewsClient fetches top stories from the official Hacker News
// Firebase API and converts them to RawPosts. Responses are cached for a
// short TTL so repeated computations don't hammer the API.
type HackerNewsClient struct {
	httpClient *http.Client
	baseURL    string
	itemURL    string
	cacheTTL   time.Duration

	mu          sync.Mutex
	cachedPosts []pulse.RawPost
	cachedAt    time.Time
	cachedLimit int
}

// HackerNewsOption customizes the client.
type HackerNewsOption func(*HackerNewsClient)

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(baseURL string) HackerNewsOption {
	return func(c *HackerNewsClient) { c.baseURL = baseURL }
}

// WithItemURL overrides the discussion URL prefix.
func WithItemURL(itemURL string) HackerNewsOption {
	return func(c *HackerNewsClient) { c.itemURL = itemURL }
}

// WithCacheTTL sets how long fetched posts are served from cache.
func WithCacheTTL(ttl time.Duration) HackerNewsOption {
	return func(c *HackerNewsClient) { c.cacheTTL = ttl }
}

// NewHackerNewsClient creates a new Hacker News client.
func NewHackerNewsClient(timeout time.Duration, opts ...HackerNewsOption) *HackerNewsClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &HackerNewsClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    hnAPIBase,
		itemURL:    hnItemURL,
		cacheTTL:   3 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the source identifier.
func (c *HackerNewsClient) Name() string { return "hackernews" }

// PostURL generates the HN discussion URL for a post.
func (c *HackerNewsClient) PostURL(postID string) string {
	return c.itemURL + postID
}

// FetchPosts fetches top stories, serving from cache when a recent fetch
// already covers the requested limit.
func (c *HackerNewsClient) FetchPosts(ctx context.Context, limit int) ([]pulse.RawPost, error) {
	if limit <= 0 {
		limit = 100
	}

	c.mu.Lock()
	if c.cachedPosts != nil && time.Since(c.cachedAt) < c.cacheTTL && limit <= c.cachedLimit {
		posts := c.cachedPosts
		c.mu.Unlock()
		if len(posts) > limit {
			posts = posts[:limit]
		}
		return posts, nil
	}
	c.mu.Unlock()

	ids, err := c.fetchStoryIDs(ctx, "topstories")
	if err != nil {
		return nil, err
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	posts := make([]pulse.RawPost, 0, len(ids))
	for _, id := range ids {
		item, err := c.fetchItem(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Debug().Err(err).Int("item", id).Msg("skipping unfetchable HN item")
			continue
		}
		post, ok := c.toRawPost(item)
		if !ok {
			continue
		}
		posts = append(posts, post)
	}

	c.mu.Lock()
	c.cachedPosts = posts
	c.cachedAt = time.Now()
	c.cachedLimit = limit
	c.mu.Unlock()

	return posts, nil
}

func (c *HackerNewsClient) fetchStoryIDs(ctx context.Context, endpoint string) ([]int, error) {
	var ids []int
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s.json", c.baseURL, endpoint), &ids); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	return ids, nil
}

func (c *HackerNewsClient) fetchItem(ctx context.Context, id int) (*hnItem, error) {
	var item hnItem
	if err := c.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", c.baseURL, id), &item); err != nil {
		return nil, fmt.Errorf("fetching item %d: %w", id, err)
	}
	return &item, nil
}

func (c *HackerNewsClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "pulse-app/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to HN API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HN API returned status code %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// toRawPost converts an HN item, skipping deleted, dead and non-story
// items.
func (c *HackerNewsClient) toRawPost(item *hnItem) (pulse.RawPost, bool) {
	if item == nil || item.Deleted || item.Dead || item.Type != "story" {
		return pulse.RawPost{}, false
	}

	id := fmt.Sprintf("%d", item.ID)
	post := pulse.RawPost{
		ID:           id,
		Title:        item.Title,
		Content:      item.Text, // only present for Ask HN / Show HN
		Author:       item.By,
		URL:          c.PostURL(id),
		Score:        item.Score,
		CommentCount: item.Descendants,
		Metadata: map[string]string{
			"type":         item.Type,
			"external_url": item.URL,
		},
	}
	if post.Title == "" {
		post.Title = "Untitled"
	}
	if post.Author == "" {
		post.Author = "anonymous"
	}
	if item.Time > 0 {
		t := time.Unix(item.Time, 0).UTC()
		post.PostedAt = &t
	}
	return post, true
}
