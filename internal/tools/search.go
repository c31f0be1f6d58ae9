package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"nebula/pkg/logger"
)

const (
	searchEndpoint = "https://www.googleapis.com/customsearch/v1"

	// DefaultSearchResults is how many results a search returns unless
	// the caller asks for fewer. The API caps num at 10.
	DefaultSearchResults = 5
	maxSearchResults     = 10

	// NotConfiguredMessage is returned when search credentials are absent.
	NotConfiguredMessage = "❌ Google Search is not configured. Please set GOOGLE_SEARCH_API_KEY and GOOGLE_SEARCH_ENGINE_ID in .env file."
)

// SearchClient performs web searches through the Google Custom Search
// JSON API.
type SearchClient struct {
	apiKey     string
	engineID   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewSearchClient creates a search client. Empty credentials are
// allowed; searches then degrade to a fixed "not configured" message.
func NewSearchClient(apiKey, engineID string) *SearchClient {
	return &SearchClient{
		apiKey:   apiKey,
		engineID: engineID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.Get(),
	}
}

// Configured reports whether both credentials are present.
func (c *SearchClient) Configured() bool {
	return c.apiKey != "" && c.engineID != ""
}

type searchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search runs a query and formats the results as a readable list.
// It always returns a string; every failure mode degrades to a message.
func (c *SearchClient) Search(ctx context.Context, query string, numResults int) string {
	if !c.Configured() {
		return NotConfiguredMessage
	}

	if numResults <= 0 {
		numResults = DefaultSearchResults
	}
	if numResults > maxSearchResults {
		numResults = maxSearchResults
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(numResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Sprintf("❌ Error performing search: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Sprintf("❌ Error performing search: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Search request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("query", query),
		)
		return fmt.Sprintf("❌ Search failed with status code: %d", resp.StatusCode)
	}

	var data searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return fmt.Sprintf("❌ Error performing search: %v", err)
	}

	if len(data.Items) == 0 {
		return fmt.Sprintf("🔍 No results found for: **%s**", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 **Search Results for:** %s\n\n", query)
	for i, item := range data.Items {
		if i >= numResults {
			break
		}
		fmt.Fprintf(&b, "**%d. %s**\n", i+1, item.Title)
		fmt.Fprintf(&b, "%s\n", item.Snippet)
		fmt.Fprintf(&b, "🔗 %s\n\n", item.Link)
	}
	return b.String()
}
