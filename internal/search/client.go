package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/artfolio/backend/internal/metrics"
	"github.com/elastic/go-elasticsearch/v9"
)

// Index names
const (
	IndexWorks = "works"
	IndexUsers = "users"
)

// Client wraps the Elasticsearch client with Artfolio-specific functionality
type Client struct {
	es *elasticsearch.Client
}

// NewClient creates a new Elasticsearch client
func NewClient() (*Client, error) {
	esURL := os.Getenv("ELASTICSEARCH_URL")
	if esURL == "" {
		esURL = "http://localhost:9200"
	}

	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &Client{es: es}

	// Verify connection
	_, err = es.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}

	return client, nil
}

// InitializeIndices creates the search indices with proper mappings
func (c *Client) InitializeIndices(ctx context.Context) error {
	if err := c.createWorksIndex(ctx); err != nil {
		return fmt.Errorf("failed to create works index: %w", err)
	}

	if err := c.createUsersIndex(ctx); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	return nil
}

// createWorksIndex creates the works search index with mapping
func (c *Client) createWorksIndex(ctx context.Context) error {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id": map[string]interface{}{
					"type": "keyword",
				},
				"author_id": map[string]interface{}{
					"type": "keyword",
				},
				"author_username": map[string]interface{}{
					"type": "keyword",
				},
				"title": map[string]interface{}{
					"type":     "text",
					"analyzer": "standard",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{
							"type": "keyword",
						},
					},
				},
				"description": map[string]interface{}{
					"type":     "text",
					"analyzer": "standard",
				},
				"work_type": map[string]interface{}{
					"type": "keyword",
				},
				"threads": map[string]interface{}{
					"type": "keyword",
				},
				"like_count": map[string]interface{}{
					"type": "integer",
				},
				"comment_count": map[string]interface{}{
					"type": "integer",
				},
				"created_at": map[string]interface{}{
					"type": "date",
				},
			},
		},
	}

	return c.createIndex(ctx, IndexWorks, mapping)
}

// createUsersIndex creates the users search index with mapping
func (c *Client) createUsersIndex(ctx context.Context) error {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id": map[string]interface{}{
					"type": "keyword",
				},
				"username": map[string]interface{}{
					"type":     "text",
					"analyzer": "standard",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{
							"type": "keyword",
						},
					},
				},
				"display_name": map[string]interface{}{
					"type":     "text",
					"analyzer": "standard",
				},
				"bio": map[string]interface{}{
					"type":     "text",
					"analyzer": "standard",
				},
				"created_at": map[string]interface{}{
					"type": "date",
				},
			},
		},
	}

	return c.createIndex(ctx, IndexUsers, mapping)
}

// createIndex creates an Elasticsearch index with the given mapping
func (c *Client) createIndex(ctx context.Context, indexName string, mapping map[string]interface{}) error {
	res, err := c.es.Indices.Exists([]string{indexName})
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}
	res.Body.Close()

	// If index exists (status 200), skip creation
	if res.StatusCode == 200 {
		return nil
	}

	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	res, err = c.es.Indices.Create(indexName,
		c.es.Indices.Create.WithBody(bytes.NewReader(mappingJSON)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var errResp map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&errResp); err != nil {
			return fmt.Errorf("error response [%s]", res.Status())
		}
		return fmt.Errorf("error creating index: [%s] %v", res.Status(), errResp["error"])
	}

	return nil
}

// IndexWork indexes a work document for search
func (c *Client) IndexWork(ctx context.Context, workID string, doc *WorkSearchDoc) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal work document: %w", err)
	}

	res, err := c.es.Index(IndexWorks, bytes.NewReader(body),
		c.es.Index.WithDocumentID(workID),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index work: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var errResp map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&errResp); err != nil {
			return fmt.Errorf("error response [%s]", res.Status())
		}
		return fmt.Errorf("error indexing work: [%s] %v", res.Status(), errResp["error"])
	}

	return nil
}

// IndexUser indexes a user document for search
func (c *Client) IndexUser(ctx context.Context, userID string, doc *UserSearchDoc) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal user document: %w", err)
	}

	res, err := c.es.Index(IndexUsers, bytes.NewReader(body),
		c.es.Index.WithDocumentID(userID),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index user: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var errResp map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&errResp); err != nil {
			return fmt.Errorf("error response [%s]", res.Status())
		}
		return fmt.Errorf("error indexing user: [%s] %v", res.Status(), errResp["error"])
	}

	return nil
}

// DeleteWork deletes a work document from the search index
func (c *Client) DeleteWork(ctx context.Context, workID string) error {
	res, err := c.es.Delete(IndexWorks, workID,
		c.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to delete work: %w", err)
	}
	defer res.Body.Close()

	// 404 is OK - document doesn't exist
	if res.IsError() && res.StatusCode != 404 {
		var errResp map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&errResp); err != nil {
			return fmt.Errorf("error response [%s]", res.Status())
		}
		return fmt.Errorf("error deleting work: [%s] %v", res.Status(), errResp["error"])
	}

	return nil
}

// SearchWorksResult represents a work search result
type SearchWorksResult struct {
	Works []WorkSearchHit `json:"works"`
	Total int             `json:"total"`
}

// WorkSearchHit represents a single work search hit
type WorkSearchHit struct {
	ID             string   `json:"id"`
	AuthorID       string   `json:"author_id"`
	AuthorUsername string   `json:"author_username"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	WorkType       string   `json:"work_type"`
	Threads        []string `json:"threads,omitempty"`
	LikeCount      int      `json:"like_count"`
	CommentCount   int      `json:"comment_count"`
	CreatedAt      string   `json:"created_at"`
	Score          float64  `json:"score"`
}

// SearchWorksParams contains parameters for work search
type SearchWorksParams struct {
	Query    string
	Threads  []string
	WorkType string
	Limit    int
	Offset   int
}

// SearchWorks searches for works with filters. Results are ranked by text
// relevance boosted by engagement and recency.
func (c *Client) SearchWorks(ctx context.Context, params SearchWorksParams) (*SearchWorksResult, error) {
	mustClauses := []map[string]interface{}{}
	shouldClauses := []map[string]interface{}{}

	if params.Query != "" {
		shouldClauses = append(shouldClauses,
			map[string]interface{}{
				"match": map[string]interface{}{
					"title": map[string]interface{}{
						"query":     params.Query,
						"boost":     3.0,
						"fuzziness": "AUTO",
					},
				},
			},
			map[string]interface{}{
				"match": map[string]interface{}{
					"description": map[string]interface{}{
						"query":     params.Query,
						"boost":     1.5,
						"fuzziness": "AUTO",
					},
				},
			},
			map[string]interface{}{
				"match": map[string]interface{}{
					"author_username": map[string]interface{}{
						"query": params.Query,
						"boost": 2.0,
					},
				},
			},
		)
	}

	if len(params.Threads) > 0 {
		mustClauses = append(mustClauses, map[string]interface{}{
			"terms": map[string]interface{}{
				"threads": params.Threads,
			},
		})
	}

	if params.WorkType != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"term": map[string]interface{}{
				"work_type": params.WorkType,
			},
		})
	}

	var baseQuery map[string]interface{}

	if len(shouldClauses) > 0 || len(mustClauses) > 0 {
		boolQuery := map[string]interface{}{}
		if len(mustClauses) > 0 {
			boolQuery["must"] = mustClauses
		}
		if len(shouldClauses) > 0 {
			boolQuery["should"] = shouldClauses
			boolQuery["minimum_should_match"] = 1
		}
		baseQuery = map[string]interface{}{
			"bool": boolQuery,
		}
	} else {
		baseQuery = map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	}

	scoredQuery := map[string]interface{}{
		"function_score": map[string]interface{}{
			"query": baseQuery,
			"functions": []map[string]interface{}{
				{
					"field_value_factor": map[string]interface{}{
						"field":    "like_count",
						"factor":   3.0,
						"modifier": "log1p",
					},
				},
				{
					"field_value_factor": map[string]interface{}{
						"field":    "comment_count",
						"factor":   2.0,
						"modifier": "log1p",
					},
				},
				{
					"exp": map[string]interface{}{
						"created_at": map[string]interface{}{
							"origin": "now",
							"scale":  "30d",
							"decay":  0.5,
						},
					},
					"weight": 0.5,
				},
			},
			"score_mode": "sum",
			"boost_mode": "multiply",
		},
	}

	query := map[string]interface{}{
		"query": scoredQuery,
		"from":  params.Offset,
		"size":  params.Limit,
		"sort": []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
			{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}

	return c.executeWorkSearch(ctx, query)
}

// SearchUsersResult represents an artist search result
type SearchUsersResult struct {
	Users []UserSearchHit `json:"users"`
	Total int             `json:"total"`
}

// UserSearchHit represents a single artist search hit
type UserSearchHit struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	Bio         string  `json:"bio"`
	Score       float64 `json:"score"`
}

// SearchUsers searches artist profiles by username, display name and bio
func (c *Client) SearchUsers(ctx context.Context, queryText string, limit, offset int) (*SearchUsersResult, error) {
	var baseQuery map[string]interface{}
	if queryText == "" {
		baseQuery = map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	} else {
		baseQuery = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     queryText,
				"fields":    []string{"username^3", "display_name^2", "bio"},
				"fuzziness": "AUTO",
			},
		}
	}

	query := map[string]interface{}{
		"query": baseQuery,
		"from":  offset,
		"size":  limit,
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(IndexUsers),
		c.es.Search.WithBody(bytes.NewReader(queryJSON)),
	)
	if err != nil {
		metrics.RecordSearchError(IndexUsers, "search")
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		metrics.RecordSearchError(IndexUsers, "search")
		var errResp map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&errResp); err != nil {
			return nil, fmt.Errorf("error response [%s]", res.Status())
		}
		return nil, fmt.Errorf("error searching users: [%s] %v", res.Status(), errResp["error"])
	}

	var searchResp struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string                 `json:"_id"`
				Score  float64                `json:"_score"`
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	metrics.RecordSearchQuery(IndexUsers)

	users := make([]UserSearchHit, 0, len(searchResp.Hits.Hits))
	for _, hit := range searchResp.Hits.Hits {
		user := UserSearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if username, ok := hit.Source["username"].(string); ok {
			user.Username = username
		}
		if displayName, ok := hit.Source["display_name"].(string); ok {
			user.DisplayName = displayName
		}
		if bio, ok := hit.Source["bio"].(string); ok {
			user.Bio = bio
		}
		users = append(users, user)
	}

	return &SearchUsersResult{
		Users: users,
		Total: searchResp.Hits.Total.Value,
	}, nil
}

// executeWorkSearch executes a work search query
func (c *Client) executeWorkSearch(ctx context.Context, query map[string]interface{}) (*SearchWorksResult, error) {
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(IndexWorks),
		c.es.Search.WithBody(bytes.NewReader(queryJSON)),
	)
	if err != nil {
		metrics.RecordSearchError(IndexWorks, "search")
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		metrics.RecordSearchError(IndexWorks, "search")
		var errResp map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&errResp); err != nil {
			return nil, fmt.Errorf("error response [%s]", res.Status())
		}
		return nil, fmt.Errorf("error searching works: [%s] %v", res.Status(), errResp["error"])
	}

	var searchResp struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string                 `json:"_id"`
				Score  float64                `json:"_score"`
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	metrics.RecordSearchQuery(IndexWorks)

	works := make([]WorkSearchHit, 0, len(searchResp.Hits.Hits))
	for _, hit := range searchResp.Hits.Hits {
		work := WorkSearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if authorID, ok := hit.Source["author_id"].(string); ok {
			work.AuthorID = authorID
		}
		if username, ok := hit.Source["author_username"].(string); ok {
			work.AuthorUsername = username
		}
		if title, ok := hit.Source["title"].(string); ok {
			work.Title = title
		}
		if description, ok := hit.Source["description"].(string); ok {
			work.Description = description
		}
		if workType, ok := hit.Source["work_type"].(string); ok {
			work.WorkType = workType
		}
		if threads, ok := hit.Source["threads"].([]interface{}); ok {
			work.Threads = make([]string, 0, len(threads))
			for _, t := range threads {
				if ts, ok := t.(string); ok {
					work.Threads = append(work.Threads, ts)
				}
			}
		}
		if likeCount, ok := hit.Source["like_count"].(float64); ok {
			work.LikeCount = int(likeCount)
		}
		if commentCount, ok := hit.Source["comment_count"].(float64); ok {
			work.CommentCount = int(commentCount)
		}
		if createdAt, ok := hit.Source["created_at"].(string); ok {
			work.CreatedAt = createdAt
		}

		works = append(works, work)
	}

	return &SearchWorksResult{
		Works: works,
		Total: searchResp.Hits.Total.Value,
	}, nil
}
