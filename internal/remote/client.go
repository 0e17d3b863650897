// Package remote implements the client for the work-tracking server's REST
// API: stored query execution, work item details and history, and the saved
// query hierarchy.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/worklens/worklens/internal/logging"
)

var remoteLog = logging.ForComponent(logging.CompRemote)

const (
	apiVersion = "7.1"

	// MaxIDsPerRequest is the server's cap on ids per details request.
	MaxIDsPerRequest = 200

	// queryDepth is the hierarchy depth per listing call. The server rejects
	// deeper expansions, which is why subtrees are loaded lazily.
	queryDepth = 2

	requestTimeout = 30 * time.Second
)

// Settings configures a Client.
type Settings struct {
	// URL is the server base URL, e.g. "https://dev.example.com".
	URL string

	// Collection is the project collection, e.g. "defaultcollection".
	Collection string

	// Project is the team project name.
	Project string

	// Token is the personal access token; sent as basic auth.
	Token string

	// RequestsPerSecond caps outgoing calls. <= 0 disables limiting.
	RequestsPerSecond float64
}

// Client talks to one work-tracking server. Safe for concurrent use.
type Client struct {
	settings   Settings
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for the given server settings.
func NewClient(settings Settings) *Client {
	var limiter *rate.Limiter
	if settings.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(settings.RequestsPerSecond), 1)
	}
	return &Client{
		settings:   settings,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    limiter,
	}
}

// collectionURL returns "{base}/{collection}".
func (c *Client) collectionURL() string {
	return strings.TrimSuffix(c.settings.URL, "/") + "/" + c.settings.Collection
}

// WorkItemURL returns the browser URL for one work item.
func (c *Client) WorkItemURL(id int) string {
	return fmt.Sprintf("%s/%s/_workitems?id=%d",
		strings.TrimSuffix(c.settings.URL, "/"), url.PathEscape(c.settings.Project), id)
}

// get performs a rate-limited GET against a project-scoped API path and
// decodes the JSON response into out.
func (c *Client) get(ctx context.Context, op, apiPath string, query url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", apiVersion)

	reqURL := fmt.Sprintf("%s/%s/_apis/%s?%s",
		c.collectionURL(), url.PathEscape(c.settings.Project), apiPath, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.settings.Token != "" {
		// PAT auth: empty user, token as password.
		req.SetBasicAuth("", c.settings.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		remoteLog.Warn("request_failed", slog.String("op", op), slog.String("error", err.Error()))
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	remoteLog.Debug("request_done",
		slog.String("op", op),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Op: op, Status: resp.StatusCode,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// ExecuteStoredQuery runs a server-stored query and returns the flat id list
// plus the display columns the query declares. Relation queries contribute
// their target ids after the flat list.
func (c *Client) ExecuteStoredQuery(ctx context.Context, queryID uuid.UUID) (*QueryResult, error) {
	var payload wiqlPayload
	if err := c.get(ctx, "execute query", "wit/wiql/"+queryID.String(), nil, &payload); err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: payload.Columns}
	for _, ref := range payload.WorkItems {
		result.IDs = append(result.IDs, ref.ID)
	}
	for _, rel := range payload.WorkItemRelations {
		if rel.Target != nil {
			result.IDs = append(result.IDs, rel.Target.ID)
		}
	}
	return result, nil
}

// FetchDetails fetches full field bags for up to MaxIDsPerRequest items.
func (c *Client) FetchDetails(ctx context.Context, ids []int) ([]WorkItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxIDsPerRequest {
		return nil, &Error{Op: "fetch details",
			Err: fmt.Errorf("batch of %d exceeds limit of %d", len(ids), MaxIDsPerRequest)}
	}

	idStrs := make([]string, len(ids))
	for i, id := range ids {
		idStrs[i] = strconv.Itoa(id)
	}
	query := url.Values{}
	query.Set("ids", strings.Join(idStrs, ","))
	query.Set("$expand", "all")

	var payload workItemListPayload
	if err := c.get(ctx, "fetch details", "wit/workitems", query, &payload); err != nil {
		return nil, err
	}

	items := make([]WorkItem, 0, len(payload.Value))
	for _, p := range payload.Value {
		items = append(items, p.toWorkItem())
	}
	return items, nil
}

// FetchHistory returns the discussion history entries for one work item,
// oldest first.
func (c *Client) FetchHistory(ctx context.Context, id int) ([]string, error) {
	var payload historyPayload
	apiPath := fmt.Sprintf("wit/workItems/%d/history", id)
	if err := c.get(ctx, "fetch history", apiPath, nil, &payload); err != nil {
		return nil, err
	}

	entries := make([]string, 0, len(payload.Value))
	for _, e := range payload.Value {
		entries = append(entries, e.Value)
	}
	return entries, nil
}

// ListTopLevelQueries fetches the root of the saved query hierarchy,
// expanded queryDepth levels deep.
func (c *Client) ListTopLevelQueries(ctx context.Context) ([]*QueryNode, error) {
	query := url.Values{}
	query.Set("$depth", strconv.Itoa(queryDepth))
	query.Set("$expand", "all")

	var payload queryListPayload
	if err := c.get(ctx, "list queries", "wit/queries", query, &payload); err != nil {
		return nil, err
	}
	return payload.Value, nil
}

// FetchQuerySubtree re-fetches one hierarchy node by path, expanded
// queryDepth levels deep.
func (c *Client) FetchQuerySubtree(ctx context.Context, path string) (*QueryNode, error) {
	query := url.Values{}
	query.Set("$depth", strconv.Itoa(queryDepth))
	query.Set("$expand", "all")

	var node QueryNode
	apiPath := "wit/queries/" + url.PathEscape(path)
	if err := c.get(ctx, "fetch query subtree", apiPath, query, &node); err != nil {
		return nil, err
	}
	return &node, nil
}
