// Package rest implements the feature store contract against a feature
// service HTTP endpoint (schema document, paged query, batched add/delete).
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dbsmedya/featsync/internal/config"
	"github.com/dbsmedya/featsync/internal/feature"
	"github.com/dbsmedya/featsync/internal/logger"
	"github.com/dbsmedya/featsync/internal/store"
)

// Client is a feature-service HTTP client. Pagination, batching, and retry
// of transient failures are handled here; callers see one logical call per
// store operation.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	proc       config.ProcessingConfig
	maxRetries uint64
	logger     *logger.Logger
	schema     *store.Schema
	name       string
}

// New creates a client for the configured endpoint.
func New(name string, cfg *config.RESTConfig, proc config.ProcessingConfig, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("rest config is nil")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := uint64(cfg.MaxRetries)
	if cfg.MaxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		proc:       proc,
		maxRetries: maxRetries,
		logger:     log.WithStore(name),
		name:       name,
	}, nil
}

// statusError marks an HTTP-level failure so retry logic can distinguish
// transient server errors from permanent client errors.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("feature service returned HTTP %d: %s", e.code, e.body)
}

// serviceError is an application-level error document returned with HTTP 200.
type serviceError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// do performs one HTTP call with retry on transient failures (network
// errors and HTTP 5xx). HTTP 4xx and service error documents are permanent.
func (c *Client) do(ctx context.Context, method, endpoint string, form url.Values) ([]byte, error) {
	var body []byte

	operation := func() error {
		req, err := c.buildRequest(ctx, method, endpoint, form)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request to %s store failed: %w", c.name, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response from %s store: %w", c.name, err)
		}

		if resp.StatusCode >= 500 {
			return &statusError{code: resp.StatusCode, body: truncate(string(data))}
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(&statusError{code: resp.StatusCode, body: truncate(string(data))})
		}

		// Feature services report application errors inside a 200 body.
		var errDoc struct {
			Error *serviceError `json:"error"`
		}
		if err := json.Unmarshal(data, &errDoc); err == nil && errDoc.Error != nil {
			return backoff.Permanent(fmt.Errorf("%s store error %d: %s", c.name, errDoc.Error.Code, errDoc.Error.Message))
		}

		body = data
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) buildRequest(ctx context.Context, method, endpoint string, form url.Values) (*http.Request, error) {
	form.Set("f", "json")
	if c.token != "" {
		form.Set("token", c.token)
	}

	if method == http.MethodGet {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+form.Encode(), nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

func truncate(s string) string {
	const max = 200
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// Schema fetches the service definition. The result is cached for the
// lifetime of the client.
func (c *Client) Schema(ctx context.Context) (*store.Schema, error) {
	if c.schema != nil {
		return c.schema, nil
	}

	body, err := c.do(ctx, http.MethodGet, c.baseURL, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s store schema: %w", c.name, err)
	}

	var def struct {
		ObjectIDField string `json:"objectIdField"`
		Fields        []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(body, &def); err != nil {
		return nil, fmt.Errorf("failed to decode %s store schema: %w", c.name, err)
	}
	if def.ObjectIDField == "" {
		return nil, fmt.Errorf("%s store definition has no objectIdField", c.name)
	}

	fields := make([]string, 0, len(def.Fields))
	for _, f := range def.Fields {
		fields = append(fields, f.Name)
	}

	c.schema = &store.Schema{IDField: def.ObjectIDField, Fields: fields}
	return c.schema, nil
}

// QueryAll fetches every record with the given fields, paging through the
// service with resultOffset. Requested fields are validated against the
// schema first so an unknown field surfaces as a *store.FieldError.
func (c *Client) QueryAll(ctx context.Context, fields []string) ([]feature.Record, error) {
	schema, err := c.Schema(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if !schema.HasField(f) {
			return nil, &store.FieldError{Field: f, Store: c.name}
		}
	}

	pageSize := c.proc.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}

	var records []feature.Record
	offset := 0

	for {
		form := url.Values{}
		form.Set("where", "1=1")
		form.Set("outFields", strings.Join(fields, ","))
		form.Set("resultOffset", strconv.Itoa(offset))
		form.Set("resultRecordCount", strconv.Itoa(pageSize))

		body, err := c.do(ctx, http.MethodPost, c.baseURL+"/query", form)
		if err != nil {
			return nil, fmt.Errorf("query on %s store failed: %w", c.name, err)
		}

		page, err := decodeFeatures(body, fields)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s store query response: %w", c.name, err)
		}

		records = append(records, page...)
		if len(page) < pageSize {
			break
		}
		offset += len(page)
	}

	c.logger.Debugf("Fetched %d records from feature service", len(records))
	return records, nil
}

// decodeFeatures builds records from a query response, ordering attributes
// per the requested field list. Attributes the service did not return for a
// record are omitted rather than set to nil.
func decodeFeatures(body []byte, fields []string) ([]feature.Record, error) {
	var result struct {
		Features []struct {
			Attributes map[string]json.RawMessage `json:"attributes"`
		} `json:"features"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	records := make([]feature.Record, 0, len(result.Features))
	for _, f := range result.Features {
		rec := feature.NewRecord()
		for _, name := range fields {
			raw, ok := f.Attributes[name]
			if !ok {
				continue
			}
			v, err := decodeValue(raw)
			if err != nil {
				return nil, err
			}
			rec.Set(name, v)
		}
		records = append(records, rec)
	}
	return records, nil
}

// decodeValue decodes one attribute value, mapping integral JSON numbers to
// int64 so uid values index identically across store implementations.
func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	if num, ok := v.(json.Number); ok {
		if i, err := num.Int64(); err == nil {
			return i, nil
		}
		return num.Float64()
	}
	return v, nil
}

// QueryIDs fetches the internal id of every record, used by the optional
// post-insert verification step.
func (c *Client) QueryIDs(ctx context.Context) ([]any, error) {
	schema, err := c.Schema(ctx)
	if err != nil {
		return nil, err
	}

	records, err := c.QueryAll(ctx, []string{schema.IDField})
	if err != nil {
		return nil, err
	}

	ids := make([]any, 0, len(records))
	for _, rec := range records {
		if id, ok := rec.Get(schema.IDField); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// InsertBatch adds records via the addFeatures operation, chunked by the
// configured insert batch size. Any unsuccessful row fails the whole call.
func (c *Client) InsertBatch(ctx context.Context, records []feature.Record) error {
	if len(records) == 0 {
		return nil
	}

	batchSize := c.proc.InsertBatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := c.addChunk(ctx, records[start:end]); err != nil {
			return err
		}
	}

	c.logger.Debugf("Inserted %d records into feature service", len(records))
	return nil
}

func (c *Client) addChunk(ctx context.Context, records []feature.Record) error {
	payload := make([]map[string]json.RawMessage, 0, len(records))
	for _, rec := range records {
		attrs, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		payload = append(payload, map[string]json.RawMessage{"attributes": attrs})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode add payload: %w", err)
	}

	form := url.Values{}
	form.Set("features", string(data))

	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/addFeatures", form)
	if err != nil {
		return fmt.Errorf("add on %s store failed: %w", c.name, err)
	}

	return checkEditResults(body, "addResults", c.name)
}

// DeleteBatch deletes records by internal id via the deleteFeatures
// operation, chunked by the configured delete batch size.
func (c *Client) DeleteBatch(ctx context.Context, ids []any) error {
	if len(ids) == 0 {
		return nil
	}

	batchSize := c.proc.DeleteBatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}

		parts := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			parts = append(parts, fmt.Sprint(id))
		}

		form := url.Values{}
		form.Set("objectIds", strings.Join(parts, ","))

		body, err := c.do(ctx, http.MethodPost, c.baseURL+"/deleteFeatures", form)
		if err != nil {
			return fmt.Errorf("delete on %s store failed: %w", c.name, err)
		}
		if err := checkEditResults(body, "deleteResults", c.name); err != nil {
			return err
		}
	}

	c.logger.Debugf("Deleted %d ids from feature service", len(ids))
	return nil
}

// checkEditResults fails the whole batch when any per-row edit result
// reports failure.
func checkEditResults(body []byte, key, name string) error {
	var result map[string][]struct {
		Success bool          `json:"success"`
		Error   *serviceError `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to decode edit response: %w", err)
	}

	for i, row := range result[key] {
		if !row.Success {
			msg := "unknown error"
			if row.Error != nil {
				msg = row.Error.Message
			}
			return fmt.Errorf("%s row %d failed on %s store: %s", key, i, name, msg)
		}
	}
	return nil
}
