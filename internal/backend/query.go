package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Query builds one request against a single table. Queries are not reused;
// From returns a fresh one each time.
type Query struct {
	client  *Client
	table   string
	method  string
	selects string
	order   string
	filters url.Values
	limit   int
	single  bool
	body    any
	err     error
}

// Select names the columns to return. Relational embeddings use the API's
// nested syntax, e.g. "*, item_pedido(quantidade, produtos(id,nome,preco))".
func (q *Query) Select(cols string) *Query {
	q.selects = cols
	return q
}

// Order sorts the result by a column.
func (q *Query) Order(col string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.order = col + "." + dir
	return q
}

// Eq filters rows where col equals val.
func (q *Query) Eq(col string, val any) *Query {
	if q.filters == nil {
		q.filters = url.Values{}
	}
	q.filters.Add(col, fmt.Sprintf("eq.%v", val))
	return q
}

// Limit caps the number of rows returned.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Single requests exactly one row; the response decodes into a struct
// rather than a slice. The API errors if zero or multiple rows match.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

// Insert stages rows for a POST. The created rows are returned,
// so Do can read back backend-assigned identifiers.
func (q *Query) Insert(rows any) *Query {
	q.method = http.MethodPost
	q.body = rows
	return q
}

// Update stages a partial row for a PATCH. Combine with Eq to scope it.
func (q *Query) Update(row any) *Query {
	q.method = http.MethodPatch
	q.body = row
	return q
}

// Delete stages a DELETE. Combine with Eq to scope it.
func (q *Query) Delete() *Query {
	q.method = http.MethodDelete
	return q
}

// Do executes the query. A non-nil dest receives the decoded JSON result.
// Any failure surfaces as *Error when the backend produced one, so callers
// can inspect the backend's code and message.
func (q *Query) Do(ctx context.Context, dest any) error {
	if q.err != nil {
		return q.err
	}

	req, err := q.buildRequest(ctx)
	if err != nil {
		return err
	}

	resp, err := q.client.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if dest == nil {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

// Count executes a HEAD probe returning only the exact row count.
// Used by the health monitor; no row data crosses the wire.
func (q *Query) Count(ctx context.Context) (int64, error) {
	q.method = http.MethodHead

	req, err := q.buildRequest(ctx)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Prefer", "count=exact")

	resp, err := q.client.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, decodeError(resp)
	}

	// Content-Range: 0-24/3573, the total follows the slash.
	cr := resp.Header.Get("Content-Range")
	idx := strings.LastIndexByte(cr, '/')
	if idx < 0 {
		return 0, fmt.Errorf("backend count: missing Content-Range")
	}
	total, err := strconv.ParseInt(cr[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("backend count: bad Content-Range %q", cr)
	}
	return total, nil
}

func (q *Query) buildRequest(ctx context.Context) (*http.Request, error) {
	u, err := url.Parse(q.client.baseURL + "/rest/v1/" + q.table)
	if err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}

	params := url.Values{}
	for col, vals := range q.filters {
		for _, v := range vals {
			params.Add(col, v)
		}
	}
	if q.selects != "" {
		params.Set("select", q.selects)
	}
	if q.order != "" {
		params.Set("order", q.order)
	}
	if q.limit > 0 {
		params.Set("limit", strconv.Itoa(q.limit))
	}
	u.RawQuery = params.Encode()

	var body io.Reader
	if q.body != nil {
		b, err := json.Marshal(q.body)
		if err != nil {
			return nil, fmt.Errorf("encode backend request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, q.method, u.String(), body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("apikey", q.client.anonKey)
	req.Header.Set("Authorization", "Bearer "+q.client.anonKey)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if q.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// Writes return the affected rows so callers can read back assigned
	// identifiers and tell a no-op update/delete from a real one.
	if q.method == http.MethodPost || q.method == http.MethodPatch || q.method == http.MethodDelete {
		req.Header.Set("Prefer", "return=representation")
	}
	if q.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	return req, nil
}
