package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"quill/internal/models"
)

const restPath = "/rest/v1/"

// codeNoSingleRow is the REST endpoint's error code when a single-row request
// matched zero rows.
const codeNoSingleRow = "PGRST116"

// TableQuery builds one request against a table of the remote REST endpoint.
// Builder methods mutate and return the same query; a query is used once.
type TableQuery struct {
	c       *Client
	table   string
	columns string
	filters url.Values
	order   string
	limit   int
	single  bool
}

// From starts a query against the given table.
func (c *Client) From(table string) *TableQuery {
	return &TableQuery{
		c:       c,
		table:   table,
		columns: "*",
		filters: url.Values{},
	}
}

// Select sets the columns to return.
func (q *TableQuery) Select(columns string) *TableQuery {
	q.columns = columns
	return q
}

// Eq adds an equality filter on a column.
func (q *TableQuery) Eq(column, value string) *TableQuery {
	q.filters.Add(column, "eq."+value)
	return q
}

// Order sets the ordering column. desc orders newest-first.
func (q *TableQuery) Order(column string, desc bool) *TableQuery {
	dir := "asc"
	if desc {
		dir = "desc"
	}
	q.order = column + "." + dir
	return q
}

// Limit caps the number of returned rows.
func (q *TableQuery) Limit(n int) *TableQuery {
	q.limit = n
	return q
}

// Single requests exactly one row; zero matches map to NotFound.
func (q *TableQuery) Single() *TableQuery {
	q.single = true
	return q
}

func (q *TableQuery) query() url.Values {
	values := url.Values{}
	values.Set("select", q.columns)
	for col, filters := range q.filters {
		for _, f := range filters {
			values.Add(col, f)
		}
	}
	if q.order != "" {
		values.Set("order", q.order)
	}
	if q.limit > 0 {
		values.Set("limit", strconv.Itoa(q.limit))
	}
	return values
}

// Get executes the query and decodes the result into dest.
func (q *TableQuery) Get(ctx context.Context, dest any) error {
	headers := map[string]string{}
	if q.single {
		headers["Accept"] = "application/vnd.pgrst.object+json"
	}

	status, body, _, err := q.c.doJSON(ctx, request{
		method:  http.MethodGet,
		path:    restPath + q.table,
		query:   q.query(),
		headers: headers,
		service: "rest",
	}, nil, dest)
	if err != nil {
		return err
	}
	return q.mapStatus(status, body)
}

// Count executes a head request returning only the exact row count.
func (q *TableQuery) Count(ctx context.Context) (int64, error) {
	status, body, header, err := q.c.do(ctx, request{
		method:  http.MethodHead,
		path:    restPath + q.table,
		query:   q.query(),
		headers: map[string]string{"Prefer": "count=exact"},
		service: "rest",
	})
	if err != nil {
		return 0, err
	}
	if status >= http.StatusBadRequest {
		return 0, models.NewBackendError(decodeAPIError(status, body))
	}

	// Content-Range has the form "0-24/3573"; the total follows the slash.
	contentRange := header.Get("Content-Range")
	idx := strings.LastIndex(contentRange, "/")
	if idx < 0 || idx == len(contentRange)-1 {
		return 0, models.NewBackendError(fmt.Errorf("missing count in Content-Range %q", contentRange))
	}
	count, err := strconv.ParseInt(contentRange[idx+1:], 10, 64)
	if err != nil {
		return 0, models.NewBackendError(fmt.Errorf("parsing Content-Range %q: %w", contentRange, err))
	}
	return count, nil
}

// Insert inserts a row. When dest is non-nil the created representation is
// decoded into it.
func (q *TableQuery) Insert(ctx context.Context, row, dest any) error {
	headers := map[string]string{"Prefer": "return=representation"}
	if dest != nil {
		headers["Accept"] = "application/vnd.pgrst.object+json"
		q.single = true
	} else {
		headers["Prefer"] = "return=minimal"
	}

	status, body, _, err := q.c.doJSON(ctx, request{
		method:  http.MethodPost,
		path:    restPath + q.table,
		headers: headers,
		service: "rest",
	}, row, dest)
	if err != nil {
		return err
	}
	return q.mapStatus(status, body)
}

// Update patches the rows matched by the query's filters. When dest is
// non-nil the updated representation is decoded into it.
func (q *TableQuery) Update(ctx context.Context, patch, dest any) error {
	headers := map[string]string{"Prefer": "return=representation"}
	if dest != nil {
		// Decoding the representation makes this a single-object request, so
		// a patch that matched zero rows must map to NotFound.
		headers["Accept"] = "application/vnd.pgrst.object+json"
		q.single = true
	} else {
		headers["Prefer"] = "return=minimal"
	}

	status, body, _, err := q.c.doJSON(ctx, request{
		method:  http.MethodPatch,
		path:    restPath + q.table,
		query:   q.query(),
		headers: headers,
		service: "rest",
	}, patch, dest)
	if err != nil {
		return err
	}
	return q.mapStatus(status, body)
}

// Delete removes the rows matched by the query's filters.
func (q *TableQuery) Delete(ctx context.Context) error {
	status, body, _, err := q.c.do(ctx, request{
		method:  http.MethodDelete,
		path:    restPath + q.table,
		query:   q.query(),
		headers: map[string]string{"Prefer": "return=minimal"},
		service: "rest",
	})
	if err != nil {
		return err
	}
	return q.mapStatus(status, body)
}

// idFilter returns the value of the id equality filter for error messages.
func (q *TableQuery) idFilter() string {
	return strings.TrimPrefix(q.filters.Get("id"), "eq.")
}

// mapStatus maps a REST response status to the application error taxonomy.
func (q *TableQuery) mapStatus(status int, body []byte) error {
	if status < http.StatusBadRequest {
		return nil
	}

	if status == http.StatusNotFound {
		return models.NewNotFoundError(q.table, q.idFilter())
	}
	// A single-row request that matched zero rows comes back as 406 with the
	// PGRST116 code; real content negotiation failures stay backend errors.
	if status == http.StatusNotAcceptable && q.single &&
		strings.Contains(string(body), codeNoSingleRow) {
		return models.NewNotFoundError(q.table, q.idFilter())
	}
	return models.NewBackendError(decodeAPIError(status, body))
}
