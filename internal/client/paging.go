package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/xenking/salesledger/internal/domain/page"
)

// list fetches one page from a list endpoint whose data object holds the
// items under key next to a pagination block.
func list[D any, T any](ctx context.Context, c *Client, path, key string, q url.Values, conv func(D) T) (*page.Result[T], error) {
	var raw map[string]json.RawMessage
	if err := c.call(ctx, http.MethodGet, path, q, nil, &raw); err != nil {
		return nil, errors.Wrapf(err, "list %s", key)
	}

	var items []D
	if b, ok := raw[key]; ok {
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, errors.Wrapf(err, "decode %s", key)
		}
	}
	res := &page.Result[T]{Items: make([]T, len(items))}
	for i, it := range items {
		res.Items[i] = conv(it)
	}
	if b, ok := raw["pagination"]; ok {
		if err := json.Unmarshal(b, &res.Pagination); err != nil {
			return nil, errors.Wrap(err, "decode pagination")
		}
	}
	return res, nil
}

// exec runs a request whose response body is not needed.
func (c *Client) exec(ctx context.Context, method, path, op string) error {
	if err := c.call(ctx, method, path, nil, nil, nil); err != nil {
		return errors.Wrapf(err, "%s %s", op, path)
	}
	return nil
}

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}

func pageValues(q page.Query) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}
