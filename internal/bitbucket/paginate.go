package bitbucket

import (
	"bytes"
	"context"
	"encoding/json"

	logger "github.com/sirupsen/logrus"
)

// page is one response of a paginated listing.
type page struct {
	Values json.RawMessage `json:"values"`
	Next   string          `json:"next"`
}

// Paginate follows the "next" links of a listing starting at endpoint, up to
// the client's page cap. Values read before a failure, the cap or the last
// page are always returned. A response that is not a page (a bare object or
// array) is taken as the complete result.
func Paginate[T any](ctx context.Context, c *Client, endpoint string) ([]T, error) {
	var all []T
	next := c.baseURL + endpoint

	pageCount := 0
	for next != "" && pageCount < c.maxPages {
		pageCount++
		logger.Infof("Fetching page %d: %s", pageCount, next)

		body, err := c.fetch(ctx, next)
		if err != nil {
			return all, err
		}

		trimmed := bytes.TrimSpace(body)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			logger.Warnf("Expected paginated response from %s but got a list. Processing as is.", endpoint)
			var values []T
			if decodeErr := decode(next, trimmed, &values); decodeErr != nil {
				return all, decodeErr
			}
			return append(all, values...), nil
		}

		var current page
		if decodeErr := decode(next, trimmed, &current); decodeErr != nil {
			return all, decodeErr
		}

		if current.Values == nil {
			logger.Warnf("Expected paginated response from %s but got single object. Processing as is.", endpoint)
			var single T
			if decodeErr := decode(next, trimmed, &single); decodeErr != nil {
				return all, decodeErr
			}
			return append(all, single), nil
		}

		var values []T
		if decodeErr := decode(next, current.Values, &values); decodeErr != nil {
			return all, decodeErr
		}
		all = append(all, values...)
		next = current.Next
	}

	if next != "" {
		logger.Warnf("Stopped paging %s after %d pages; results may be incomplete", endpoint, c.maxPages)
	}
	return all, nil
}
