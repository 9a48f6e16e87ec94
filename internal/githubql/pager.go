package githubql

import "context"

// PageInfo is the cursor state reported with each page.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// Page is one page of nodes plus its cursor state.
type Page[N any] struct {
	Nodes    []N
	PageInfo PageInfo
}

// FetchPage retrieves one page. after is nil on the first call and carries
// the previous page's end cursor afterwards.
type FetchPage[N any] func(ctx context.Context, after *string) (Page[N], error)

// CollectAll accumulates nodes from successive pages until the upstream
// reports no further page or the accumulated count reaches maxItems.
//
// maxItems is a soft cap: the final page is never truncated, so the result
// may overshoot by up to one page. Callers needing an exact bound must slice
// the result themselves. The first error aborts pagination; no partial
// result is returned.
func CollectAll[N any](ctx context.Context, maxItems int, fetch FetchPage[N]) ([]N, error) {
	var nodes []N
	var after *string

	for hasNext := true; hasNext; {
		page, err := fetch(ctx, after)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, page.Nodes...)

		hasNext = page.PageInfo.HasNextPage && len(nodes) < maxItems
		cursor := page.PageInfo.EndCursor
		after = &cursor
	}
	return nodes, nil
}
