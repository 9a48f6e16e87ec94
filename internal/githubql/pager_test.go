package githubql

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCollectAll(t *testing.T) {
	t.Parallel()

	t.Run("single_page_stops_without_next_page", func(t *testing.T) {
		t.Parallel()

		calls := 0
		nodes, err := CollectAll(context.Background(), 50, func(_ context.Context, after *string) (Page[int], error) {
			calls++
			if after != nil {
				t.Fatalf("first call should have nil cursor, got %q", *after)
			}
			return Page[int]{Nodes: []int{1, 2, 3}, PageInfo: PageInfo{HasNextPage: false}}, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}
		if len(nodes) != 3 {
			t.Fatalf("expected 3 nodes, got %d", len(nodes))
		}
	})

	t.Run("cursor_advances_between_pages", func(t *testing.T) {
		t.Parallel()

		var cursors []string
		_, err := CollectAll(context.Background(), 50, func(_ context.Context, after *string) (Page[int], error) {
			if after != nil {
				cursors = append(cursors, *after)
			}
			page := Page[int]{Nodes: []int{1}, PageInfo: PageInfo{
				HasNextPage: len(cursors) < 2,
				EndCursor:   fmt.Sprintf("cursor-%d", len(cursors)),
			}}
			return page, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"cursor-0", "cursor-1"}
		if len(cursors) != len(want) {
			t.Fatalf("expected cursors %v, got %v", want, cursors)
		}
		for i := range want {
			if cursors[i] != want[i] {
				t.Fatalf("expected cursors %v, got %v", want, cursors)
			}
		}
	})

	t.Run("terminates_at_cap_despite_perpetual_next_page", func(t *testing.T) {
		t.Parallel()

		calls := 0
		nodes, err := CollectAll(context.Background(), 50, func(context.Context, *string) (Page[int], error) {
			calls++
			page := Page[int]{PageInfo: PageInfo{HasNextPage: true, EndCursor: "more"}}
			for i := 0; i < 10; i++ {
				page.Nodes = append(page.Nodes, i)
			}
			return page, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 5 {
			t.Fatalf("expected 5 calls for cap 50 at 10 per page, got %d", calls)
		}
		if len(nodes) != 50 {
			t.Fatalf("expected 50 nodes, got %d", len(nodes))
		}
	})

	t.Run("cap_is_soft_final_page_overshoots", func(t *testing.T) {
		t.Parallel()

		nodes, err := CollectAll(context.Background(), 5, func(context.Context, *string) (Page[int], error) {
			page := Page[int]{PageInfo: PageInfo{HasNextPage: true, EndCursor: "more"}}
			for i := 0; i < 10; i++ {
				page.Nodes = append(page.Nodes, i)
			}
			return page, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(nodes) != 10 {
			t.Fatalf("expected final page to overshoot to 10 nodes, got %d", len(nodes))
		}
	})

	t.Run("error_aborts_without_partial_result", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		calls := 0
		nodes, err := CollectAll(context.Background(), 50, func(context.Context, *string) (Page[int], error) {
			calls++
			if calls == 2 {
				return Page[int]{}, boom
			}
			return Page[int]{Nodes: []int{1}, PageInfo: PageInfo{HasNextPage: true, EndCursor: "next"}}, nil
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected wrapped boom error, got %v", err)
		}
		if nodes != nil {
			t.Fatalf("expected nil nodes on error, got %v", nodes)
		}
	})
}
