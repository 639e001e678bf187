package readarr

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Query carries the identifiers available for one lookup.
type Query struct {
	GoodreadsID string
	ISBN13      string
	ISBN10      string
	Author      string
}

// Result is the outcome of a lookup chain.
type Result struct {
	Found      bool
	EntityType string
	APIID      string
	Extra      map[string]any
}

// Lookup tries each identifier in a fixed order and returns the first match:
// Goodreads ID, then ISBN-13, then ISBN-10, then an author name search.
// Identifier matches report entity type "book"; an author-search match
// reports "author" when the item carries a foreignAuthorId key.
//
// A failed search term does not stop the chain. When every term has been
// tried without a match, the run reports not-found, or an error if at least
// one term could not be searched. Progress lines are written to trace.
func Lookup(ctx context.Context, searcher Searcher, query Query, trace io.Writer) (Result, error) {
	if trace == nil {
		trace = io.Discard
	}

	attempts := []struct {
		term         string
		label        string
		authorSearch bool
	}{
		{query.GoodreadsID, "Goodreads ID", false},
		{query.ISBN13, "ISBN-13", false},
		{query.ISBN10, "ISBN-10", false},
		{query.Author, "author search", true},
	}

	var failures []string
	for _, attempt := range attempts {
		term := strings.TrimSpace(attempt.term)
		if term == "" {
			continue
		}
		fmt.Fprintf(trace, "  -> Trying %s: %s\n", attempt.label, term)

		items, err := searcher.Search(ctx, term)
		if err != nil {
			fmt.Fprintf(trace, "  -> API error: %v\n", err)
			failures = append(failures, fmt.Sprintf("%s: %v", attempt.label, err))
			continue
		}

		apiID, item, ok := pickFirst(items)
		if !ok {
			fmt.Fprintf(trace, "  -> No results for %s\n", attempt.label)
			continue
		}

		entityType := "book"
		if attempt.authorSearch {
			if _, hasKey := item["foreignAuthorId"]; hasKey {
				entityType = "author"
			}
		}
		fmt.Fprintf(trace, "  -> Found via %s\n", attempt.label)
		return Result{Found: true, EntityType: entityType, APIID: apiID, Extra: item}, nil
	}

	fmt.Fprintln(trace, "  -> No matches found after trying all available search values")
	if len(failures) > 0 {
		return Result{}, fmt.Errorf("search failed: %s", strings.Join(failures, "; "))
	}
	return Result{}, nil
}

// pickFirst extracts a usable id from the first search result only. Later
// entries are never consulted.
func pickFirst(items []map[string]any) (string, map[string]any, bool) {
	if len(items) == 0 {
		return "", nil, false
	}
	first := items[0]
	for _, key := range []string{"foreignBookId", "foreignAuthorId", "foreignId"} {
		if id := idString(first[key]); id != "" {
			return id, first, true
		}
	}
	return "", nil, false
}

func idString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
