package readarr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultRootFolderPath = "/data/media/books"

// PostOptions carries the library settings applied when a lookup result is
// turned into an add-book request.
type PostOptions struct {
	QualityProfileID  int
	MetadataProfileID int
	RootFolderPath    string
}

// TransformLookupToPost reshapes a raw lookup item into the payload the
// add-book endpoint expects. The input is never mutated. Readarr wraps book
// results in a "book" envelope, which is unwrapped first; monitoring flags,
// profile ids, and the root folder are then filled in where the lookup left
// them unset.
func TransformLookupToPost(lookup map[string]any, opts PostOptions) (map[string]any, error) {
	book, err := deepCopyMap(lookup)
	if err != nil {
		return nil, err
	}
	if nested, ok := book["book"]; ok {
		inner, ok := nested.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("lookup result has a non-object book field")
		}
		book = inner
	}
	book["monitored"] = true

	author, _ := book["author"].(map[string]any)
	if author == nil {
		author = map[string]any{}
	}
	author["monitored"] = true
	if opts.QualityProfileID > 0 {
		author["qualityProfileId"] = opts.QualityProfileID
	}
	if opts.MetadataProfileID > 0 {
		author["metadataProfileId"] = opts.MetadataProfileID
	} else if isZeroNumber(author["metadataProfileId"]) {
		author["metadataProfileId"] = 1
	}
	if _, ok := author["addOptions"]; !ok {
		author["addOptions"] = map[string]any{
			"monitor":               "all",
			"searchForMissingBooks": true,
		}
	}
	if _, ok := author["rootFolderPath"]; !ok {
		root := strings.TrimSpace(opts.RootFolderPath)
		if root == "" {
			root = defaultRootFolderPath
		}
		author["rootFolderPath"] = root
	}
	book["author"] = author

	if _, ok := book["addOptions"]; !ok {
		book["addOptions"] = map[string]any{"searchForNewBook": true}
	}
	return book, nil
}

// CreateBook adds a book to the Readarr library and returns the created
// resource.
func (c *Client) CreateBook(ctx context.Context, book map[string]any) (map[string]any, error) {
	payload, err := json.Marshal(book)
	if err != nil {
		return nil, fmt.Errorf("encode add-book payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/v1/book", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read add-book response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("readarr add-book returned %d (latency=%v): %s",
			resp.StatusCode, latency, strings.TrimSpace(string(body)))
	}

	var created map[string]any
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("decode add-book response: %w", err)
	}
	return created, nil
}

func deepCopyMap(src map[string]any) (map[string]any, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("copy lookup result: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("copy lookup result: %w", err)
	}
	return out, nil
}

// isZeroNumber reports whether a decoded JSON value is absent or a zero
// numeric, which Readarr rejects for profile ids.
func isZeroNumber(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case float64:
		return v == 0
	case int:
		return v == 0
	}
	return false
}
