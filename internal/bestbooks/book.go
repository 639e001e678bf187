package bestbooks

import "encoding/json"

// Book is one entry in a yearly listing. The feed carries many more fields
// per book; only the ones the tracker consumes are decoded. The cover field
// holds the book's ISBN-10, which doubles as the cover asset name upstream.
type Book struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Cover  string `json:"cover"`
}

// YearBook pairs a parsed book with the listing year it came from.
type YearBook struct {
	Year int
	Book Book
}

// decodeListing parses a listing document. The top-level payload must be a
// list; entries that are not objects or have no usable id are skipped.
func decodeListing(data []byte) ([]Book, bool) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	books := make([]Book, 0, len(entries))
	for _, entry := range entries {
		var payload struct {
			ID     *int   `json:"id"`
			Title  string `json:"title"`
			Author string `json:"author"`
			Cover  string `json:"cover"`
		}
		if err := json.Unmarshal(entry, &payload); err != nil {
			continue
		}
		if payload.ID == nil {
			continue
		}
		books = append(books, Book{
			ID:     *payload.ID,
			Title:  payload.Title,
			Author: payload.Author,
			Cover:  payload.Cover,
		})
	}
	return books, true
}
