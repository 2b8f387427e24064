package game

import (
	"time"
)

// NewsItem is one entry in the galactic news feed.
type NewsItem struct {
	Headline  string    `json:"headline"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// newsFeed keeps the most recent items, newest last. It is owned by World
// and only touched under the world lock.
type newsFeed struct {
	Items []NewsItem `json:"items"`
}

func (n *newsFeed) post(headline, body string, retention int, now time.Time) NewsItem {
	item := NewsItem{
		Headline:  sanitizeInput(headline),
		Body:      sanitizeInput(body),
		CreatedAt: now.UTC(),
	}
	n.Items = append(n.Items, item)
	if retention > 0 && len(n.Items) > retention {
		n.Items = append(n.Items[:0:0], n.Items[len(n.Items)-retention:]...)
	}
	return item
}

func (n *newsFeed) recent(limit int) []NewsItem {
	if limit <= 0 || limit > len(n.Items) {
		limit = len(n.Items)
	}
	out := make([]NewsItem, limit)
	copy(out, n.Items[len(n.Items)-limit:])
	return out
}
