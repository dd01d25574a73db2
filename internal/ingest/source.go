package ingest

import (
	"context"
	"sync"
)

// QueueSource buffers channel posts handed over by the transport layer
// so the pull loop can drain them on its own schedule. Oldest first.
type QueueSource struct {
	mu    sync.Mutex
	posts []Post
}

func NewQueueSource() *QueueSource {
	return &QueueSource{}
}

func (q *QueueSource) Add(post Post) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.posts = append(q.posts, post)
}

func (q *QueueSource) Recent(_ context.Context, limit int) ([]Post, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := limit
	if n > len(q.posts) {
		n = len(q.posts)
	}
	out := make([]Post, n)
	copy(out, q.posts[:n])
	q.posts = q.posts[n:]
	return out, nil
}
