package queue

import (
	"sync"
)

// Queue is an ordered queue of profile links. Links are handed out in the
// order they were added and duplicates are kept.
type Queue struct {
	links   []string
	taken   int
	visited map[string]int
	mu      sync.Mutex
}

// New creates a Queue holding links
func New(links ...string) *Queue {
	q := &Queue{visited: make(map[string]int)}
	q.links = append(q.links, links...)
	return q
}

// Next returns the next link and records the visit
func (q *Queue) Next() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.taken >= len(q.links) {
		return "", false
	}

	link := q.links[q.taken]
	q.taken++
	q.visited[link]++

	return link, true
}

// Visits returns how many times link has been handed out
func (q *Queue) Visits(link string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.visited[link]
}

// Len returns the number of links not yet handed out
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.links) - q.taken
}

// Total returns the number of links the queue was created with
func (q *Queue) Total() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.links)
}

// Remaining returns a copy of the links not yet handed out
func (q *Queue) Remaining() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.links)-q.taken)
	copy(out, q.links[q.taken:])
	return out
}
