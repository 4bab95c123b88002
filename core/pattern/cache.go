package pattern

import "sync"

// Key identifies a compiled matcher: one per chain position of a route.
type Key struct {
	Method   string
	Template string
	Index    int
}

// Cache memoizes matchers. Concurrent callers may compile the same key
// twice; the first stored matcher wins and both results are equivalent.
type Cache struct {
	m sync.Map
}

// Get returns the cached matcher for key, calling compile on a miss.
func (c *Cache) Get(key Key, compile func() Matcher) Matcher {
	if v, ok := c.m.Load(key); ok {
		return v.(Matcher)
	}
	actual, _ := c.m.LoadOrStore(key, compile())
	return actual.(Matcher)
}

// Len returns the number of cached matchers.
func (c *Cache) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Clear drops every cached matcher.
func (c *Cache) Clear() {
	c.m.Clear()
}

// Delete drops the matcher cached for key.
func (c *Cache) Delete(key Key) {
	c.m.Delete(key)
}
