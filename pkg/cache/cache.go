// Package cache provides an LRU result cache with disk persistence.
// Analysis results are keyed by a hash of the source text plus the
// operation and its criterion, so an unchanged file never gets analyzed
// twice across runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrKeyNotFound is returned when a key is not in the cache.
var ErrKeyNotFound = errors.New("key not found")

// Result is a cached analysis outcome. Lines carries a slice result,
// Text a rewritten program, whichever the operation produced.
type Result struct {
	Lines    []int    `msgpack:"lines,omitempty"`
	Text     string   `msgpack:"text,omitempty"`
	Warnings []string `msgpack:"warnings,omitempty"`
}

func (r Result) size() int {
	n := len(r.Text) + 8*len(r.Lines)
	for _, w := range r.Warnings {
		n += len(w)
	}
	return n
}

// Key builds a cache key from the source text and the operation's
// identifying parts (operation name, function, line, column, variable).
func Key(source string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(source))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Entry is one cached result with access metadata.
type Entry struct {
	Key        string    `msgpack:"key"`
	Value      Result    `msgpack:"value"`
	AccessedAt time.Time `msgpack:"accessed_at"`
	CreatedAt  time.Time `msgpack:"created_at"`
	Size       int       `msgpack:"size"`
}

// listItem is an item in the doubly-linked list.
type listItem struct {
	Entry
	prev *listItem
	next *listItem
}

// list is a doubly-linked list with the most recently used item at the
// front.
type list struct {
	head *listItem
	tail *listItem
	len  int
}

func (l *list) moveToFront(item *listItem) {
	if item == l.head {
		return
	}
	if item.prev != nil {
		item.prev.next = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	}
	if item == l.tail {
		l.tail = item.prev
	}
	item.prev = nil
	item.next = l.head
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
}

func (l *list) removeBack() *listItem {
	if l.tail == nil {
		return nil
	}
	item := l.tail
	l.tail = item.prev
	if l.tail != nil {
		l.tail.next = nil
	} else {
		l.head = nil
	}
	l.len--
	return item
}

func (l *list) pushFront(item *listItem) {
	item.next = l.head
	item.prev = nil
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

// Options configures the result cache.
type Options struct {
	// MaxEntries is the maximum number of results. 0 means unlimited.
	MaxEntries int

	// MaxBytes is the approximate maximum size in bytes. 0 means
	// unlimited.
	MaxBytes int64

	// OnEvict is called when an entry is evicted.
	OnEvict func(key string, value Result)
}

// ResultCache is an in-memory LRU over analysis results with optional
// disk persistence.
type ResultCache struct {
	mu           sync.RWMutex
	items        map[string]*listItem
	lru          *list
	maxEntries   int
	maxBytes     int64
	currentBytes int64
	onEvict      func(key string, value Result)
}

// New creates an empty cache with the given options.
func New(opts Options) *ResultCache {
	return &ResultCache{
		items:      make(map[string]*listItem),
		lru:        &list{},
		maxEntries: opts.MaxEntries,
		maxBytes:   opts.MaxBytes,
		onEvict:    opts.OnEvict,
	}
}

// Get retrieves a result and marks it most recently used.
func (c *ResultCache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return Result{}, false
	}
	item.AccessedAt = time.Now()
	c.lru.moveToFront(item)
	return item.Value, true
}

// Set stores a result, evicting least recently used entries past the
// configured limits.
func (c *ResultCache) Set(key string, value Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := value.size()
	if item, exists := c.items[key]; exists {
		c.currentBytes += int64(size - item.Size)
		item.Value = value
		item.Size = size
		item.AccessedAt = time.Now()
		c.lru.moveToFront(item)
		c.evictIfNeeded()
		return
	}

	item := &listItem{Entry: Entry{
		Key:        key,
		Value:      value,
		AccessedAt: time.Now(),
		CreatedAt:  time.Now(),
		Size:       size,
	}}
	c.items[key] = item
	c.lru.pushFront(item)
	c.currentBytes += int64(size)
	c.evictIfNeeded()
}

// Delete removes a key.
func (c *ResultCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return
	}
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		c.lru.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		c.lru.tail = item.prev
	}
	c.lru.len--

	delete(c.items, key)
	c.currentBytes -= int64(item.Size)
	if c.onEvict != nil {
		c.onEvict(key, item.Value)
	}
}

// Clear drops every entry.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem)
	c.lru = &list{}
	c.currentBytes = 0
}

// Len returns the number of cached results.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// CurrentBytes returns the approximate in-memory size.
func (c *ResultCache) CurrentBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentBytes
}

func (c *ResultCache) evictIfNeeded() {
	for c.shouldEvict() {
		item := c.lru.removeBack()
		if item == nil {
			break
		}
		delete(c.items, item.Key)
		c.currentBytes -= int64(item.Size)
		if c.onEvict != nil {
			c.onEvict(item.Key, item.Value)
		}
	}
}

func (c *ResultCache) shouldEvict() bool {
	if c.maxEntries > 0 && c.lru.len > c.maxEntries {
		return true
	}
	if c.maxBytes > 0 && c.currentBytes >= c.maxBytes {
		return true
	}
	return false
}

// Save persists the cache to a writer using msgpack, most recently used
// entries first.
func (c *ResultCache) Save(w io.Writer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, len(c.items))
	for item := c.lru.head; item != nil; item = item.next {
		entries = append(entries, item.Entry)
	}
	return msgpack.NewEncoder(w).Encode(entries)
}

// Load restores the cache from a reader, replacing current contents.
func (c *ResultCache) Load(r io.Reader) error {
	var entries []Entry
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem)
	c.lru = &list{}
	c.currentBytes = 0
	for i := len(entries) - 1; i >= 0; i-- {
		item := &listItem{Entry: entries[i]}
		c.items[item.Key] = item
		c.lru.pushFront(item)
		c.currentBytes += int64(item.Size)
	}
	return nil
}

// PersistToFile saves the cache to a file.
func PersistToFile(c *ResultCache, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer f.Close()
	return c.Save(f)
}

// LoadFromFile loads the cache from a file. A missing file leaves the
// cache empty and is not an error.
func LoadFromFile(c *ResultCache, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()
	return c.Load(f)
}
