// Package prepare implements PreparedHandle and its LRU cache (spec
// §5, §6): prepare_document parses HTML once and hands back an opaque
// handle that execute_with_prepared can reuse across many queries
// against the same document.
package prepare

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/darhnoel/markql-sub000/internal/htmldoc"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// MaxEntries bounds the cache at 8 prepared documents (spec §5).
const MaxEntries = 8

// PreparedHandle is the opaque identity execute_with_prepared takes
// instead of re-parsing HTML. The HandleID is a uuid (google/uuid, the
// same identity library Tangerg-lynx uses for request/session IDs) so
// it's safe to hand to external callers without leaking cache
// internals.
type PreparedHandle struct {
	HandleID string
	Digest   string
	Doc      *htmldoc.HtmlDocument
}

// Cache is a digest-keyed LRU over prepared documents, with
// golang.org/x/sync/singleflight collapsing concurrent prepares of the
// same HTML into a single parse (grounded on the same dedup idiom
// Tangerg-lynx/flow applies to concurrent identical requests).
type Cache struct {
	mu    sync.Mutex
	ll    *list.List
	items map[string]*list.Element
	group singleflight.Group
}

type entry struct {
	digest string
	handle *PreparedHandle
}

func NewCache() *Cache {
	return &Cache{ll: list.New(), items: make(map[string]*list.Element)}
}

func digestOf(html string) string {
	sum := sha256.Sum256([]byte(html))
	return hex.EncodeToString(sum[:])
}

// Prepare returns the cached handle for html's digest, or parses it
// (once, even under concurrent callers) and inserts it, evicting the
// least-recently-used entry if the cache is at MaxEntries.
func (c *Cache) Prepare(html, sourceURI string) (*PreparedHandle, error) {
	digest := digestOf(html)

	c.mu.Lock()
	if el, ok := c.items[digest]; ok {
		c.ll.MoveToFront(el)
		h := el.Value.(*entry).handle
		c.mu.Unlock()
		return h, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(digest, func() (any, error) {
		doc := htmldoc.ParseHTML(html, sourceURI)
		h := &PreparedHandle{HandleID: uuid.NewString(), Digest: digest, Doc: doc}

		c.mu.Lock()
		defer c.mu.Unlock()
		if el, ok := c.items[digest]; ok {
			c.ll.MoveToFront(el)
			return el.Value.(*entry).handle, nil
		}
		el := c.ll.PushFront(&entry{digest: digest, handle: h})
		c.items[digest] = el
		if c.ll.Len() > MaxEntries {
			oldest := c.ll.Back()
			if oldest != nil {
				c.ll.Remove(oldest)
				delete(c.items, oldest.Value.(*entry).digest)
			}
		}
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*PreparedHandle), nil
}

// Get looks up a previously prepared handle by its HandleID, scanning
// the small fixed-size LRU (at most MaxEntries) rather than keeping a
// second index — eight entries never justifies one.
func (c *Cache) Get(handleID string) (*PreparedHandle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for el := c.ll.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		if e.handle.HandleID == handleID {
			c.ll.MoveToFront(el)
			return e.handle, true
		}
	}
	return nil, false
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
