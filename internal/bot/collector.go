package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jellydator/ttlcache/v3"
)

// ErrCollectTimeout is returned by Await when no message arrived in time
var ErrCollectTimeout = errors.New("no input received")

type waiter = chan *discordgo.Message

// Collector waits for the next message of one author in one channel.
// Each wait is a single-shot entry that expires with the cache TTL.
type Collector struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, waiter]
}

func NewCollector(ttl time.Duration) *Collector {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, waiter](ttl),
		ttlcache.WithDisableTouchOnHit[string, waiter](),
	)
	// Any removal wakes the waiter with nil unless a message is already buffered
	cache.OnEviction(func(_ context.Context, _ ttlcache.EvictionReason, item *ttlcache.Item[string, waiter]) {
		select {
		case item.Value() <- nil:
		default:
		}
	})
	go cache.Start()

	return &Collector{cache: cache}
}

func collectorKey(channelID, authorID string) string {
	return channelID + ":" + authorID
}

// Await blocks until authorID posts in channelID, the TTL elapses
// (ErrCollectTimeout) or ctx is done.
func (c *Collector) Await(ctx context.Context, channelID, authorID string) (*discordgo.Message, error) {
	key := collectorKey(channelID, authorID)
	ch := make(waiter, 1)

	c.mu.Lock()
	if c.cache.Has(key) {
		c.cache.Delete(key)
	}
	c.cache.Set(key, ch, ttlcache.DefaultTTL)
	c.mu.Unlock()

	select {
	case msg := <-ch:
		if msg == nil {
			return nil, ErrCollectTimeout
		}
		return msg, nil
	case <-ctx.Done():
		c.mu.Lock()
		if item := c.cache.Get(key); item != nil && item.Value() == ch {
			c.cache.Delete(key)
		}
		c.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Offer hands m to a waiting Await call and reports whether one was waiting
func (c *Collector) Offer(m *discordgo.Message) bool {
	if m == nil || m.Author == nil {
		return false
	}
	key := collectorKey(m.ChannelID, m.Author.ID)

	c.mu.Lock()
	defer c.mu.Unlock()

	item := c.cache.Get(key)
	if item == nil {
		return false
	}
	delivered := false
	select {
	case item.Value() <- m:
		delivered = true
	default:
	}
	c.cache.Delete(key)
	return delivered
}

// Pending reports the number of open waits
func (c *Collector) Pending() int {
	return c.cache.Len()
}

// Close resolves every open wait with ErrCollectTimeout and stops expiry
func (c *Collector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.DeleteAll()
	c.cache.Stop()
}
