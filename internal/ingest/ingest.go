// Package ingest mirrors posts from the source channel into the catalog.
// Push mode handles each inbound channel post as it arrives; pull mode
// drains a Source on a fixed (runtime-adjustable) interval. Both modes
// funnel through the same extract/classify/insert sequence, and the
// store's dedup key guarantees a post lands in the catalog at most once.
package ingest

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/habotlola-gif/poizon-bot/internal/extract"
	"github.com/habotlola-gif/poizon-bot/internal/models"
)

const fetchLimit = 20

// Catalog is the slice of the catalog store ingestion needs.
type Catalog interface {
	InsertIfNew(p models.Product) (bool, error)
	Count() (int, error)
}

// Notifier delivers ingestion summaries to the admin.
type Notifier interface {
	NotifyAdmin(text string)
}

// Post is one externally authored source-channel message.
type Post struct {
	ID        int64
	ChannelID int64
	Caption   string
	PhotoID   string
}

// Source supplies recent posts for pull mode, oldest first.
type Source interface {
	Recent(ctx context.Context, limit int) ([]Post, error)
}

type Ingestor struct {
	catalog   Catalog
	notifier  Notifier
	channelID int64
	interval  atomic.Int64 // nanoseconds
	seen      map[int64]struct{}
	log       zerolog.Logger
}

func New(catalog Catalog, notifier Notifier, channelID int64, interval time.Duration, log zerolog.Logger) *Ingestor {
	g := &Ingestor{
		catalog:   catalog,
		notifier:  notifier,
		channelID: channelID,
		seen:      make(map[int64]struct{}),
		log:       log.With().Str("component", "ingest").Logger(),
	}
	g.interval.Store(int64(interval))
	return g
}

// SetInterval changes the pull-mode polling interval. The new value is
// picked up at the start of the next loop iteration.
func (g *Ingestor) SetInterval(d time.Duration) {
	g.interval.Store(int64(d))
	g.log.Info().Dur("interval", d).Msg("poll interval updated")
}

func (g *Ingestor) Interval() time.Duration {
	return time.Duration(g.interval.Load())
}

// ChannelID is the source channel this ingestor accepts posts from.
func (g *Ingestor) ChannelID() int64 {
	return g.channelID
}

// HandlePost is the push-mode entry point, invoked once per inbound
// channel post. Posts from other channels and posts without a photo are
// ignored. Errors are logged, never propagated: one bad post must not
// take the update loop down.
func (g *Ingestor) HandlePost(post Post) {
	if post.ChannelID != g.channelID {
		return
	}
	if post.PhotoID == "" {
		g.log.Debug().Int64("post_id", post.ID).Msg("skipping post without photo")
		return
	}

	inserted, err := g.catalog.InsertIfNew(candidate(post))
	if err != nil {
		g.log.Error().Err(err).Int64("post_id", post.ID).Msg("failed to ingest post")
		return
	}
	if !inserted {
		g.log.Debug().Int64("post_id", post.ID).Msg("post already ingested")
		return
	}

	g.notifyInserted(post)
}

// Run is the pull-mode loop. It wakes on the configured interval, drains
// up to fetchLimit unseen posts from src oldest-first, and exits between
// iterations once ctx is cancelled, never mid-post.
func (g *Ingestor) Run(ctx context.Context, src Source) {
	g.log.Info().Dur("interval", g.Interval()).Msg("ingest loop started")
	for {
		select {
		case <-ctx.Done():
			g.log.Info().Msg("ingest loop stopped")
			return
		case <-time.After(g.Interval()):
		}

		posts, err := src.Recent(ctx, fetchLimit)
		if err != nil {
			g.log.Error().Err(err).Msg("failed to fetch recent posts")
			continue
		}

		for _, post := range posts {
			// Message IDs are sequential per chat, not global: filter by
			// channel before marking seen, or a foreign post would shadow
			// the source post sharing its ID.
			if post.ChannelID != g.channelID {
				continue
			}
			if _, ok := g.seen[post.ID]; ok {
				continue
			}
			g.seen[post.ID] = struct{}{}
			g.HandlePost(post)
		}
	}
}

func (g *Ingestor) notifyInserted(post Post) {
	name := extract.Title(post.Caption, post.ID)
	size, err := g.catalog.Count()
	if err != nil {
		g.log.Error().Err(err).Msg("failed to count catalog")
	}

	g.log.Info().Int64("post_id", post.ID).Str("name", name).Int("catalog_size", size).Msg("post ingested")
	if g.notifier != nil {
		g.notifier.NotifyAdmin(fmt.Sprintf("📥 Added to catalog: %s\nCatalog size: %d", name, size))
	}
}

// candidate builds the product record for a source post. Extraction and
// classification are total, so the candidate always has a name and price.
func candidate(post Post) models.Product {
	return models.Product{
		Name:         extract.Title(post.Caption, post.ID),
		Description:  post.Caption,
		Price:        extract.Price(post.Caption),
		PhotoID:      post.PhotoID,
		Category:     extract.Classify(post.Caption),
		SourcePostID: post.ID,
	}
}
