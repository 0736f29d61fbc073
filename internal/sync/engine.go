// Package sync implements the review reconciliation pipeline: it walks the
// upstream cursor-paginated feed to completion, diffs every page against
// local state, persists creates and updates in batches, and finishes with a
// single removal sweep for reviews that disappeared upstream.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/steamsync/internal/reviews"
	"github.com/steamsync/internal/steam"
)

// Source fetches one page of upstream reviews. The production implementation
// is the Steam client, which already carries retry and rate limiting.
type Source interface {
	FetchReviewPage(ctx context.Context, appID int64, cursor string) (steam.ReviewPage, error)
}

// Summary reports what one reconciliation run changed.
type Summary struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
}

// Engine drives one reconciliation run at a time. Runs are independent;
// a single Engine may be shared across goroutines syncing different games.
type Engine struct {
	source Source
	store  reviews.Store
	now    func() time.Time
}

func NewEngine(source Source, store reviews.Store) *Engine {
	return &Engine{source: source, store: store, now: time.Now}
}

// Run traverses the full upstream feed for appID and reconciles it into the
// store under gameID. Pages are fetched and persisted strictly in cursor
// order; the removal sweep runs exactly once, after the whole traversal.
// Runs are not atomic: pages persisted before a failure stay persisted, and
// re-running converges because all writes are keyed by the upstream id.
func (e *Engine) Run(ctx context.Context, gameID, appID int64) (Summary, error) {
	logger := log.With().
		Str("run_id", uuid.NewString()).
		Int64("game_id", gameID).
		Int64("app_id", appID).
		Logger()

	seen := make(map[string]struct{})
	var sum Summary
	cursor := steam.FirstPageCursor

	for {
		page, err := e.source.FetchReviewPage(ctx, appID, cursor)
		if err != nil {
			return sum, fmt.Errorf("fetch review page: %w", err)
		}

		// A zero-item page signals exhaustion even if a cursor is still present.
		if len(page.Reviews) == 0 {
			break
		}

		toCreate, toUpdate, processed, err := e.classifyPage(ctx, gameID, page.Reviews, seen, &logger)
		if err != nil {
			return sum, err
		}

		if len(toCreate) > 0 {
			if err := e.store.BatchCreate(ctx, toCreate); err != nil {
				return sum, fmt.Errorf("batch create: %w", err)
			}
		}
		if len(toUpdate) > 0 {
			if err := e.store.BatchUpdate(ctx, toUpdate); err != nil {
				return sum, fmt.Errorf("batch update: %w", err)
			}
		}

		sum.Created += len(toCreate)
		sum.Updated += len(toUpdate)
		sum.Processed += processed
		logger.Info().Int("processed", sum.Processed).Msg("Processed review page")

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	keep := make([]string, 0, len(seen))
	for id := range seen {
		keep = append(keep, id)
	}
	if err := e.store.MarkRemovedExcept(ctx, gameID, keep); err != nil {
		return sum, fmt.Errorf("removal sweep: %w", err)
	}

	logger.Info().
		Int("processed", sum.Processed).
		Int("created", sum.Created).
		Int("updated", sum.Updated).
		Msg("Reconciliation run complete")
	return sum, nil
}

// classifyPage stages one page of items as creates and updates. A malformed
// item is skipped with a warning and never aborts the page; a store lookup
// failure is fatal for the run.
func (e *Engine) classifyPage(ctx context.Context, gameID int64, items []steam.ReviewItem, seen map[string]struct{}, logger *zerolog.Logger) ([]*reviews.Review, []*reviews.Review, int, error) {
	var toCreate, toUpdate []*reviews.Review
	processed := 0

	for _, item := range items {
		created, updated, err := validateItem(item)
		if err != nil {
			logger.Warn().Str("steam_id", item.RecommendationID).Err(err).Msg("Skipping invalid review item")
			continue
		}

		seen[item.RecommendationID] = struct{}{}
		processed++

		existing, err := e.store.FindBySteamID(ctx, item.RecommendationID)
		if err != nil && !errors.Is(err, reviews.ErrNotFound) {
			return nil, nil, 0, fmt.Errorf("lookup review %s: %w", item.RecommendationID, err)
		}

		now := e.now()
		rev := &reviews.Review{
			SteamID:          item.RecommendationID,
			GameID:           gameID,
			AuthorSteamID:    item.Author.SteamID,
			Recommended:      *item.VotedUp,
			Content:          *item.Review,
			TimestampCreated: created,
			TimestampUpdated: updated,
			Removed:          false,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		switch {
		case existing == nil:
			toCreate = append(toCreate, rev)
		case existing.Removed || *item.TimestampUpdated > localUpdatedSeconds(existing, *item.TimestampCreated):
			// A removed review that reappears upstream is revived even when
			// its upstream timestamps never advanced.
			rev.ID = existing.ID
			rev.CreatedAt = existing.CreatedAt
			toUpdate = append(toUpdate, rev)
		}
		// Not newer: unchanged for this run, but still counts as seen.
	}

	logger.Info().Int("creates", len(toCreate)).Int("updates", len(toUpdate)).Msg("Classified review page")
	return toCreate, toUpdate, processed, nil
}

// localUpdatedSeconds is the local record's last-modified time in epoch
// seconds, falling back to the upstream creation timestamp when the record
// never carried one.
func localUpdatedSeconds(existing *reviews.Review, upstreamCreated int64) int64 {
	if !existing.TimestampUpdated.IsZero() {
		return existing.TimestampUpdated.Unix()
	}
	return upstreamCreated
}

// validateItem checks the required item shape and timestamps, returning the
// parsed timestamps. Any failure is a data error for that single item.
func validateItem(item steam.ReviewItem) (created, updated time.Time, err error) {
	if item.RecommendationID == "" {
		return created, updated, errors.New("missing recommendationid")
	}
	if item.Author == nil || item.Review == nil || item.VotedUp == nil ||
		item.TimestampCreated == nil || item.TimestampUpdated == nil {
		return created, updated, errors.New("missing required fields")
	}

	created, err = parseTimestamp(*item.TimestampCreated)
	if err != nil {
		return created, updated, fmt.Errorf("timestamp_created: %w", err)
	}
	updated, err = parseTimestamp(*item.TimestampUpdated)
	if err != nil {
		return created, updated, fmt.Errorf("timestamp_updated: %w", err)
	}
	return created, updated, nil
}

func parseTimestamp(secs int64) (time.Time, error) {
	if secs <= 0 {
		return time.Time{}, fmt.Errorf("invalid timestamp %d", secs)
	}
	return time.Unix(secs, 0).UTC(), nil
}
