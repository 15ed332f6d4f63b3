package duelclient

import (
	"context"
	"errors"
	"log"
	"time"
)

// DefaultPollInterval is how often a Poller fetches the snapshot.
const DefaultPollInterval = 1500 * time.Millisecond

// ErrStopPolling is returned by an onChange callback to end Run without error.
var ErrStopPolling = errors.New("stop polling")

// GameFetcher is the part of Client the poller needs.
type GameFetcher interface {
	GetGame(ctx context.Context, code string) (*Game, error)
}

// Poller repeatedly fetches one game and reports new versions.
type Poller struct {
	fetcher  GameFetcher
	interval time.Duration
}

// NewPoller creates a poller; interval <= 0 selects DefaultPollInterval.
func NewPoller(fetcher GameFetcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{fetcher: fetcher, interval: interval}
}

// Run fetches the game right away and then every interval, calling onChange
// whenever the version is higher than the last one seen. Transient failures
// are logged and retried on the next tick; any other fetch error ends Run.
// Run returns nil when onChange returns ErrStopPolling and ctx.Err() on
// cancellation.
func (p *Poller) Run(ctx context.Context, code string, onChange func(*Game) error) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	lastVersion := -1
	for {
		game, err := p.fetcher.GetGame(ctx, code)
		switch {
		case err == nil:
			if game.Version > lastVersion {
				lastVersion = game.Version
				if cbErr := onChange(game); cbErr != nil {
					if errors.Is(cbErr, ErrStopPolling) {
						return nil
					}
					return cbErr
				}
			}
		case ctx.Err() != nil:
			return ctx.Err()
		case IsRetryable(err):
			log.Printf("[DuelClient] Poll of game %s failed, retrying: %v", code, err)
		default:
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
