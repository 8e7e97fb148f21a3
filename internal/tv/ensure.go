package tv

import (
	"context"
	"time"

	"git.home.luguber.info/inful/framecast/internal/errors"
)

// artModeSession is the slice of Session that EnsureArtMode needs; tests
// substitute a fake through the connectArt seam.
type artModeSession interface {
	ArtMode(ctx context.Context) (bool, error)
	SetArtMode(ctx context.Context, on bool) error
	Close() error
}

// connectArt is the connection seam for EnsureArtMode.
func (c *Client) connectArt(ctx context.Context) (artModeSession, error) {
	if c.connectArtFn != nil {
		return c.connectArtFn(ctx)
	}
	return c.Connect(ctx)
}

// EnsureArtMode reads the TV's art-mode state and forces it on.
//
// The control flow is a fixed two-state loop, not a general retry policy:
// if the first connection fails and a hardware address is configured, send
// one wake burst, wait the retry delay, and run the whole connect-and-set
// sequence exactly once more. A second failure propagates. With no hardware
// address the first failure propagates immediately and no packets are sent.
func (c *Client) EnsureArtMode(ctx context.Context) error {
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := c.connectAndSetArtMode(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !errors.IsCategory(err, errors.CategoryNetwork) {
			return err
		}
		if c.mac == "" {
			c.log.Debug("TV unreachable and no hardware address configured; not waking")
			return err
		}
		if attempt == maxAttempts {
			break
		}

		c.log.Info("TV unreachable, waking via broadcast", "attempt", attempt, "retry_delay", c.retryDelay)
		if wakeErr := c.Wake(); wakeErr != nil {
			return wakeErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}

	return errors.Wrap(lastErr, errors.CategoryNetwork, errors.SeverityFatal, "TV still unreachable after wake")
}

// connectAndSetArtMode is one pass of the ensure sequence.
func (c *Client) connectAndSetArtMode(ctx context.Context) error {
	sess, err := c.connectArt(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	on, err := sess.ArtMode(ctx)
	if err != nil {
		return err
	}
	if on {
		c.log.Debug("Art mode already on")
		return nil
	}
	if err := sess.SetArtMode(ctx, true); err != nil {
		return err
	}
	c.log.Info("Art mode switched on")
	return nil
}
