package tv

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/framecast/internal/errors"
)

// keyPower is the remote key held to power the display off.
const keyPower = "KEY_POWER"

// TurnOff opens a session on the remote-control port (not the art-mode port)
// and holds the power key for the configured duration to switch the display
// off. Frame TVs treat a long KEY_POWER press as a full power toggle; a short
// press only flips between art mode and TV mode.
func (c *Client) TurnOff(ctx context.Context) error {
	url := channelURL(c.host, c.remotePort, remoteChannelPath)
	c.log.Debug("Connecting to remote-control channel", "url", url)

	sock, err := c.dial(ctx, url)
	if err != nil {
		return errors.Wrap(err, errors.CategoryNetwork, errors.SeverityError,
			fmt.Sprintf("connect to TV remote at %s:%d", c.host, c.remotePort))
	}
	defer sock.Close()

	if err := sock.WriteJSON(ctx, keyCommand("Press", keyPower)); err != nil {
		return errors.Wrap(err, errors.CategoryNetwork, errors.SeverityError, "send power key press")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.holdDuration):
	}

	if err := sock.WriteJSON(ctx, keyCommand("Release", keyPower)); err != nil {
		return errors.Wrap(err, errors.CategoryNetwork, errors.SeverityError, "send power key release")
	}

	c.log.Info("Power key held", "duration", c.holdDuration)
	return nil
}
