package tv

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"git.home.luguber.info/inful/framecast/internal/errors"
)

// Defaults for session behavior.
const (
	DefaultHoldDuration = 3 * time.Second // KEY_POWER hold time for power-off
	DefaultRetryDelay   = 8 * time.Second // wait after Wake-on-LAN before reconnecting
	defaultReadTimeout  = 30 * time.Second
	uploadReadTimeout   = 2 * time.Minute // the TV is slow to ingest large images
)

// socket abstracts the websocket connection so tests can substitute a fake.
type socket interface {
	WriteJSON(ctx context.Context, v any) error
	ReadJSON(ctx context.Context, v any) error
	Close() error
}

type wsSocket struct {
	conn *websocket.Conn
}

func (s *wsSocket) WriteJSON(ctx context.Context, v any) error {
	return wsjson.Write(ctx, s.conn, v)
}

func (s *wsSocket) ReadJSON(ctx context.Context, v any) error {
	return wsjson.Read(ctx, s.conn, v)
}

func (s *wsSocket) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}

type dialFunc func(ctx context.Context, url string) (socket, error)

func dialWebsocket(ctx context.Context, url string) (socket, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	// Art uploads exceed the library's modest default read limit.
	conn.SetReadLimit(1 << 22)
	return &wsSocket{conn: conn}, nil
}

type dataDialFunc func(ctx context.Context, addr string) (net.Conn, error)

func dialData(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	ArtPort      int
	RemotePort   int
	MAC          string // hardware address for Wake-on-LAN; empty disables waking
	RetryDelay   time.Duration
	HoldDuration time.Duration
	Logger       *slog.Logger
}

// Client opens sessions against one TV. It is cheap to construct and holds
// no connection state of its own.
type Client struct {
	host         string
	artPort      int
	remotePort   int
	mac          string
	retryDelay   time.Duration
	holdDuration time.Duration
	log          *slog.Logger

	dial         dialFunc
	dialData     dataDialFunc
	sendPacket   packetSender
	connectArtFn func(ctx context.Context) (artModeSession, error)
}

// NewClient returns a Client for the TV at host.
func NewClient(host string, opts Options) *Client {
	c := &Client{
		host:         host,
		artPort:      opts.ArtPort,
		remotePort:   opts.RemotePort,
		mac:          opts.MAC,
		retryDelay:   opts.RetryDelay,
		holdDuration: opts.HoldDuration,
		log:          opts.Logger,
		dial:         dialWebsocket,
		dialData:     dialData,
		sendPacket:   sendUDPPacket,
	}
	if c.artPort == 0 {
		c.artPort = 8001
	}
	if c.remotePort == 0 {
		c.remotePort = 8002
	}
	if c.retryDelay <= 0 {
		c.retryDelay = DefaultRetryDelay
	}
	if c.holdDuration <= 0 {
		c.holdDuration = DefaultHoldDuration
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// Session is an open connection to the TV's art-mode channel.
type Session struct {
	sock     socket
	dialData dataDialFunc
	log      *slog.Logger
}

// Connect opens the art-mode channel and waits for the channel-ready event.
// A TV that is powered off (or in deep standby) fails here with a
// network-category error; see EnsureArtMode for the wake-and-retry path.
func (c *Client) Connect(ctx context.Context) (*Session, error) {
	url := channelURL(c.host, c.artPort, artChannelPath)
	c.log.Debug("Connecting to art channel", "url", url)

	sock, err := c.dial(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryNetwork, errors.SeverityError,
			fmt.Sprintf("connect to TV at %s:%d", c.host, c.artPort))
	}

	s := &Session{sock: sock, dialData: c.dialData, log: c.log}
	if err := s.awaitReady(ctx); err != nil {
		_ = sock.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying channel.
func (s *Session) Close() error {
	return s.sock.Close()
}

// awaitReady consumes frames until the channel reports ready.
func (s *Session) awaitReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultReadTimeout)
	defer cancel()

	for {
		var env envelope
		if err := s.sock.ReadJSON(ctx, &env); err != nil {
			return errors.Wrap(err, errors.CategoryNetwork, errors.SeverityError, "wait for channel ready")
		}
		switch env.Event {
		case eventChannelReady:
			return nil
		case eventError:
			return errors.Wrap(&TVError{Message: string(env.Data)}, errors.CategoryTV, errors.SeverityError, "channel rejected connection")
		}
	}
}

// send emits one art-app request on the channel.
func (s *Session) send(ctx context.Context, payload any) error {
	env, err := artRequest(payload)
	if err != nil {
		return err
	}
	return s.sock.WriteJSON(ctx, env)
}

// await reads d2d messages until one matches wantEvent (or the TV reports an
// error). Unrelated events are skipped; the TV chats about matte lists and
// thumbnails on the same channel.
func (s *Session) await(ctx context.Context, wantEvent string, timeout time.Duration) (*artMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		var env envelope
		if err := s.sock.ReadJSON(ctx, &env); err != nil {
			return nil, errors.Wrap(err, errors.CategoryNetwork, errors.SeverityError,
				fmt.Sprintf("wait for %s", wantEvent))
		}
		if env.Event != eventD2DMessage {
			continue
		}

		var msg artMessage
		if err := decodeD2DData(env.Data, &msg); err != nil {
			s.log.Debug("Skipping undecodable art message", "error", err)
			continue
		}
		switch msg.Event {
		case wantEvent:
			return &msg, nil
		case artEventError:
			return nil, errors.Wrap(&TVError{Code: msg.ErrorCode, Message: msg.Event},
				errors.CategoryTV, errors.SeverityError, fmt.Sprintf("tv rejected %s", wantEvent))
		}
	}
}

// decodeD2DData unwraps a d2d payload, which arrives either as an object or
// as a JSON-encoded string depending on firmware.
func decodeD2DData(raw json.RawMessage, msg *artMessage) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty d2d payload")
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return err
		}
		return json.Unmarshal([]byte(inner), msg)
	}
	return json.Unmarshal(raw, msg)
}

// Upload pushes PNG bytes to the TV with no matte and returns the content
// identifier the TV assigned. The image travels over a one-shot TCP data
// socket the TV opens for the transfer.
func (s *Session) Upload(ctx context.Context, png []byte) (string, error) {
	id := uuid.NewString()
	req := map[string]any{
		"request":    "send_image",
		"request_id": id,
		"id":         id,
		"file_type":  "png",
		"file_size":  len(png),
		"image_date": time.Now().Format("2006:01:02 15:04:05"),
		"matte_id":   "none",
		"conn_info": map[string]any{
			"d2d_mode":      "socket",
			"connection_id": id,
			"id":            id,
		},
	}
	if err := s.send(ctx, req); err != nil {
		return "", errors.Wrap(err, errors.CategoryNetwork, errors.SeverityError, "request image upload")
	}

	ready, err := s.await(ctx, artEventReadyToUse, defaultReadTimeout)
	if err != nil {
		return "", err
	}

	var conn dataConnInfo
	if err := unmarshalConnInfo(ready.ConnInfo, &conn); err != nil {
		return "", errors.Wrap(err, errors.CategoryTV, errors.SeverityError, "parse data socket info")
	}

	if err := s.transfer(ctx, conn, png); err != nil {
		return "", err
	}

	added, err := s.await(ctx, artEventImageAdded, uploadReadTimeout)
	if err != nil {
		return "", err
	}
	if added.ContentID == "" {
		return "", errors.New(errors.CategoryTV, errors.SeverityError, "tv did not return a content id")
	}

	s.log.Debug("Image uploaded", "content_id", added.ContentID, "bytes", len(png))
	return added.ContentID, nil
}

// unmarshalConnInfo tolerates both object and string-encoded conn_info.
func unmarshalConnInfo(raw json.RawMessage, conn *dataConnInfo) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing conn_info")
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return err
		}
		return json.Unmarshal([]byte(inner), conn)
	}
	return json.Unmarshal(raw, conn)
}

// transfer streams the length-prefixed header and the image bytes over the
// TV's data socket.
func (s *Session) transfer(ctx context.Context, conn dataConnInfo, png []byte) error {
	addr := net.JoinHostPort(conn.IP, conn.Port.String())
	tcp, err := s.dialData(ctx, addr)
	if err != nil {
		return errors.Wrap(err, errors.CategoryNetwork, errors.SeverityError, "open image data socket")
	}
	defer tcp.Close()

	header, err := json.Marshal(transferHeader{
		Num:        0,
		Total:      1,
		FileLength: len(png),
		FileName:   "framecast",
		FileType:   "png",
		SecKey:     conn.Key,
		Version:    "0.0.1",
	})
	if err != nil {
		return fmt.Errorf("marshal transfer header: %w", err)
	}

	prefix := make([]byte, 4)
	binary.BigEndian.PutUint32(prefix, uint32(len(header)))
	for _, chunk := range [][]byte{prefix, header, png} {
		if _, err := tcp.Write(chunk); err != nil {
			return errors.Wrap(err, errors.CategoryNetwork, errors.SeverityError, "stream image data")
		}
	}
	return nil
}

// Select sets the given identifier as the currently displayed artwork.
func (s *Session) Select(ctx context.Context, contentID string) error {
	req := map[string]any{
		"request":    "select_image",
		"content_id": contentID,
		"show":       true,
	}
	if err := s.send(ctx, req); err != nil {
		return errors.Wrap(err, errors.CategoryNetwork, errors.SeverityError, "select artwork")
	}
	return nil
}

// Delete removes a previously uploaded identifier. Callers treat failures as
// best-effort: the user may have deleted the artwork from the TV already.
func (s *Session) Delete(ctx context.Context, contentID string) error {
	req := map[string]any{
		"request":         "delete_image_list",
		"content_id_list": []map[string]string{{"content_id": contentID}},
	}
	if err := s.send(ctx, req); err != nil {
		return errors.Wrap(err, errors.CategoryNetwork, errors.SeverityError, "delete artwork")
	}
	if _, err := s.await(ctx, artEventImageDeleted, defaultReadTimeout); err != nil {
		return err
	}
	return nil
}

// ArtMode reports whether art mode is currently on.
func (s *Session) ArtMode(ctx context.Context) (bool, error) {
	if err := s.send(ctx, map[string]any{"request": "get_artmode_status", "id": uuid.NewString()}); err != nil {
		return false, errors.Wrap(err, errors.CategoryNetwork, errors.SeverityError, "query art mode")
	}
	msg, err := s.await(ctx, artEventArtModeStatus, defaultReadTimeout)
	if err != nil {
		return false, err
	}
	return msg.Value == "on", nil
}

// SetArtMode switches art mode on or off.
func (s *Session) SetArtMode(ctx context.Context, on bool) error {
	value := "off"
	if on {
		value = "on"
	}
	req := map[string]any{
		"request": "set_artmode_status",
		"value":   value,
		"id":      uuid.NewString(),
	}
	if err := s.send(ctx, req); err != nil {
		return errors.Wrap(err, errors.CategoryNetwork, errors.SeverityError, "set art mode")
	}
	return nil
}
