// Package tv talks to a Samsung Frame TV over its local network API: the
// art-mode channel (uploads, selection, deletion, art-mode state) and the
// remote-control channel (key commands), both JSON over websocket, plus
// Wake-on-LAN for powering the TV up from standby.
package tv

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// appName identifies this client on the TV's channels; the TV expects it
// base64-encoded in the connection URL.
const appName = "framecast"

// Channel endpoints on the TV.
const (
	artChannelPath    = "/api/v2/channels/com.samsung.art-app"
	remoteChannelPath = "/api/v2/channels/samsung.remote.control"
)

// Websocket events the TV emits.
const (
	eventChannelReady = "ms.channel.ready"
	eventD2DMessage   = "d2d_service_message"
	eventError        = "ms.error"
)

// Art-app sub-events carried inside d2d_service_message payloads.
const (
	artEventReadyToUse    = "ready_to_use"
	artEventImageAdded    = "image_added"
	artEventImageSelected = "image_selected"
	artEventArtModeStatus = "artmode_status"
	artEventImageDeleted  = "delete_image_list"
	artEventError         = "error"
)

// channelURL builds the websocket URL for one of the TV's channels.
func channelURL(host string, port int, path string) string {
	name := base64.StdEncoding.EncodeToString([]byte(appName))
	return fmt.Sprintf("ws://%s:%d%s?name=%s", host, port, path, name)
}

// envelope is the outer websocket frame in both directions.
type envelope struct {
	Method string          `json:"method,omitempty"`
	Event  string          `json:"event,omitempty"`
	Params *envelopeParams `json:"params,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type envelopeParams struct {
	Event string `json:"event,omitempty"`
	To    string `json:"to,omitempty"`
	Data  string `json:"data,omitempty"`
}

// artRequest wraps an art-app request payload into the emit envelope the
// channel expects: the payload travels as a JSON-encoded string.
func artRequest(payload any) (*envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal art request: %w", err)
	}
	return &envelope{
		Method: "ms.channel.emit",
		Params: &envelopeParams{
			Event: "art_app_request",
			To:    "host",
			Data:  string(data),
		},
	}, nil
}

// artMessage is the payload of a d2d_service_message, shared across the
// art-app responses this client cares about.
type artMessage struct {
	Event     string `json:"event"`
	RequestID string `json:"request_id,omitempty"`
	ID        string `json:"id,omitempty"`
	ContentID string `json:"content_id,omitempty"`
	Value     string `json:"value,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`

	ConnInfo json.RawMessage `json:"conn_info,omitempty"`
}

// dataConnInfo is the data-socket endpoint the TV opens for image transfer,
// delivered in the ready_to_use response.
type dataConnInfo struct {
	IP   string      `json:"ip"`
	Port json.Number `json:"port"`
	Key  string      `json:"key"`
}

// transferHeader precedes the image bytes on the data socket, length-prefixed
// with 4 big-endian bytes.
type transferHeader struct {
	Num        int    `json:"num"`
	Total      int    `json:"total"`
	FileLength int    `json:"fileLength"`
	FileName   string `json:"fileName"`
	FileType   string `json:"fileType"`
	SecKey     string `json:"secKey"`
	Version    string `json:"version"`
}

// remoteKeyCommand is a key press/release frame on the remote-control channel.
type remoteKeyCommand struct {
	Method string          `json:"method"`
	Params remoteKeyParams `json:"params"`
}

type remoteKeyParams struct {
	Cmd          string `json:"Cmd"`
	DataOfCmd    string `json:"DataOfCmd"`
	Option       string `json:"Option"`
	TypeOfRemote string `json:"TypeOfRemote"`
}

func keyCommand(cmd, key string) remoteKeyCommand {
	return remoteKeyCommand{
		Method: "ms.remote.control",
		Params: remoteKeyParams{
			Cmd:          cmd,
			DataOfCmd:    key,
			Option:       "false",
			TypeOfRemote: "SendRemoteKey",
		},
	}
}

// TVError is an error reported by the TV itself (as opposed to transport
// failures), carrying the vendor error code when one was provided.
type TVError struct {
	Code    string
	Message string
}

func (e *TVError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tv error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("tv error: %s", e.Message)
}
