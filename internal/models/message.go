package models

import "time"

// MediaKind classifies the media payload of a message. The zero value means
// no media.
type MediaKind string

const (
	MediaKindNone     MediaKind = ""
	MediaKindImage    MediaKind = "image"
	MediaKindVideo    MediaKind = "video"
	MediaKindAudio    MediaKind = "audio"
	MediaKindDocument MediaKind = "document"
	MediaKindSticker  MediaKind = "sticker"
)

// TypeLabelText is the coarse label a message falls back to when no richer
// classification applies.
const TypeLabelText = "text"

// Subtype tags interactive message variants; ordinary messages carry none.
type Subtype string

const (
	SubtypeButtonsResponse     Subtype = "buttons_response"
	SubtypeTemplateButtonReply Subtype = "template_button_reply"
	SubtypeList                Subtype = "list"
	SubtypeListResponse        Subtype = "list_response"
	SubtypeHSM                 Subtype = "hsm"
)

// Wrapped is an envelope variant that carries another envelope in place of
// payload. A wrapper whose inner envelope is missing is valid; it means the
// content was stripped in transit.
type Wrapped struct {
	Inner *MessageEnvelope `json:"inner,omitempty"`
}

// MediaContent is the payload of a media message.
type MediaContent struct {
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// MessageEnvelope is the wire shape of one message: either one of the
// wrapper variants or concrete content. At most one wrapper is expected; if
// several are set they unwrap in the order device-sent, ephemeral,
// view-once.
type MessageEnvelope struct {
	DeviceSent *Wrapped `json:"device_sent,omitempty"`
	Ephemeral  *Wrapped `json:"ephemeral,omitempty"`
	ViewOnce   *Wrapped `json:"view_once,omitempty"`

	Text     string        `json:"text,omitempty"`
	Image    *MediaContent `json:"image,omitempty"`
	Video    *MediaContent `json:"video,omitempty"`
	Audio    *MediaContent `json:"audio,omitempty"`
	Document *MediaContent `json:"document,omitempty"`
	Sticker  *MediaContent `json:"sticker,omitempty"`
}

// Message pairs an envelope with its routing metadata.
type Message struct {
	ID        string           `json:"id"`
	Chat      ChatID           `json:"chat"`
	FromMe    bool             `json:"from_me"`
	Subtype   Subtype          `json:"subtype,omitempty"`
	Envelope  *MessageEnvelope `json:"envelope,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
