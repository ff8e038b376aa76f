package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Scheme is the addressing namespace of a chat identifier.
type Scheme string

const (
	SchemeUser       Scheme = "user"
	SchemeLID        Scheme = "lid"
	SchemeGroup      Scheme = "group"
	SchemeNewsletter Scheme = "newsletter"
	SchemeBroadcast  Scheme = "broadcast"
)

var ErrInvalidChatID = errors.New("invalid chat id")

// ChatID identifies a conversation target. The canonical form is
// "value@scheme"; two identifiers are the same exactly when their canonical
// forms match.
type ChatID struct {
	user   string
	scheme Scheme
}

// NewChatID builds an identifier from its parts.
func NewChatID(user string, scheme Scheme) ChatID {
	return ChatID{user: user, scheme: scheme}
}

// ParseChatID parses the canonical "value@scheme" form.
func ParseChatID(raw string) (ChatID, error) {
	at := strings.LastIndex(raw, "@")
	if at <= 0 || at == len(raw)-1 {
		return ChatID{}, fmt.Errorf("%w: %q", ErrInvalidChatID, raw)
	}
	scheme := Scheme(raw[at+1:])
	switch scheme {
	case SchemeUser, SchemeLID, SchemeGroup, SchemeNewsletter, SchemeBroadcast:
	default:
		return ChatID{}, fmt.Errorf("%w: unknown scheme %q", ErrInvalidChatID, raw[at+1:])
	}
	return ChatID{user: raw[:at], scheme: scheme}, nil
}

// MustChatID parses raw and panics on failure. Intended for tests and
// static wiring.
func MustChatID(raw string) ChatID {
	id, err := ParseChatID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the canonical form, empty for the zero identifier.
func (id ChatID) String() string {
	if id.IsZero() {
		return ""
	}
	return id.user + "@" + string(id.scheme)
}

// User returns the scheme-local part of the identifier.
func (id ChatID) User() string { return id.user }

// Scheme returns the addressing namespace.
func (id ChatID) Scheme() Scheme { return id.scheme }

// IsZero reports whether the identifier is unset.
func (id ChatID) IsZero() bool { return id.user == "" && id.scheme == "" }

// IsUser reports whether the identifier addresses an individual account,
// in either the legacy or the migrated scheme.
func (id ChatID) IsUser() bool { return id.scheme == SchemeUser || id.scheme == SchemeLID }

// IsLID reports whether the identifier uses the migrated scheme.
func (id ChatID) IsLID() bool { return id.scheme == SchemeLID }

// IsGroupLike reports whether the identifier addresses a multi-party thread.
func (id ChatID) IsGroupLike() bool {
	return id.scheme == SchemeGroup || id.scheme == SchemeBroadcast
}

// IsNewsletter reports whether the identifier addresses a newsletter feed.
func (id ChatID) IsNewsletter() bool { return id.scheme == SchemeNewsletter }

// MarshalJSON encodes the canonical form.
func (id ChatID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON accepts the canonical form or an empty string.
func (id *ChatID) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return id.scanString(raw)
}

// Value implements driver.Valuer; the zero identifier stores as NULL.
func (id ChatID) Value() (driver.Value, error) {
	if id.IsZero() {
		return nil, nil
	}
	return id.String(), nil
}

// Scan implements sql.Scanner.
func (id *ChatID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*id = ChatID{}
		return nil
	case string:
		return id.scanString(v)
	case []byte:
		return id.scanString(string(v))
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidChatID, src)
	}
}

func (id *ChatID) scanString(raw string) error {
	if raw == "" {
		*id = ChatID{}
		return nil
	}
	parsed, err := ParseChatID(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
