package models

import "time"

// LIDOriginGeneral marks chat records created by the self-healing lookup
// rather than by a specific user action.
const LIDOriginGeneral = "general"

// ChatRecord is one conversation thread in the host's store. This layer
// creates records at most once per missing lookup; the host owns them
// afterwards and nothing here ever deletes one.
type ChatRecord struct {
	ID             ChatID    `db:"id" json:"id"`
	AccountLID     ChatID    `db:"account_lid" json:"account_lid,omitempty"`
	Name           string    `db:"name" json:"name"`
	CreatedLocally bool      `db:"created_locally" json:"created_locally"`
	LIDOriginType  string    `db:"lid_origin_type" json:"lid_origin_type,omitempty"`
	UnreadCount    int       `db:"unread_count" json:"unread_count"`
	PriorID        ChatID    `db:"prior_id" json:"prior_id,omitempty"`
	Hidden         bool      `db:"hidden" json:"hidden"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`

	LastMessage *Message `db:"-" json:"last_message,omitempty"`
}

// ChatCreationOptions carries the creation options this layer understands.
// The repair path fills AccountLID in place before the host primitive runs;
// callers that set it keep their value.
type ChatCreationOptions struct {
	AccountLID     ChatID `json:"account_lid,omitempty"`
	CreatedLocally bool   `json:"created_locally"`
	LIDOriginType  string `json:"lid_origin_type,omitempty"`
}

// ChatAttribute names one lazily derived chat property.
type ChatAttribute string

const (
	AttrIsUser             ChatAttribute = "is_user"
	AttrIsGroup            ChatAttribute = "is_group"
	AttrIsNewsletter       ChatAttribute = "is_newsletter"
	AttrPreviewText        ChatAttribute = "preview_text"
	AttrChangeNumberNotice ChatAttribute = "change_number_notice"
	AttrHasUnread          ChatAttribute = "has_unread"
	AttrVisibleInList      ChatAttribute = "visible_in_list"
)
