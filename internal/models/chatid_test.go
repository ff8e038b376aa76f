package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseChatIDRoundTrip(t *testing.T) {
	for _, raw := range []string{
		"15551234567@user",
		"98232171758@lid",
		"120363041@group",
		"12034567@newsletter",
		"status@broadcast",
	} {
		id, err := ParseChatID(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if id.String() != raw {
			t.Fatalf("round trip %q -> %q", raw, id.String())
		}
	}
}

func TestParseChatIDRejectsMalformedInput(t *testing.T) {
	for _, raw := range []string{"", "no-scheme", "@lid", "value@", "value@unknown"} {
		if _, err := ParseChatID(raw); !errors.Is(err, ErrInvalidChatID) {
			t.Fatalf("parse %q: expected ErrInvalidChatID, got %v", raw, err)
		}
	}
}

func TestChatIDPredicates(t *testing.T) {
	user := MustChatID("1555@user")
	lid := MustChatID("9823@lid")
	group := MustChatID("1203@group")
	broadcast := MustChatID("status@broadcast")
	newsletter := MustChatID("feed@newsletter")

	if !user.IsUser() || user.IsLID() || user.IsGroupLike() {
		t.Fatalf("user predicates wrong: %+v", user)
	}
	if !lid.IsUser() || !lid.IsLID() {
		t.Fatalf("lid identifiers must count as users: %+v", lid)
	}
	if !group.IsGroupLike() || group.IsUser() {
		t.Fatalf("group predicates wrong: %+v", group)
	}
	if !broadcast.IsGroupLike() {
		t.Fatalf("broadcast must be group-like: %+v", broadcast)
	}
	if !newsletter.IsNewsletter() || newsletter.IsGroupLike() {
		t.Fatalf("newsletter predicates wrong: %+v", newsletter)
	}
}

func TestChatIDZeroValue(t *testing.T) {
	var id ChatID
	if !id.IsZero() {
		t.Fatal("zero identifier must report IsZero")
	}
	if id.String() != "" {
		t.Fatalf("zero identifier canonical form must be empty, got %q", id.String())
	}
	if MustChatID("1@user").IsZero() {
		t.Fatal("populated identifier must not report IsZero")
	}
}

func TestChatIDJSON(t *testing.T) {
	type payload struct {
		Chat ChatID `json:"chat"`
	}

	data, err := json.Marshal(payload{Chat: MustChatID("9823@lid")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"chat":"9823@lid"}` {
		t.Fatalf("unexpected encoding: %s", data)
	}

	var decoded payload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Chat != MustChatID("9823@lid") {
		t.Fatalf("decode mismatch: %+v", decoded.Chat)
	}

	var empty payload
	if err := json.Unmarshal([]byte(`{"chat":""}`), &empty); err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if !empty.Chat.IsZero() {
		t.Fatalf("empty string must decode to the zero identifier: %+v", empty.Chat)
	}
}

func TestChatIDSQLValueAndScan(t *testing.T) {
	id := MustChatID("1555@user")
	val, err := id.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if val != "1555@user" {
		t.Fatalf("unexpected driver value: %v", val)
	}

	var zero ChatID
	val, err = zero.Value()
	if err != nil || val != nil {
		t.Fatalf("zero identifier must store as NULL, got %v, %v", val, err)
	}

	var scanned ChatID
	if err := scanned.Scan("9823@lid"); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if scanned != MustChatID("9823@lid") {
		t.Fatalf("scan mismatch: %+v", scanned)
	}
	if err := scanned.Scan([]byte("1203@group")); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if scanned != MustChatID("1203@group") {
		t.Fatalf("scan bytes mismatch: %+v", scanned)
	}
	if err := scanned.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if !scanned.IsZero() {
		t.Fatal("scanning NULL must reset the identifier")
	}
	if err := scanned.Scan(42); !errors.Is(err, ErrInvalidChatID) {
		t.Fatalf("scan int: expected ErrInvalidChatID, got %v", err)
	}
}
