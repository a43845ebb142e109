package orch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

// Chat relays a message to everyone in the room, sender included.
func (o *Orchestrator) Chat(cid domain.ConnID, roomID domain.RoomID, text string) error {
	text = strings.TrimSpace(text)
	if err := checkText(text, o.Limits.MaxChatLen, "text"); err != nil {
		return err
	}
	id, room, err := o.joinedRoom(cid, roomID)
	if err != nil {
		return err
	}
	o.Fanout.ToConnections(room.Recipients(""), core.NewEvent(core.EventChat, core.ChatPayload{
		RoomID:     roomID,
		Sender:     id.Sender(),
		Text:       text,
		ServerTime: core.UnixMilli(o.Rooms.Clock().Now()),
	}))
	return nil
}

// React relays a reaction; nothing is kept.
func (o *Orchestrator) React(cid domain.ConnID, roomID domain.RoomID, kind string) error {
	kind = strings.TrimSpace(kind)
	if err := checkText(kind, o.Limits.MaxReactionLen, "reaction"); err != nil {
		return err
	}
	id, room, err := o.joinedRoom(cid, roomID)
	if err != nil {
		return err
	}
	o.Fanout.ToConnections(room.Recipients(""), core.NewEvent(core.EventReaction, core.ReactionPayload{
		RoomID:     roomID,
		Sender:     id.Sender(),
		Reaction:   kind,
		ServerTime: core.UnixMilli(o.Rooms.Clock().Now()),
	}))
	return nil
}

func checkText(s string, max int, field string) error {
	if s == "" {
		return fmt.Errorf("%w: empty %s", core.ErrValidation, field)
	}
	if max > 0 && utf8.RuneCountInString(s) > max {
		return fmt.Errorf("%w: %s longer than %d characters", core.ErrValidation, field, max)
	}
	return nil
}
