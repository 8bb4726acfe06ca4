package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MarkupKind identifies which variant a ReplyMarkup holds
type MarkupKind int

const (
	MarkupNone MarkupKind = iota
	MarkupInlineKeyboard
	MarkupReplyKeyboard
	MarkupRemoveKeyboard
	MarkupForceReply
)

// markupVariants lists the discriminating key of each variant in match order
var markupVariants = []struct {
	key  string
	kind MarkupKind
}{
	{"inline_keyboard", MarkupInlineKeyboard},
	{"keyboard", MarkupReplyKeyboard},
	{"remove_keyboard", MarkupRemoveKeyboard},
	{"force_reply", MarkupForceReply},
}

// ReplyMarkup is one of the four reply_markup shapes. Exactly one of the
// variant pointers is set unless Kind is MarkupNone.
type ReplyMarkup struct {
	Kind       MarkupKind
	Inline     *tgbotapi.InlineKeyboardMarkup
	Keyboard   *tgbotapi.ReplyKeyboardMarkup
	Remove     *tgbotapi.ReplyKeyboardRemove
	ForceReply *tgbotapi.ForceReply
}

// ParseReplyMarkup decodes a reply_markup value. The value may be a JSON
// object or a JSON string holding one, as form-encoded clients send it.
// An object carrying none of the discriminating keys yields MarkupNone.
func ParseReplyMarkup(data []byte) (ReplyMarkup, error) {
	var m ReplyMarkup
	err := m.UnmarshalJSON(data)
	return m, err
}

// UnmarshalJSON implements json.Unmarshaler
func (m *ReplyMarkup) UnmarshalJSON(data []byte) error {
	*m = ReplyMarkup{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		if encoded == "" {
			return nil
		}
		return m.UnmarshalJSON([]byte(encoded))
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("reply_markup must be an object: %w", err)
	}

	for _, v := range markupVariants {
		if _, ok := keys[v.key]; !ok {
			continue
		}
		var target interface{}
		switch v.kind {
		case MarkupInlineKeyboard:
			m.Inline = &tgbotapi.InlineKeyboardMarkup{}
			target = m.Inline
		case MarkupReplyKeyboard:
			m.Keyboard = &tgbotapi.ReplyKeyboardMarkup{}
			target = m.Keyboard
		case MarkupRemoveKeyboard:
			m.Remove = &tgbotapi.ReplyKeyboardRemove{}
			target = m.Remove
		case MarkupForceReply:
			m.ForceReply = &tgbotapi.ForceReply{}
			target = m.ForceReply
		}
		if err := json.Unmarshal(data, target); err != nil {
			*m = ReplyMarkup{}
			return fmt.Errorf("invalid %s: %w", v.key, err)
		}
		m.Kind = v.kind
		return nil
	}

	return nil
}

// MarshalJSON implements json.Marshaler
func (m ReplyMarkup) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case MarkupInlineKeyboard:
		return json.Marshal(m.Inline)
	case MarkupReplyKeyboard:
		return json.Marshal(m.Keyboard)
	case MarkupRemoveKeyboard:
		return json.Marshal(m.Remove)
	case MarkupForceReply:
		return json.Marshal(m.ForceReply)
	}
	return []byte("null"), nil
}

// InlineKeyboard returns the inline variant, the only one kept on messages
func (m ReplyMarkup) InlineKeyboard() *tgbotapi.InlineKeyboardMarkup {
	if m.Kind != MarkupInlineKeyboard {
		return nil
	}
	return m.Inline
}
