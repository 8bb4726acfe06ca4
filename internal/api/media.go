package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/werdnum/telegram-bot-api-mock/internal/media"
	"github.com/werdnum/telegram-bot-api-mock/internal/models"
	"github.com/werdnum/telegram-bot-api-mock/internal/state"
)

const attachPrefix = "attach://"

type sendMediaRequest struct {
	ChatID      *int64             `json:"chat_id"`
	Caption     string             `json:"caption"`
	ReplyMarkup models.ReplyMarkup `json:"reply_markup"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Duration    int                `json:"duration"`
	Performer   string             `json:"performer"`
	Title       string             `json:"title"`
}

func (r sendMediaRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ChatID, validation.NotNil),
		validation.Field(&r.Caption, validation.Length(0, 1024)),
		validation.Field(&r.Width, validation.Min(0)),
		validation.Field(&r.Height, validation.Min(0)),
		validation.Field(&r.Duration, validation.Min(0)),
	)
}

// inputMedia is one element of sendMediaGroup's media array
type inputMedia struct {
	Type      string `json:"type"`
	Media     string `json:"media"`
	Caption   string `json:"caption"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Duration  int    `json:"duration"`
	Performer string `json:"performer"`
	Title     string `json:"title"`
}

func readPart(fh *multipart.FileHeader) (media.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return media.Upload{}, fmt.Errorf("failed to open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return media.Upload{}, fmt.Errorf("failed to read upload %q: %w", fh.Filename, err)
	}
	return media.Upload{
		Data:     data,
		Filename: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
	}, nil
}

// resolve turns a media reference into an attachment: an uploaded part
// (named directly or through attach://) or a file_id already in the blob store
func (h *Handler) resolve(p *params, kind media.Kind, ref string, partName string, extra media.Upload) (media.Attachment, bool, error) {
	if strings.HasPrefix(ref, attachPrefix) {
		partName = strings.TrimPrefix(ref, attachPrefix)
	}
	if partName != "" {
		if fh, ok := p.file(partName); ok {
			up, err := readPart(fh)
			if err != nil {
				return media.Attachment{}, false, err
			}
			up.Width, up.Height, up.Duration = extra.Width, extra.Height, extra.Duration
			up.Performer, up.Title = extra.Performer, extra.Title
			att, err := h.media.Build(kind, up)
			return att, err == nil, err
		}
	}
	if ref != "" && !strings.HasPrefix(ref, attachPrefix) {
		if att, ok := h.media.Reuse(kind, ref, extra); ok {
			return att, true, nil
		}
	}
	return media.Attachment{}, false, nil
}

// mediaMethod serves sendPhoto, sendDocument and the other single-file methods
func (h *Handler) mediaMethod(kind media.Kind) methodFunc {
	field := string(kind)

	return func(w http.ResponseWriter, r *http.Request, token string) {
		b, ok := bind(w, r)
		if !ok {
			return
		}
		req := sendMediaRequest{
			ChatID:      b.Int64("chat_id"),
			Caption:     b.String("caption"),
			ReplyMarkup: b.Markup("reply_markup"),
			Width:       b.Int("width"),
			Height:      b.Int("height"),
			Duration:    b.Int("duration"),
			Performer:   b.String("performer"),
			Title:       b.String("title"),
		}
		if err := b.check(req); err != nil {
			writeError(w, err)
			return
		}

		ref, hasRef := b.p.text(field)
		if _, hasPart := b.p.file(field); !hasPart && (!hasRef || ref == "") {
			writeError(w, invalidField(field, "cannot be blank"))
			return
		}

		att, found, err := h.resolve(b.p, kind, ref, field, media.Upload{
			Width:     req.Width,
			Height:    req.Height,
			Duration:  req.Duration,
			Performer: req.Performer,
			Title:     req.Title,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		if !found {
			writeError(w, badRequest("wrong file identifier/HTTP URL specified"))
			return
		}

		var sent models.Message
		_, err = h.server.WithBot(token, func(tx *state.Tx) error {
			msg := h.newBotMessage(tx, *req.ChatID)
			att.Apply(&msg)
			msg.Caption = req.Caption
			msg.ReplyMarkup = req.ReplyMarkup.InlineKeyboard()
			sent = tx.AddMessage(msg, true).Message
			return nil
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, sent)
	}
}

// handleSendMediaGroup creates one message per item, all sharing a
// media_group_id. Items whose media cannot be resolved become text messages
// carrying their caption.
func (h *Handler) handleSendMediaGroup(w http.ResponseWriter, r *http.Request, token string) {
	b, ok := bind(w, r)
	if !ok {
		return
	}
	chatID := b.Int64("chat_id")
	if err := b.Err(); err != nil {
		writeError(w, err)
		return
	}
	if chatID == nil {
		writeError(w, invalidField("chat_id", "is required"))
		return
	}

	raw, ok := b.p.raw("media")
	if !ok {
		writeError(w, invalidField("media", "cannot be blank"))
		return
	}
	items, err := decodeMediaGroup(raw)
	if err != nil {
		writeError(w, badRequest("invalid media JSON"))
		return
	}

	attachments := make([]*media.Attachment, len(items))
	for i, item := range items {
		kind, known := media.ParseKind(item.Type)
		if !known {
			continue
		}
		att, found, err := h.resolve(b.p, kind, item.Media, "", media.Upload{
			Width:     item.Width,
			Height:    item.Height,
			Duration:  item.Duration,
			Performer: item.Performer,
			Title:     item.Title,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		if found {
			attachments[i] = &att
		}
	}

	groupID := uuid.NewString()
	sent := make([]models.Message, 0, len(items))
	_, err = h.server.WithBot(token, func(tx *state.Tx) error {
		for i, item := range items {
			msg := h.newBotMessage(tx, *chatID)
			msg.MediaGroupID = groupID
			if att := attachments[i]; att != nil {
				att.Apply(&msg)
				msg.Caption = item.Caption
			} else {
				msg.Text = item.Caption
			}
			sent = append(sent, tx.AddMessage(msg, true).Message)
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, sent)
}

// decodeMediaGroup accepts the array embedded in a JSON body or as form text
func decodeMediaGroup(raw []byte) ([]inputMedia, error) {
	var items []inputMedia
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		raw = []byte(text)
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (h *Handler) handleGetFile(w http.ResponseWriter, r *http.Request, token string) {
	b, ok := bind(w, r)
	if !ok {
		return
	}
	fileID := b.String("file_id")
	if fileID == "" {
		writeError(w, badRequest("file_id is required"))
		return
	}

	blob, found := h.server.Blobs().Get(fileID)
	if !found {
		writeError(w, badRequest("file not found"))
		return
	}
	writeResult(w, media.FileInfo(token, fileID, blob))
}

// handleDownload serves /file/bot{token}/files/{token}/{file_id}/{filename}
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	fileID, ok := media.ParseFilePath(token, chi.URLParam(r, "*"))
	if !ok {
		writeText(w, http.StatusBadRequest, "Invalid file path")
		return
	}

	blob, found := h.server.Blobs().Get(fileID)
	if !found {
		writeText(w, http.StatusNotFound, "File not found")
		return
	}
	writeBlob(w, blob, false)
}
