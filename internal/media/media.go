// Package media turns uploaded bytes into the file objects carried by messages.
//
// Every object references a blob in the shared store; the blob key is the
// file_id and FileUniqueID derives the file_unique_id from it.
package media

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/werdnum/telegram-bot-api-mock/internal/models"
	"github.com/werdnum/telegram-bot-api-mock/internal/state"
	"github.com/werdnum/telegram-bot-api-mock/pkg/constants"
)

// Kind names a media field of a message
type Kind string

const (
	KindPhoto     Kind = "photo"
	KindDocument  Kind = "document"
	KindVideo     Kind = "video"
	KindAudio     Kind = "audio"
	KindVoice     Kind = "voice"
	KindAnimation Kind = "animation"
)

const octetStream = "application/octet-stream"

var defaults = map[Kind]struct{ filename, mime string }{
	KindPhoto:     {"photo.jpg", "image/jpeg"},
	KindDocument:  {"document", octetStream},
	KindVideo:     {"video.mp4", "video/mp4"},
	KindAudio:     {"audio.mp3", "audio/mpeg"},
	KindVoice:     {"voice.ogg", "audio/ogg"},
	KindAnimation: {"animation.gif", "image/gif"},
}

// ParseKind validates a media type name such as the "type" of an InputMedia item
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	_, ok := defaults[k]
	return k, ok
}

// Upload is one received file plus the descriptive fields sent alongside it
type Upload struct {
	Data      []byte
	Filename  string
	MimeType  string
	Width     int
	Height    int
	Duration  int
	Performer string
	Title     string
}

// withDefaults fills in the filename and mime type for kind. A generic
// octet-stream content type only survives for documents.
func (u Upload) withDefaults(kind Kind) Upload {
	d := defaults[kind]
	if u.Filename == "" {
		u.Filename = d.filename
	}
	if u.MimeType == "" || (u.MimeType == octetStream && kind != KindDocument) {
		u.MimeType = d.mime
	}
	return u
}

// Attachment is the media part of a message. Exactly one field is set.
type Attachment struct {
	Photo     []tgbotapi.PhotoSize
	Document  *tgbotapi.Document
	Video     *tgbotapi.Video
	Audio     *tgbotapi.Audio
	Voice     *tgbotapi.Voice
	Animation *tgbotapi.Animation
}

// Apply copies the attachment onto msg
func (a Attachment) Apply(msg *models.Message) {
	switch {
	case len(a.Photo) > 0:
		msg.Photo = a.Photo
	case a.Document != nil:
		msg.Document = a.Document
	case a.Video != nil:
		msg.Video = a.Video
	case a.Audio != nil:
		msg.Audio = a.Audio
	case a.Voice != nil:
		msg.Voice = a.Voice
	case a.Animation != nil:
		msg.Animation = a.Animation
	}
}

// Builder stores uploads in a blob store and describes them
type Builder struct {
	blobs *state.BlobStore
}

// NewBuilder creates a Builder over blobs
func NewBuilder(blobs *state.BlobStore) *Builder {
	return &Builder{blobs: blobs}
}

// Build stores up and returns the attachment for kind
func (b *Builder) Build(kind Kind, up Upload) (Attachment, error) {
	if _, ok := defaults[kind]; !ok {
		return Attachment{}, fmt.Errorf("unsupported media kind %q", kind)
	}
	up = up.withDefaults(kind)

	if kind == KindPhoto {
		return Attachment{Photo: b.PhotoSizes(up.Data, up.Filename)}, nil
	}

	// Voice notes are always stored as ogg regardless of the upload name
	if kind == KindVoice {
		up.Filename, up.MimeType = defaults[KindVoice].filename, defaults[KindVoice].mime
	}

	fileID := b.blobs.Store(up.Data, up.Filename, up.MimeType)
	return describe(kind, fileID, up), nil
}

// Reuse describes an already stored blob as kind without storing anything.
// It reports false when fileID is unknown.
func (b *Builder) Reuse(kind Kind, fileID string, up Upload) (Attachment, bool) {
	blob, ok := b.blobs.Get(fileID)
	if !ok {
		return Attachment{}, false
	}
	if _, ok := defaults[kind]; !ok {
		return Attachment{}, false
	}

	up.Data = blob.Data
	up.Filename = blob.Filename
	up.MimeType = blob.MimeType

	if kind == KindPhoto {
		width, height := up.Width, up.Height
		if width == 0 {
			width = constants.PhotoLargeSize
		}
		if height == 0 {
			height = constants.PhotoLargeSize
		}
		return Attachment{Photo: []tgbotapi.PhotoSize{{
			FileID:       fileID,
			FileUniqueID: state.FileUniqueID(fileID),
			Width:        width,
			Height:       height,
			FileSize:     len(blob.Data),
		}}}, true
	}
	return describe(kind, fileID, up), true
}

// PhotoSizes stores one copy of data per simulated resolution
func (b *Builder) PhotoSizes(data []byte, filename string) []tgbotapi.PhotoSize {
	sizes := []struct {
		edge   int
		suffix string
	}{
		{constants.PhotoSmallSize, "s"},
		{constants.PhotoMediumSize, "m"},
		{constants.PhotoLargeSize, "x"},
	}

	out := make([]tgbotapi.PhotoSize, 0, len(sizes))
	for _, size := range sizes {
		fileID := b.blobs.Store(data, filename+"_"+size.suffix, defaults[KindPhoto].mime)
		out = append(out, tgbotapi.PhotoSize{
			FileID:       fileID,
			FileUniqueID: state.FileUniqueID(fileID),
			Width:        size.edge,
			Height:       size.edge,
			FileSize:     len(data),
		})
	}
	return out
}

func describe(kind Kind, fileID string, up Upload) Attachment {
	uniqueID := state.FileUniqueID(fileID)
	size := len(up.Data)

	switch kind {
	case KindDocument:
		return Attachment{Document: &tgbotapi.Document{
			FileID:       fileID,
			FileUniqueID: uniqueID,
			FileName:     up.Filename,
			MimeType:     up.MimeType,
			FileSize:     size,
		}}
	case KindVideo:
		return Attachment{Video: &tgbotapi.Video{
			FileID:       fileID,
			FileUniqueID: uniqueID,
			Width:        up.Width,
			Height:       up.Height,
			Duration:     up.Duration,
			FileName:     up.Filename,
			MimeType:     up.MimeType,
			FileSize:     size,
		}}
	case KindAudio:
		return Attachment{Audio: &tgbotapi.Audio{
			FileID:       fileID,
			FileUniqueID: uniqueID,
			Duration:     up.Duration,
			Performer:    up.Performer,
			Title:        up.Title,
			FileName:     up.Filename,
			MimeType:     up.MimeType,
			FileSize:     size,
		}}
	case KindVoice:
		return Attachment{Voice: &tgbotapi.Voice{
			FileID:       fileID,
			FileUniqueID: uniqueID,
			Duration:     up.Duration,
			MimeType:     up.MimeType,
			FileSize:     size,
		}}
	case KindAnimation:
		return Attachment{Animation: &tgbotapi.Animation{
			FileID:       fileID,
			FileUniqueID: uniqueID,
			Width:        up.Width,
			Height:       up.Height,
			Duration:     up.Duration,
			FileName:     up.Filename,
			MimeType:     up.MimeType,
			FileSize:     size,
		}}
	}
	return Attachment{}
}

// FileInfo builds the getFile result for a stored blob
func FileInfo(token, fileID string, blob state.Blob) tgbotapi.File {
	return tgbotapi.File{
		FileID:       fileID,
		FileUniqueID: state.FileUniqueID(fileID),
		FileSize:     len(blob.Data),
		FilePath:     FilePath(token, fileID, blob.Filename),
	}
}

// FilePath is the download path handed out by getFile
func FilePath(token, fileID, filename string) string {
	return fmt.Sprintf("files/%s/%s/%s", token, fileID, filename)
}

// ParseFilePath extracts the file id from a download path issued for token
func ParseFilePath(token, path string) (string, bool) {
	parts := strings.Split(path, "/")
	if len(parts) < 3 || parts[0] != "files" || parts[1] != token || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}
