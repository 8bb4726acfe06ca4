package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/werdnum/telegram-bot-api-mock/internal/models"
	"github.com/werdnum/telegram-bot-api-mock/internal/state"
)

func TestBuilder_PhotoSizes(t *testing.T) {
	blobs := state.NewBlobStore()
	b := NewBuilder(blobs)

	att, err := b.Build(KindPhoto, Upload{Data: []byte("jpeg-bytes"), Filename: "cat.jpg", MimeType: "image/png"})
	require.NoError(t, err)
	require.Len(t, att.Photo, 3)
	assert.Equal(t, 3, blobs.Count())

	wantEdges := []int{90, 320, 800}
	wantNames := []string{"cat.jpg_s", "cat.jpg_m", "cat.jpg_x"}
	for i, size := range att.Photo {
		assert.Equal(t, wantEdges[i], size.Width)
		assert.Equal(t, wantEdges[i], size.Height)
		assert.Equal(t, len("jpeg-bytes"), size.FileSize)
		assert.Equal(t, state.FileUniqueID(size.FileID), size.FileUniqueID)
		assert.NotEqual(t, size.FileID, size.FileUniqueID)

		blob, ok := blobs.Get(size.FileID)
		require.True(t, ok)
		assert.Equal(t, wantNames[i], blob.Filename)
		assert.Equal(t, "image/jpeg", blob.MimeType)
		assert.Equal(t, []byte("jpeg-bytes"), blob.Data)
	}
}

func TestBuilder_Defaults(t *testing.T) {
	tests := []struct {
		kind     Kind
		upload   Upload
		filename string
		mime     string
	}{
		{KindDocument, Upload{}, "document", "application/octet-stream"},
		{KindDocument, Upload{Filename: "a.pdf", MimeType: "application/pdf"}, "a.pdf", "application/pdf"},
		{KindVideo, Upload{MimeType: "application/octet-stream"}, "video.mp4", "video/mp4"},
		{KindAudio, Upload{}, "audio.mp3", "audio/mpeg"},
		{KindAudio, Upload{Filename: "song.flac", MimeType: "audio/flac"}, "song.flac", "audio/flac"},
		{KindVoice, Upload{Filename: "note.wav", MimeType: "audio/wav"}, "voice.ogg", "audio/ogg"},
		{KindAnimation, Upload{}, "animation.gif", "image/gif"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.filename, func(t *testing.T) {
			blobs := state.NewBlobStore()
			tt.upload.Data = []byte("payload")

			att, err := NewBuilder(blobs).Build(tt.kind, tt.upload)
			require.NoError(t, err)

			var msg models.Message
			att.Apply(&msg)

			var fileID string
			switch tt.kind {
			case KindDocument:
				require.NotNil(t, msg.Document)
				fileID = msg.Document.FileID
				assert.Equal(t, tt.filename, msg.Document.FileName)
			case KindVideo:
				require.NotNil(t, msg.Video)
				fileID = msg.Video.FileID
			case KindAudio:
				require.NotNil(t, msg.Audio)
				fileID = msg.Audio.FileID
			case KindVoice:
				require.NotNil(t, msg.Voice)
				fileID = msg.Voice.FileID
				assert.Equal(t, "audio/ogg", msg.Voice.MimeType)
			case KindAnimation:
				require.NotNil(t, msg.Animation)
				fileID = msg.Animation.FileID
			}

			blob, ok := blobs.Get(fileID)
			require.True(t, ok)
			assert.Equal(t, tt.filename, blob.Filename)
			assert.Equal(t, tt.mime, blob.MimeType)
		})
	}
}

func TestBuilder_DescriptiveFields(t *testing.T) {
	b := NewBuilder(state.NewBlobStore())

	att, err := b.Build(KindAudio, Upload{Data: []byte("mp3"), Duration: 180, Performer: "Band", Title: "Song"})
	require.NoError(t, err)
	require.NotNil(t, att.Audio)
	assert.Equal(t, 180, att.Audio.Duration)
	assert.Equal(t, "Band", att.Audio.Performer)
	assert.Equal(t, "Song", att.Audio.Title)
	assert.Equal(t, 3, att.Audio.FileSize)

	att, err = b.Build(KindVideo, Upload{Data: []byte("mp4"), Width: 1920, Height: 1080, Duration: 60})
	require.NoError(t, err)
	require.NotNil(t, att.Video)
	assert.Equal(t, 1920, att.Video.Width)
	assert.Equal(t, 1080, att.Video.Height)
	assert.Equal(t, 60, att.Video.Duration)
}

func TestBuilder_UnknownKind(t *testing.T) {
	_, err := NewBuilder(state.NewBlobStore()).Build(Kind("sticker"), Upload{})
	assert.Error(t, err)
}

func TestBuilder_Reuse(t *testing.T) {
	blobs := state.NewBlobStore()
	b := NewBuilder(blobs)
	fileID := blobs.Store([]byte("report"), "report.pdf", "application/pdf")

	att, ok := b.Reuse(KindDocument, fileID, Upload{})
	require.True(t, ok)
	require.NotNil(t, att.Document)
	assert.Equal(t, fileID, att.Document.FileID)
	assert.Equal(t, "report.pdf", att.Document.FileName)
	assert.Equal(t, 6, att.Document.FileSize)
	assert.Equal(t, 1, blobs.Count(), "reuse must not store a copy")

	att, ok = b.Reuse(KindPhoto, fileID, Upload{})
	require.True(t, ok)
	require.Len(t, att.Photo, 1)
	assert.Equal(t, fileID, att.Photo[0].FileID)
	assert.Equal(t, 800, att.Photo[0].Width)

	_, ok = b.Reuse(KindDocument, "missing", Upload{})
	assert.False(t, ok)
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("Photo")
	assert.True(t, ok)
	assert.Equal(t, KindPhoto, k)

	_, ok = ParseKind("sticker")
	assert.False(t, ok)
}

func TestFilePaths(t *testing.T) {
	const token = "123:abc"
	path := FilePath(token, "file-1", "cat.jpg")
	assert.Equal(t, "files/123:abc/file-1/cat.jpg", path)

	id, ok := ParseFilePath(token, path)
	require.True(t, ok)
	assert.Equal(t, "file-1", id)

	tests := []string{
		"files/999:other/file-1/cat.jpg",
		"uploads/123:abc/file-1/cat.jpg",
		"files/123:abc",
		"files/123:abc//cat.jpg",
	}
	for _, p := range tests {
		_, ok := ParseFilePath(token, p)
		assert.False(t, ok, p)
	}

	info := FileInfo(token, "file-1", state.Blob{Data: []byte("1234"), Filename: "cat.jpg"})
	assert.Equal(t, path, info.FilePath)
	assert.Equal(t, 4, info.FileSize)
	assert.Equal(t, state.FileUniqueID("file-1"), info.FileUniqueID)
}
