package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/werdnum/telegram-bot-api-mock/internal/models"
)

type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

// postMultipart sends fields and files the way Bot API client libraries do
func (a *testAPI) postMultipart(t *testing.T, method string, fields map[string]string, files ...filePart) tgbotapi.APIResponse {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		ct := f.contentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(a.botURL(testToken, method), mw.FormDataContentType(), &body)
	require.NoError(t, err)
	status, env := decode(t, resp)
	require.Equal(t, http.StatusOK, status, env.Description)
	return env
}

func TestSendPhoto(t *testing.T) {
	api := newTestAPI(t)

	env := api.postMultipart(t, "sendPhoto",
		map[string]string{"chat_id": "4", "caption": "look"},
		filePart{field: "photo", filename: "cat.jpg", data: []byte("jpeg-bytes")},
	)

	var msg models.Message
	result(t, env, &msg)
	assert.Equal(t, "look", msg.Caption)
	assert.Empty(t, msg.Text)
	require.Len(t, msg.Photo, 3)

	wantEdges := []int{90, 320, 800}
	for i, size := range msg.Photo {
		assert.Equal(t, wantEdges[i], size.Width)
		assert.Equal(t, wantEdges[i], size.Height)
		assert.Equal(t, len("jpeg-bytes"), size.FileSize)

		blob, ok := api.server.Blobs().Get(size.FileID)
		require.True(t, ok)
		assert.Equal(t, "image/jpeg", blob.MimeType)
	}
	assert.Equal(t, 3, api.server.Blobs().Count())
}

func TestSendMedia_Defaults(t *testing.T) {
	tests := []struct {
		method       string
		field        string
		filename     string
		contentType  string
		wantFilename string
		wantMime     string
		fileID       func(models.Message) string
	}{
		{
			method: "sendDocument", field: "document", filename: "report.pdf", contentType: "application/pdf",
			wantFilename: "report.pdf", wantMime: "application/pdf",
			fileID: func(m models.Message) string { return m.Document.FileID },
		},
		{
			method: "sendDocument", field: "document", filename: "blob.bin",
			wantFilename: "blob.bin", wantMime: "application/octet-stream",
			fileID: func(m models.Message) string { return m.Document.FileID },
		},
		{
			method: "sendVideo", field: "video", filename: "clip.mp4",
			wantFilename: "clip.mp4", wantMime: "video/mp4",
			fileID: func(m models.Message) string { return m.Video.FileID },
		},
		{
			method: "sendAudio", field: "audio", filename: "song.mp3",
			wantFilename: "song.mp3", wantMime: "audio/mpeg",
			fileID: func(m models.Message) string { return m.Audio.FileID },
		},
		{
			method: "sendVoice", field: "voice", filename: "note.wav", contentType: "audio/wav",
			wantFilename: "voice.ogg", wantMime: "audio/ogg",
			fileID: func(m models.Message) string { return m.Voice.FileID },
		},
		{
			method: "sendAnimation", field: "animation", filename: "fun.gif",
			wantFilename: "fun.gif", wantMime: "image/gif",
			fileID: func(m models.Message) string { return m.Animation.FileID },
		},
	}

	for _, tt := range tests {
		t.Run(tt.method+"/"+tt.filename, func(t *testing.T) {
			api := newTestAPI(t)

			env := api.postMultipart(t, tt.method,
				map[string]string{"chat_id": "1"},
				filePart{field: tt.field, filename: tt.filename, contentType: tt.contentType, data: []byte("payload")},
			)

			var msg models.Message
			result(t, env, &msg)

			blob, ok := api.server.Blobs().Get(tt.fileID(msg))
			require.True(t, ok)
			assert.Equal(t, tt.wantFilename, blob.Filename)
			assert.Equal(t, tt.wantMime, blob.MimeType)
			assert.Equal(t, []byte("payload"), blob.Data)
		})
	}
}

func TestSendAudio_DescriptiveFields(t *testing.T) {
	api := newTestAPI(t)

	env := api.postMultipart(t, "sendAudio",
		map[string]string{"chat_id": "1", "duration": "93", "performer": "Band", "title": "Song"},
		filePart{field: "audio", filename: "song.mp3", data: []byte("mp3")},
	)

	var msg models.Message
	result(t, env, &msg)
	require.NotNil(t, msg.Audio)
	assert.Equal(t, 93, msg.Audio.Duration)
	assert.Equal(t, "Band", msg.Audio.Performer)
	assert.Equal(t, "Song", msg.Audio.Title)
}

func TestSendMedia_ReuseFileID(t *testing.T) {
	api := newTestAPI(t)

	var first models.Message
	result(t, api.postMultipart(t, "sendDocument",
		map[string]string{"chat_id": "1"},
		filePart{field: "document", filename: "a.txt", contentType: "text/plain", data: []byte("abc")},
	), &first)

	var again models.Message
	result(t, api.call(t, "sendDocument", map[string]interface{}{
		"chat_id":  2,
		"document": first.Document.FileID,
	}), &again)

	require.NotNil(t, again.Document)
	assert.Equal(t, first.Document.FileID, again.Document.FileID)
	assert.Equal(t, 1, api.server.Blobs().Count(), "reuse stores nothing new")
}

func TestSendMedia_Errors(t *testing.T) {
	api := newTestAPI(t)

	t.Run("unknown file id", func(t *testing.T) {
		env := api.call(t, "sendPhoto", map[string]interface{}{"chat_id": 1, "photo": "nope"})
		assert.False(t, env.Ok)
		assert.Equal(t, "Bad Request: wrong file identifier/HTTP URL specified", env.Description)
	})

	t.Run("missing media", func(t *testing.T) {
		status, env := api.postJSON(t, api.botURL(testToken, "sendVideo"), map[string]interface{}{"chat_id": 1})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Bad Request: validation error for 'video' - cannot be blank", env.Description)
	})

	t.Run("missing chat id", func(t *testing.T) {
		status, env := api.postJSON(t, api.botURL(testToken, "sendVideo"), map[string]interface{}{"video": "x"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Bad Request: validation error for 'chat_id' - is required", env.Description)
	})
}

func TestSendMediaGroup(t *testing.T) {
	api := newTestAPI(t)

	env := api.postMultipart(t, "sendMediaGroup",
		map[string]string{
			"chat_id": "8",
			"media": `[
				{"type":"photo","media":"attach://file-0","caption":"first"},
				{"type":"document","media":"attach://file-1"},
				{"type":"photo","media":"attach://missing","caption":"placeholder"}
			]`,
		},
		filePart{field: "file-0", filename: "a.jpg", data: []byte("a")},
		filePart{field: "file-1", filename: "b.txt", contentType: "text/plain", data: []byte("b")},
	)

	var msgs []models.Message
	result(t, env, &msgs)
	require.Len(t, msgs, 3)

	groupID := msgs[0].MediaGroupID
	assert.NotEmpty(t, groupID)
	for _, m := range msgs {
		assert.Equal(t, groupID, m.MediaGroupID)
		assert.Equal(t, int64(8), m.Chat.ID)
	}

	assert.Len(t, msgs[0].Photo, 3)
	assert.Equal(t, "first", msgs[0].Caption)
	require.NotNil(t, msgs[1].Document)
	assert.Equal(t, "b.txt", msgs[1].Document.FileName)
	assert.Nil(t, msgs[2].Photo)
	assert.Equal(t, "placeholder", msgs[2].Text)

	assert.Less(t, msgs[0].MessageID, msgs[1].MessageID)
	assert.Less(t, msgs[1].MessageID, msgs[2].MessageID)
}

func TestSendMediaGroup_InvalidJSON(t *testing.T) {
	api := newTestAPI(t)

	env := api.postMultipart(t, "sendMediaGroup", map[string]string{"chat_id": "1", "media": "[not json"})
	assert.False(t, env.Ok)
	assert.Equal(t, "Bad Request: invalid media JSON", env.Description)
}

func TestGetFileAndDownload(t *testing.T) {
	api := newTestAPI(t)

	var msg models.Message
	result(t, api.postMultipart(t, "sendDocument",
		map[string]string{"chat_id": "1"},
		filePart{field: "document", filename: "notes.txt", contentType: "text/plain", data: []byte("some notes")},
	), &msg)
	fileID := msg.Document.FileID

	var file tgbotapi.File
	result(t, api.call(t, "getFile", map[string]interface{}{"file_id": fileID}), &file)
	assert.Equal(t, fileID, file.FileID)
	assert.Len(t, file.FileUniqueID, 16)
	assert.Equal(t, len("some notes"), file.FileSize)
	assert.Equal(t, fmt.Sprintf("files/%s/%s/notes.txt", testToken, fileID), file.FilePath)

	resp, err := http.Get(api.srv.URL + "/file/bot" + testToken + "/" + file.FilePath)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, "some notes", string(body))
}

func TestGetFile_Errors(t *testing.T) {
	api := newTestAPI(t)

	env := api.call(t, "getFile", map[string]interface{}{})
	assert.Equal(t, "Bad Request: file_id is required", env.Description)

	status, env := api.get(t, api.botURL(testToken, "getFile")+"?file_id=missing")
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, env.Ok)
	assert.Equal(t, "Bad Request: file not found", env.Description)
}

func TestDownload_Errors(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "wrong prefix",
			path:       "/file/bot" + testToken + "/other/" + testToken + "/id/name",
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid file path",
		},
		{
			name:       "token mismatch",
			path:       "/file/bot" + testToken + "/files/999:other/id/name",
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid file path",
		},
		{
			name:       "unknown file",
			path:       "/file/bot" + testToken + "/files/" + testToken + "/missing/name",
			wantStatus: http.StatusNotFound,
			wantBody:   "File not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(api.srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}
