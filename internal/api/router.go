// Package api serves the mocked Bot API over HTTP.
//
// Three surfaces share one router:
//
//	/bot{token}/{method}        the Bot API methods a bot under test calls
//	/file/bot{token}/{path}     downloads of files handed out by getFile
//	/client/...                 actions a test harness performs as the end user
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/werdnum/telegram-bot-api-mock/internal/logger"
	"github.com/werdnum/telegram-bot-api-mock/internal/media"
	"github.com/werdnum/telegram-bot-api-mock/internal/models"
	"github.com/werdnum/telegram-bot-api-mock/internal/state"
)

// Deliverer pushes updates to a bot's webhook without blocking the caller
type Deliverer interface {
	DeliverInBackground(token string, update models.Update)
}

// methodFunc handles one Bot API method for an already validated token
type methodFunc func(w http.ResponseWriter, r *http.Request, token string)

// Handler holds the dependencies of every route
type Handler struct {
	server    *state.Server
	deliverer Deliverer
	media     *media.Builder
	methods   map[string]methodFunc
}

// NewHandler creates a Handler over server. deliverer may be nil, in which
// case webhooks are recorded but never called.
func NewHandler(server *state.Server, deliverer Deliverer) *Handler {
	h := &Handler{
		server:    server,
		deliverer: deliverer,
		media:     media.NewBuilder(server.Blobs()),
	}

	// Bot API method names are case-insensitive
	h.methods = map[string]methodFunc{
		"getme":               h.handleGetMe,
		"getupdates":          h.handleGetUpdates,
		"sendmessage":         h.handleSendMessage,
		"editmessagetext":     h.handleEditMessageText,
		"deletemessage":       h.handleDeleteMessage,
		"setwebhook":          h.handleSetWebhook,
		"deletewebhook":       h.handleDeleteWebhook,
		"getwebhookinfo":      h.handleGetWebhookInfo,
		"answercallbackquery": h.handleAnswerCallbackQuery,
		"sendchataction":      h.handleSendChatAction,
		"sendphoto":           h.mediaMethod(media.KindPhoto),
		"senddocument":        h.mediaMethod(media.KindDocument),
		"sendvideo":           h.mediaMethod(media.KindVideo),
		"sendaudio":           h.mediaMethod(media.KindAudio),
		"sendvoice":           h.mediaMethod(media.KindVoice),
		"sendanimation":       h.mediaMethod(media.KindAnimation),
		"sendmediagroup":      h.handleSendMediaGroup,
		"getfile":             h.handleGetFile,
	}
	return h
}

// Routes builds the chi router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", h.handleHealth)

	r.Get("/file/bot{token}/*", h.handleDownload)
	r.HandleFunc("/bot{token}/{method}", h.handleBotMethod)

	r.Route("/client", func(r chi.Router) {
		r.Post("/sendMessage", h.handleClientSendMessage)
		r.Post("/sendCommand", h.handleClientSendCommand)
		r.Post("/sendCallback", h.handleClientSendCallback)
		r.Post("/sendPhoto", h.clientMedia(media.KindPhoto))
		r.Post("/sendVideo", h.clientMedia(media.KindVideo))
		r.Post("/sendAudio", h.clientMedia(media.KindAudio))
		r.Post("/sendDocument", h.clientMedia(media.KindDocument))
		r.Get("/getUpdates", h.handleClientGetUpdates)
		r.Get("/getUpdatesHistory", h.handleClientGetUpdatesHistory)
		r.Get("/getMedia/{fileID}", h.handleClientGetMedia)
		r.Get("/getChatActions", h.handleClientGetChatActions)
		r.Get("/getAllChatActions", h.handleClientGetAllChatActions)
		r.Get("/getAnsweredCallbacks", h.handleClientGetAnsweredCallbacks)
		r.Post("/reset", h.handleClientReset)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleBotMethod rejects malformed tokens before dispatching. Methods the
// mock does not model succeed with result true.
func (h *Handler) handleBotMethod(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if _, err := state.ParseToken(token); err != nil {
		writeError(w, err)
		return
	}

	method := chi.URLParam(r, "method")
	handle, ok := h.methods[strings.ToLower(method)]
	if !ok {
		logger.WithFields(logrus.Fields{
			"token":  logger.MaskSecret(token),
			"method": method,
		}).Debug("unmodelled-method-called")
		writeResult(w, true)
		return
	}
	handle(w, r, token)
}

// deliver hands update to the webhook deliverer when the bot has a webhook
func (h *Handler) deliver(bot *state.Bot, update models.Update) {
	if h.deliverer == nil {
		return
	}
	if cfg, ok := bot.Webhook(); ok && cfg.URL != "" {
		h.deliverer.DeliverInBackground(bot.Token, update)
	}
}

// requestLogger logs every request at debug level with tokens masked
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     maskPath(r.URL.Path),
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start).String(),
		}).Debug("http-request")
	})
}

// maskPath hides the secret half of a token embedded in a request path
func maskPath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, "bot") && strings.Contains(part, ":") {
			parts[i] = "bot" + logger.MaskSecret(strings.TrimPrefix(part, "bot"))
		}
	}
	return strings.Join(parts, "/")
}
