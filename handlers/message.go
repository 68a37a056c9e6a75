package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fleetpulse/connect/directory"
	"github.com/fleetpulse/connect/models"
	"github.com/fleetpulse/connect/pkg"
	"github.com/fleetpulse/connect/pkg/ratelimit"
	"github.com/fleetpulse/connect/realtime"
	"github.com/fleetpulse/connect/repository"
	"github.com/google/uuid"
)

// MessageHandler, mesaj endpoint'lerini yöneten struct.
//
// Create, satırı tabloya yazar ve hub üzerinden insert bildirimi yayınlar
// — uzak cihazların managed senkronizasyonu bu seam'den beslenir.
type MessageHandler struct {
	messageRepo repository.MessageRepository
	channelRepo repository.ChannelRepository
	notifier    realtime.Notifier
	msgLimit    *ratelimit.MessageRateLimiter
}

// NewMessageHandler, constructor.
func NewMessageHandler(messageRepo repository.MessageRepository, channelRepo repository.ChannelRepository, notifier realtime.Notifier, msgLimit *ratelimit.MessageRateLimiter) *MessageHandler {
	return &MessageHandler{
		messageRepo: messageRepo,
		channelRepo: channelRepo,
		notifier:    notifier,
		msgLimit:    msgLimit,
	}
}

// checkChannelAccess, kullanıcının kanala erişimini doğrular ve kanalı döner.
func (h *MessageHandler) checkChannelAccess(r *http.Request, user *models.User, channelID string) (*models.Channel, *directory.Directory, error) {
	channels, err := h.channelRepo.List(r.Context())
	if err != nil {
		return nil, nil, err
	}
	dir := directory.New()
	dir.Replace(channels)

	ch, found := dir.Get(channelID)
	if !found || !dir.CanRead(user, &ch) {
		return nil, nil, pkg.ErrNotFound
	}
	return &ch, dir, nil
}

// List godoc
// GET /api/channels/{channelID}/messages?before=<id>&limit=<n> (auth gerekli)
// Cursor-based pagination; silinmiş mesajlar response'ta yoktur.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	channelID := r.PathValue("channelID")
	if _, _, err := h.checkChannelAccess(r, user, channelID); err != nil {
		pkg.Error(w, err)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	messages, err := h.messageRepo.ListByChannel(r.Context(), channelID, r.URL.Query().Get("before"), limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messages)
}

// Create godoc
// POST /api/channels/{channelID}/messages (auth gerekli)
// Body: models.CreateMessageRequest
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	// Spam koruması — pencere aşılınca cooldown boyunca 429
	if !h.msgLimit.Allow(user.ID) {
		wait := ratelimit.FormatRetryMessage(h.msgLimit.CooldownSeconds(user.ID))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests, "you are sending messages too fast, try again in "+wait)
		return
	}

	channelID := r.PathValue("channelID")
	ch, dir, err := h.checkChannelAccess(r, user, channelID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	if !dir.CanWrite(user, ch) {
		pkg.Error(w, pkg.ErrPermission)
		return
	}

	var req models.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	msg := &models.Message{
		ID:        uuid.NewString(),
		ChannelID: channelID,
		UserID:    user.ID,
		Content:   req.Content,
		Kind:      models.MessageKind(req.Kind),
		Timestamp: time.Now(),
		ReplyTo:   req.ReplyTo,
		Reactions: []models.Reaction{},
		Status:    models.MessageStatusDelivered,
		ReadBy:    []string{},
	}

	if err := h.messageRepo.Create(r.Context(), msg); err != nil {
		pkg.Error(w, err)
		return
	}

	// İnsert bildirimi — abone cihazlar tam satırı refetch eder
	if err := h.notifier.NotifyInsert(realtime.InsertNotification{
		Table:     "messages",
		ChannelID: channelID,
		RowID:     msg.ID,
	}); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, msg)
}

// Update godoc
// PATCH /api/messages/{messageID} (auth gerekli, sadece yazar)
func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	msg, err := h.messageRepo.GetByID(r.Context(), r.PathValue("messageID"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	if msg.UserID != user.ID {
		pkg.Error(w, pkg.ErrPermission)
		return
	}

	var req models.UpdateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	msg.Content = req.Content
	msg.EditedAt = &now

	if err := h.messageRepo.UpdateContent(r.Context(), msg); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, msg)
}

// Delete godoc
// DELETE /api/messages/{messageID} (auth gerekli, yazar veya kanal admin'i)
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	msg, err := h.messageRepo.GetByID(r.Context(), r.PathValue("messageID"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if msg.UserID != user.ID {
		_, dir, err := h.checkChannelAccess(r, user, msg.ChannelID)
		if err != nil {
			pkg.Error(w, err)
			return
		}
		ch, _ := dir.Get(msg.ChannelID)
		if !dir.CanAdminister(user, &ch) {
			pkg.Error(w, pkg.ErrPermission)
			return
		}
	}

	if err := h.messageRepo.SoftDelete(r.Context(), msg.ID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// TogglePin godoc
// POST /api/messages/{messageID}/pin (auth gerekli)
// Kanalı görebilen her üye pin'leyebilir.
func (h *MessageHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	msg, err := h.messageRepo.GetByID(r.Context(), r.PathValue("messageID"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if _, _, err := h.checkChannelAccess(r, user, msg.ChannelID); err != nil {
		pkg.Error(w, err)
		return
	}

	if err := h.messageRepo.SetPinned(r.Context(), msg.ID, !msg.IsPinned); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]bool{"is_pinned": !msg.IsPinned})
}

// MarkRead godoc
// POST /api/messages/{messageID}/read (auth gerekli)
// readBy monotonic'tir — kullanıcı zaten kümede ise no-op.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	msg, err := h.messageRepo.GetByID(r.Context(), r.PathValue("messageID"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if !msg.ReadByUser(user.ID) {
		readBy := append(msg.ReadBy, user.ID)
		if err := h.messageRepo.SetReadBy(r.Context(), msg.ID, readBy, models.MessageStatusRead); err != nil {
			pkg.Error(w, err)
			return
		}
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"status": "read"})
}
