package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fleetpulse/connect/pkg"
	"github.com/fleetpulse/connect/presence"
	"github.com/fleetpulse/connect/repository"
)

// TypingHandler, typing indicator endpoint'lerini yöneten struct.
//
// Managed stratejide typing için push yoktur: client yazmaya başlayınca
// satır upsert eder, diğer cihazlar kısa aralıkla GET ile poll eder.
// Pencere presence.TypingTTL ile aynıdır — yenilenmeyen satır görünmez olur.
type TypingHandler struct {
	typingRepo repository.TypingRepository
}

// NewTypingHandler, constructor.
func NewTypingHandler(typingRepo repository.TypingRepository) *TypingHandler {
	return &TypingHandler{typingRepo: typingRepo}
}

// typingRequest, Set endpoint'inin body'si.
type typingRequest struct {
	Typing bool `json:"typing"`
}

// Set godoc
// POST /api/channels/{channelID}/typing (auth gerekli)
// Body: { "typing": true|false }
func (h *TypingHandler) Set(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req typingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	channelID := r.PathValue("channelID")
	var err error
	if req.Typing {
		err = h.typingRepo.Upsert(r.Context(), channelID, user.ID)
	} else {
		err = h.typingRepo.Delete(r.Context(), channelID, user.ID)
	}
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]bool{"typing": req.Typing})
}

// List godoc
// GET /api/channels/{channelID}/typing (auth gerekli)
// Pencere içinde yazan kullanıcı ID'lerini döner; istek sahibi hariç.
func (h *TypingHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	since := time.Now().Add(-presence.TypingTTL)
	userIDs, err := h.typingRepo.ListUsersSince(r.Context(), r.PathValue("channelID"), since)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	filtered := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id != user.ID {
			filtered = append(filtered, id)
		}
	}

	pkg.JSON(w, http.StatusOK, filtered)
}
