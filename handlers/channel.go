package handlers

import (
	"net/http"

	"github.com/fleetpulse/connect/directory"
	"github.com/fleetpulse/connect/pkg"
	"github.com/fleetpulse/connect/repository"
)

// ChannelHandler, kanal kataloğu endpoint'lerini yöneten struct.
//
// Görünürlük kararları directory paketine delege edilir — handler her
// request'te kataloğu yükleyip kullanıcının rolüne göre filtreler.
// Katalog küçüktür (onlarca kanal), request başına yükleme sorun değildir.
type ChannelHandler struct {
	channelRepo repository.ChannelRepository
}

// NewChannelHandler, constructor.
func NewChannelHandler(channelRepo repository.ChannelRepository) *ChannelHandler {
	return &ChannelHandler{channelRepo: channelRepo}
}

// loadDirectory, güncel kataloğu bir Directory'ye yükler.
func (h *ChannelHandler) loadDirectory(r *http.Request) (*directory.Directory, error) {
	channels, err := h.channelRepo.List(r.Context())
	if err != nil {
		return nil, err
	}
	dir := directory.New()
	dir.Replace(channels)
	return dir, nil
}

// List godoc
// GET /api/channels (auth gerekli)
// Kullanıcının görebildiği kanalları created_at sırasıyla döner.
// Görünmeyen kanallar response'ta YOKTUR.
func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	dir, err := h.loadDirectory(r)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, dir.ChannelsVisibleTo(user))
}

// Groups godoc
// GET /api/channels/groups (auth gerekli)
// Sidebar için kategori gruplarını döner.
func (h *ChannelHandler) Groups(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	dir, err := h.loadDirectory(r)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, dir.GroupByCategory(user))
}

// Get godoc
// GET /api/channels/{channelID} (auth gerekli)
// Görünmeyen kanal için 404 döner — varlığı dahi sızdırılmaz.
func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	dir, err := h.loadDirectory(r)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	ch, found := dir.Get(r.PathValue("channelID"))
	if !found || !dir.CanRead(user, &ch) {
		pkg.Error(w, pkg.ErrNotFound)
		return
	}

	pkg.JSON(w, http.StatusOK, ch)
}
