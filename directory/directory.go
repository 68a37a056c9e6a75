// Package directory, kanal kataloğunu ve rol bazlı erişim kurallarını
// yönetir. Tüm yetki kontrolleri burada merkezileşir — ekran kodlarına
// dağılmış ad hoc membership kontrolleri yerine tek karar noktası.
//
// Directory salt-okunur bir katalogdur: kanal oluşturma/düzenleme
// administratif bir backend aksiyonudur, katalog Replace ile topluca
// yenilenir.
package directory

import (
	"sort"
	"sync"

	"github.com/fleetpulse/connect/models"
)

// CategoryGroup, sidebar'daki tek bir kategori bölümünü temsil eder.
// Label boş string olabilir — kategorisiz kanallar başlıksız gruplanır.
type CategoryGroup struct {
	Label    string           `json:"label"`
	Channels []models.Channel `json:"channels"`
}

// Directory, kanal kataloğu ve erişim predicate'leri.
type Directory struct {
	mu       sync.RWMutex
	channels map[string]*models.Channel
	order    map[string]int // katalog yükleme sırası — CreatedAt eşitliğinde belirleyici
	nextOrd  int
}

// New, boş bir Directory oluşturur.
func New() *Directory {
	return &Directory{
		channels: make(map[string]*models.Channel),
		order:    make(map[string]int),
	}
}

// Replace, kataloğu verilen kanal listesiyle topluca değiştirir.
// Sign-in'de ve katalog yenilemelerinde kullanılır.
func (d *Directory) Replace(channels []models.Channel) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.channels = make(map[string]*models.Channel, len(channels))
	d.order = make(map[string]int, len(channels))
	d.nextOrd = 0
	for i := range channels {
		ch := channels[i]
		d.channels[ch.ID] = &ch
		d.order[ch.ID] = d.nextOrd
		d.nextOrd++
	}
}

// Get, ID ile tek bir kanal döner.
func (d *Directory) Get(channelID string) (models.Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ch, ok := d.channels[channelID]
	if !ok {
		return models.Channel{}, false
	}
	return *ch, true
}

// CanRead, kullanıcının kanalı görüp görmediğini döner.
//
// Kural: rol kanalın read kümesinde OLMALI; kanal private ise kullanıcı
// ayrıca üye listesinde de OLMALI. Görünürlük ve okunabilirlik aynı
// şeydir — görünmeyen kanal okunamaz, okunabilen kanal görünür.
func (d *Directory) CanRead(user *models.User, ch *models.Channel) bool {
	if !ch.Permissions.Read.Contains(user.Role) {
		return false
	}
	if ch.IsPrivate && !containsID(ch.Members, user.ID) {
		return false
	}
	return true
}

// CanWrite, kullanıcının kanala mesaj gönderip gönderemeyeceğini döner.
// Yazma okumayı gerektirir: read erişimi olmayan kullanıcı write
// kümesinde olsa bile yazamaz.
func (d *Directory) CanWrite(user *models.User, ch *models.Channel) bool {
	return d.CanRead(user, ch) && ch.Permissions.Write.Contains(user.Role)
}

// CanAdminister, kullanıcının kanalda yönetici aksiyonları (pin,
// başkasının mesajını silme) yapıp yapamayacağını döner.
func (d *Directory) CanAdminister(user *models.User, ch *models.Channel) bool {
	return d.CanRead(user, ch) && ch.Permissions.Admin.Contains(user.Role)
}

// ChannelsVisibleTo, kullanıcının görebildiği kanalları CreatedAt'e göre
// (eşitlikte katalog sırasına göre) sıralı döner. Görünmeyen kanallar
// listede YOKTUR — varlıkları dahi sızmaz.
func (d *Directory) ChannelsVisibleTo(user *models.User) []models.Channel {
	d.mu.RLock()
	defer d.mu.RUnlock()

	visible := make([]*models.Channel, 0, len(d.channels))
	for _, ch := range d.channels {
		if d.CanRead(user, ch) {
			visible = append(visible, ch)
		}
	}

	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].CreatedAt.Equal(visible[j].CreatedAt) {
			return d.order[visible[i].ID] < d.order[visible[j].ID]
		}
		return visible[i].CreatedAt.Before(visible[j].CreatedAt)
	})

	out := make([]models.Channel, 0, len(visible))
	for _, ch := range visible {
		out = append(out, *ch)
	}
	return out
}

// GroupByCategory, kullanıcının görebildiği kanalları sidebar için
// kategori gruplarına ayırır.
//
// Sıralama kuralı: kategorisiz kanallar (boş label) ilk grupta; sonraki
// gruplar, kategorinin sıralı kanal listesinde ilk görüldüğü sıradadır.
// Grup içi sıra ChannelsVisibleTo ile aynıdır.
func (d *Directory) GroupByCategory(user *models.User) []CategoryGroup {
	visible := d.ChannelsVisibleTo(user)

	idx := make(map[string]int)
	groups := make([]CategoryGroup, 0)

	// kategorisiz grup her zaman önce gelir, boş kalırsa sonda atılır
	groups = append(groups, CategoryGroup{Label: ""})
	idx[""] = 0

	for _, ch := range visible {
		i, ok := idx[ch.Category]
		if !ok {
			i = len(groups)
			idx[ch.Category] = i
			groups = append(groups, CategoryGroup{Label: ch.Category})
		}
		groups[i].Channels = append(groups[i].Channels, ch)
	}

	if len(groups[0].Channels) == 0 {
		groups = groups[1:]
	}
	return groups
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
