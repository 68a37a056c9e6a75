// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Go'da error'lar basit değerlerdir (string taşıyan struct'lar).
// errors.New() ile sabit error değişkenleri tanımlarız.
// Böylece error karşılaştırması string yerine referans ile yapılır:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
//
// Bu, typo'ya açık string karşılaştırmasından çok daha güvenlidir.
package pkg

import "errors"

// Domain-level error'lar — Connect çekirdeğinin hata taksonomisi.
//
//   - ErrValidation: boş/whitespace mesaj içeriği, eksik alan — lokal düzeltilir
//   - ErrPermission: rol/yazarlık yetkisi yok — kullanıcıya gösterilir, retry edilmez
//   - ErrNotFound: mesaj/kanal artık yok veya soft-delete edilmiş — no-op, view yenilenir
//   - ErrSyncTransport: polling timer / push aboneliği koptu — backoff ile retry,
//     kullanıcıya asla blocking hata olarak gösterilmez
//   - ErrAuth: harici auth collaborator hatası — mesajı olduğu gibi gösterilir
//
// Service katmanı bunları döner; session facade hangisinin sessiz, hangisinin
// görünür olduğuna karar verir; handler katmanı HTTP status'a map'ler.
var (
	ErrValidation    = errors.New("validation failed")
	ErrPermission    = errors.New("permission denied")
	ErrNotFound      = errors.New("not found")
	ErrSyncTransport = errors.New("sync transport error")
	ErrAuth          = errors.New("authentication failed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAlreadyExists = errors.New("already exists")
	ErrInternal      = errors.New("internal error")
)
