// Package handlers, managed backend'in HTTP yüzeyini yönetir.
//
// Handler "ince"dir: request body'yi parse eder, service/repository
// katmanını çağırır, sonucu JSON olarak döndürür. İş mantığı içermez,
// doğrudan SQL çalıştırmaz.
package handlers

import (
	"net/http"

	"github.com/fleetpulse/connect/models"
)

// contextKey, context value çakışmalarını önleyen özel tip.
type contextKey string

// UserContextKey, auth middleware'ın doğrulanmış kullanıcıyı request
// context'ine koyduğu anahtar.
const UserContextKey contextKey = "user"

// UserFromContext, middleware'ın context'e koyduğu kullanıcıyı döner.
func UserFromContext(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	return user, ok
}
