package common

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// SubmitGuard rejects repeated admin form submissions carrying the same
// Idempotency-Key within TTL. Requests without the header pass through.
type SubmitGuard struct {
	R   *redis.Client
	TTL time.Duration
}

func submitKey(admin, key string) string {
	sum := sha256.Sum256([]byte(admin + "|" + key))
	return "admin:submit:" + hex.EncodeToString(sum[:])
}

// Middleware enforces single submission per key.
func (g SubmitGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || g.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ttl := g.TTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		admin, _ := Admin(r.Context())
		ok, err := g.R.SetNX(r.Context(), submitKey(admin, header), "1", ttl).Result()
		if err != nil {
			// fail open
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			JSONError(w, http.StatusConflict, "DUPLICATE_SUBMISSION", "this form was already submitted", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
