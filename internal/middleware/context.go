package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// maxFormBody — слэш-команды Slack укладываются в пару килобайт.
const maxFormBody = 64 << 10

// GetUserID возвращает user_id из контекста (устанавливается SlackUser или URLUser).
func GetUserID(ctx context.Context) string {
	v, _ := ctx.Value(UserIDKey).(string)
	return v
}

// WithUserID кладёт user_id в контекст.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// SlackUser достаёт user_id из form-encoded тела слэш-команды и кладёт в контекст.
// Тело восстанавливается, так что handler читает его заново. Ошибки разбора не обрабатываются здесь.
func SlackUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxFormBody))
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err == nil {
			if form, perr := url.ParseQuery(string(body)); perr == nil {
				if id := form.Get("user_id"); id != "" {
					r = r.WithContext(WithUserID(r.Context(), id))
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// URLUser кладёт в контекст параметр маршрута {param}.
func URLUser(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := chi.URLParam(r, param); id != "" {
				r = r.WithContext(WithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
