package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS 讓瀏覽器上的表現層可以直接呼叫引擎。
// origins 為空時允許任何來源（不帶憑證）。
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           15 * 60,
	})
}
