package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/mileto808-collab/MeterFlo-Server-sub001/pkg/utils"
)

// PanicRecovery converts a handler panic into a 500 so one bad request
// cannot take the process down with it.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[Recovery] panic on %s %s: %v\n%s", r.Method, r.URL.Path, err, debug.Stack())
				utils.Error(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
