package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	pkgErrors "BizBooksPlatform/pkg/errors"
	"BizBooksPlatform/pkg/logger"
)

// Recover turns a handler panic into a 500 and logs the stack.
func Recover(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error("panic recovered",
					logger.CtxField(r.Context()),
					logger.String("panic", fmt.Sprint(rec)),
					logger.String("stack", string(debug.Stack())),
				)
				pkgErrors.WriteJSON(w, pkgErrors.New(pkgErrors.ErrInternal, "internal error"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
