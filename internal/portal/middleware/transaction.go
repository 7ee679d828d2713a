package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/folio-app/folio/internal/db"
	"github.com/folio-app/folio/pkg/log"
)

var errRollback = errors.New("request failed")

// Transaction runs the rest of the chain inside one database transaction and
// carries it in the request context. The transaction commits when the
// response status is below 400 and no error was recorded, and rolls back
// otherwise. Unmatched routes and the paths in skip run without one.
func Transaction(d *db.DB, logger log.Logger, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}
	return func(c *gin.Context) {
		if c.FullPath() == "" || skipped[c.FullPath()] {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		err := d.InTx(ctx, func(tx *db.DB) error {
			c.Request = c.Request.WithContext(db.WithTx(ctx, tx))
			c.Next()
			if c.Writer.Status() >= http.StatusBadRequest || len(c.Errors) > 0 {
				return errRollback
			}
			return nil
		})
		if err != nil && !errors.Is(err, errRollback) {
			logger.WithContext(ctx).Error("transaction failed", log.Error(err))
			if !c.Writer.Written() {
				WriteError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
	}
}
