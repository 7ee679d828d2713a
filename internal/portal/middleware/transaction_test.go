package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/folio-app/folio/internal/db"
	"github.com/folio-app/folio/internal/portal/auth"
	"github.com/folio-app/folio/internal/portal/repository/sqldb"
	"github.com/folio-app/folio/internal/testutil"
	"github.com/folio-app/folio/pkg/portal"
)

func TestTransaction(t *testing.T) {
	d := testutil.SQLite(t)
	ctx := context.Background()
	user, err := sqldb.NewUserRepository(d, auth.NewPasswordHasher(bcrypt.MinCost)).
		Create(ctx, "ann", portal.RoleUser, "", "pw")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	portfolios := sqldb.NewPortfolioRepository(d)

	create := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if !db.From(c.Request.Context(), d).InTransaction() {
				t.Errorf("%s: handler runs outside a transaction", c.FullPath())
			}
			if _, err := portfolios.Create(c.Request.Context(), &portal.Portfolio{Name: name}, user); err != nil {
				t.Errorf("%s: create %s: %v", c.FullPath(), name, err)
			}
		}
	}

	logger := &recordingLogger{}
	r := gin.New()
	r.Use(Transaction(d, logger, "/plain"))
	r.POST("/ok", create("kept"), func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.POST("/fail", create("lost"), func(c *gin.Context) { Fail(c, errors.New("boom")) })
	r.POST("/invalid", create("rejected"), func(c *gin.Context) {
		WriteError(c, http.StatusBadRequest, "INVALID", "invalid")
	})
	r.GET("/plain", func(c *gin.Context) {
		if db.From(c.Request.Context(), d).InTransaction() {
			t.Errorf("skipped route runs inside a transaction")
		}
		c.Status(http.StatusNoContent)
	})

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{http.MethodPost, "/ok", http.StatusCreated},
		{http.MethodPost, "/fail", http.StatusInternalServerError},
		{http.MethodPost, "/invalid", http.StatusBadRequest},
		{http.MethodGet, "/plain", http.StatusNoContent},
		{http.MethodGet, "/missing", http.StatusNotFound},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != tc.want {
			t.Errorf("%s %s: status = %d, want %d", tc.method, tc.path, w.Code, tc.want)
		}
	}

	// failed requests leave nothing behind
	list, err := portfolios.ListAll(ctx, user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "kept" {
		t.Errorf("portfolios = %+v, want only kept", list)
	}
	if len(logger.entries) != 0 {
		t.Errorf("rolled back requests logged %d entries, want none", len(logger.entries))
	}
}
