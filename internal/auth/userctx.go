package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcpanel/gcpanel-backend/internal/users"
)

// WithUser resolves the caller into a database user row and stores both the
// firebase uid and the database id in the gin context. When auth is enabled
// the uid comes from FirebaseAuthMiddleware; in dev mode it falls back to the
// X-User-Id header and finally to "demo-user".
func WithUser(userRepo *users.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		fuid := strings.TrimSpace(c.GetString(CtxFirebaseUID))
		if fuid == "" {
			fuid = strings.TrimSpace(c.GetHeader("X-User-Id"))
		}
		if fuid == "" {
			fuid = "demo-user"
		}

		uid, err := userRepo.EnsureUser(c.Request.Context(), users.UpsertUser{
			FirebaseUID: fuid,
			Email:       c.GetHeader("X-User-Email"),
			DisplayName: c.GetHeader("X-User-Name"),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "ensure user: " + err.Error()})
			c.Abort()
			return
		}

		c.Set(CtxFirebaseUID, fuid)
		c.Set(CtxUserDBID, uid)
		c.Next()
	}
}
