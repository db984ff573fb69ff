package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stream_server/server/common/auth"
	"stream_server/server/common/transport/httpresp"
)

const (
	ctxAuthIdentity = "auth_identity"
	ctxAuthUserID   = "auth_user_id"
	ctxAuthRole     = "auth_role"
)

type tokenAuth interface {
	ParseIdentity(token string) (auth.Identity, error)
}

// TokenFromRequest looks for a bearer header first, then the token cookie,
// then the access_token or token query parameters.
func TokenFromRequest(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); token != "" {
			return token, true
		}
	}
	if cookie, err := r.Cookie("token"); err == nil {
		if token := strings.TrimSpace(cookie.Value); token != "" {
			return token, true
		}
	}
	query := r.URL.Query()
	for _, key := range []string{"access_token", "token"} {
		if token := strings.TrimSpace(query.Get(key)); token != "" {
			return token, true
		}
	}
	return "", false
}

func AuthRequired(auth tokenAuth) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := TokenFromRequest(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpresp.NewErrorResponse(httpresp.ErrMissingBearerToken))
			return
		}
		identity, err := auth.ParseIdentity(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpresp.NewErrorResponse(httpresp.ErrInvalidToken))
			return
		}
		SetIdentity(c, identity)
		c.Next()
	}
}

func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, role := range roles {
		allowed[strings.TrimSpace(role)] = struct{}{}
	}
	return func(c *gin.Context) {
		role := c.GetString(ctxAuthRole)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, httpresp.NewErrorResponse(httpresp.ErrForbidden))
			return
		}
		if _, ok := allowed[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, httpresp.NewErrorResponse(httpresp.ErrInsufficientRole))
			return
		}
		c.Next()
	}
}

func SetIdentity(c *gin.Context, identity auth.Identity) {
	c.Set(ctxAuthIdentity, identity)
	c.Set(ctxAuthUserID, identity.UserID)
	c.Set(ctxAuthRole, identity.Role)
}

func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	raw, ok := c.Get(ctxAuthIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := raw.(auth.Identity)
	return identity, ok
}
