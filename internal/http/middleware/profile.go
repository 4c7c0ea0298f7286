package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nurpe/freelance-market/internal/auth"
	"github.com/nurpe/freelance-market/internal/model"
)

const profileContextKey = "profile"

type ProfileResolver interface {
	GetProfile(ctx context.Context, id int64) (*model.Profile, error)
}

// ResolveProfile attaches the caller profile to the request. The id comes from the
// configured header, or from the subject of a bearer token when a secret is configured.
func ResolveProfile(resolver ProfileResolver, parser *auth.Parser, header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := profileID(c, parser, header)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		profile, err := resolver.GetProfile(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortUnauthorized(c, "unknown profile")
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error", "kind": "internal"})
			return
		}

		SetProfile(c, *profile)
		c.Next()
	}
}

func profileID(c *gin.Context, parser *auth.Parser, header string) (int64, error) {
	if raw := strings.TrimSpace(c.GetHeader(header)); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return 0, errors.New("invalid " + header + " header")
		}
		return id, nil
	}

	if parser.Enabled() {
		authHeader := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && token != "" {
			return parser.ParseProfileID(strings.TrimSpace(token))
		}
	}

	return 0, errors.New("missing profile")
}

func SetProfile(c *gin.Context, profile model.Profile) {
	c.Set(profileContextKey, profile)
}

func MustProfile(c *gin.Context) (model.Profile, bool) {
	value, ok := c.Get(profileContextKey)
	if !ok {
		return model.Profile{}, false
	}
	profile, ok := value.(model.Profile)
	return profile, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message, "kind": "unauthorized"})
}
