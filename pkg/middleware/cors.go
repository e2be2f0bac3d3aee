package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS builds a gin-contrib/cors middleware from a comma-separated origin
// list. "*" allows every origin.
func CORS(origins string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	var allowed []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}

	switch {
	case len(allowed) == 0:
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	case len(allowed) == 1 && allowed[0] == "*":
		corsConfig.AllowAllOrigins = true
	default:
		corsConfig.AllowOrigins = allowed
	}

	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{RequestIDHeader, "X-Trace-ID"}
	corsConfig.MaxAge = 12 * time.Hour

	return cors.New(corsConfig)
}
