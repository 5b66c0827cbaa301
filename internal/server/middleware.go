package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/setavenger/xfp-indexer/internal/database"
	"github.com/setavenger/xfp-indexer/internal/logging"
)

const keyFingerprint = "fingerprint"

// FingerprintMiddleware validates the :xfpPairFingerprint param and stores the normalised key.
func FingerprintMiddleware(c *gin.Context) {
	fp := strings.ToLower(c.Param("xfpPairFingerprint"))
	if !database.IsFingerprint(fp) {
		logging.L.Debug().Str("param", c.Param("xfpPairFingerprint")).Msg("could not parse fingerprint")
		c.JSON(http.StatusBadRequest, gin.H{"error": "xfpPairFingerprint must be 8 hex characters"})
		c.Abort()
		return
	}

	c.Set(keyFingerprint, fp)
	c.Next()
}

// RequestLogger sends gin's access log through the shared zerolog logger.
func RequestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	logging.L.Debug().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("took", time.Since(start)).
		Str("client", c.ClientIP()).
		Msg("request")
}
