package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"nutrition-planner/internal/backup"
	"nutrition-planner/internal/storage"
)

const maxSnapshotBytes = 32 << 20

// Receiver is the cloud end of backup.Client: it keeps pushed snapshots per
// user and hands back the newest one.
type Receiver struct {
	store  *storage.SnapshotStore
	secret []byte
	keep   int
	now    func() time.Time
}

// NewReceiver creates a Receiver keeping the keep newest snapshots per user.
func NewReceiver(store *storage.SnapshotStore, secret []byte, keep int) *Receiver {
	return &Receiver{store: store, secret: secret, keep: keep, now: time.Now}
}

// Register mounts the backup endpoints.
func (r *Receiver) Register(router gin.IRouter) {
	g := router.Group("/backups/:user", r.authorize)
	g.PUT("", r.put)
	g.GET("", r.get)
}

// authorize requires a bearer token issued for the user in the path.
func (r *Receiver) authorize(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing bearer token"})
		return
	}
	subject, err := backup.VerifyToken(r.secret, token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
		return
	}
	if subject != c.Param("user") {
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "token not valid for this user"})
		return
	}
	c.Next()
}

func (r *Receiver) put(c *gin.Context) {
	userID := c.Param("user")
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxSnapshotBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "snapshot too large"})
		return
	}
	if _, err := backup.Decode(data, userID); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if _, err := r.store.Save(userID, r.now().UTC(), data); err != nil {
		writeError(c, err)
		return
	}
	if r.keep > 0 {
		if _, err := r.store.Prune(userID, r.keep); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("failed to prune received snapshots")
		}
	}
	log.Info().Str("user_id", userID).Int("bytes", len(data)).Msg("backup received")
	c.Status(http.StatusNoContent)
}

func (r *Receiver) get(c *gin.Context) {
	data, err := r.store.Latest(c.Param("user"))
	if errors.Is(err, storage.ErrNoSnapshot) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no backup"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}
