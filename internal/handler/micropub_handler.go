package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/weblog/internal/logger"
	"github.com/weblog/internal/service"
)

func micropubError(c *gin.Context, status int, code, description string) {
	c.JSON(status, gin.H{"error": code, "error_description": description})
}

// authorizeMicropub writes the error response and returns false when the
// request is not allowed to post.
func (a *API) authorizeMicropub(c *gin.Context) bool {
	result := a.auth.Authorize(c.Request.Context(), c.Request)
	if result.Authorized {
		return true
	}
	micropubError(c, result.Status, result.Code, result.Reason)
	return false
}

// MicropubConfig answers GET /micropub. Only q=config reports capabilities.
func (a *API) MicropubConfig(c *gin.Context) {
	logger.DebugWithFields("micropub get", logger.Fields{"q": c.Query("q")})
	if strings.TrimSpace(c.Query("q")) == "config" {
		c.JSON(http.StatusOK, gin.H{"media-endpoint": a.absoluteURL(c, "/micropub/media")})
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// MicropubCreate 处理 POST /micropub：鉴权、解析载荷并创建文章。
func (a *API) MicropubCreate(c *gin.Context) {
	if !a.authorizeMicropub(c) {
		return
	}

	payload, err := service.ParsePayload(c.Request)
	if err != nil {
		logger.DebugWithFields("micropub bad request", logger.Fields{"error": err.Error()})
		micropubError(c, http.StatusBadRequest, service.MicropubInvalidRequest, err.Error())
		return
	}
	logger.DebugWithFields("micropub payload", logger.Fields{"type": payload.Type, "action": payload.Action})

	entry, err := a.micropub.ConstructEntry(payload)
	if err != nil {
		if errors.Is(err, service.ErrBadRequest) {
			micropubError(c, http.StatusBadRequest, service.MicropubInvalidRequest, err.Error())
			return
		}
		c.Error(err)
		micropubError(c, http.StatusInternalServerError, "server_error", "could not create entry")
		return
	}

	a.purgePages(c)
	c.Header("Location", a.absoluteURL(c, entry.ArchivePath(a.loc)))
	c.Status(http.StatusCreated)
}
