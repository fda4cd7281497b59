package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weblog/internal/service"
	"github.com/weblog/internal/view"
)

// ShowSpeaking lists upcoming and past talks.
func (a *API) ShowSpeaking(c *gin.Context) {
	talks, err := a.speaking.Talks(time.Now().In(a.loc))
	if err != nil {
		a.serverError(c, err)
		return
	}
	a.renderHTML(c, http.StatusOK, "speaking.html", gin.H{
		"title": "Speaking",
		"talks": talks,
	})
}

// ShowPresentation 渲染单个演讲及其报道链接。
func (a *API) ShowPresentation(c *gin.Context) {
	presentation, err := a.speaking.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrPresentationNotFound) {
			a.notFound(c)
			return
		}
		a.serverError(c, err)
		return
	}

	description, err := view.RenderMarkdown(presentation.Description)
	if err != nil {
		c.Error(err)
	}
	a.renderHTML(c, http.StatusOK, "presentation.html", gin.H{
		"title":        presentation.Title,
		"presentation": presentation,
		"description":  description,
	})
}

// ShowResume renders the résumé document.
func (a *API) ShowResume(c *gin.Context) {
	resume, err := a.resume.Load()
	if err != nil {
		if errors.Is(err, service.ErrResumeNotFound) {
			a.notFound(c)
			return
		}
		a.serverError(c, err)
		return
	}
	a.renderHTML(c, http.StatusOK, "resume.html", gin.H{
		"title":  "Résumé",
		"resume": resume,
	})
}
