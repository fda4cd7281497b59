package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/weblog/internal/service"
)

type tagRequest struct {
	Name string `json:"name" binding:"required"`
}

// ShowTagIndex lists every tag with its usage across content kinds.
func (a *API) ShowTagIndex(c *gin.Context) {
	usage, err := a.tags.Usage()
	if err != nil {
		a.serverError(c, err)
		return
	}
	a.renderHTML(c, http.StatusOK, "tags.html", gin.H{
		"title": "Tags",
		"tags":  usage,
	})
}

// ShowTagArchive renders /tags/a+b+c/, the items carrying every listed tag.
func (a *API) ShowTagArchive(c *gin.Context) {
	page, err := service.ParsePageNumber(c.Query("page"))
	if err != nil {
		a.notFound(c)
		return
	}

	archive, err := a.archive.TagIntersection(splitTags(c.Param("tags")), page, a.siteSettings(c).TagPageSize)
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) || errors.Is(err, service.ErrPageNotFound) {
			a.notFound(c)
			return
		}
		a.serverError(c, err)
		return
	}

	var related []string
	if len(archive.Tags) == 1 {
		if related, err = a.tags.Related(archive.Tags[0], 10); err != nil {
			c.Error(err)
		}
	}

	a.renderHTML(c, http.StatusOK, "tag.html", gin.H{
		"title":   strings.Join(archive.Tags, ", "),
		"archive": archive,
		"related": related,
		"pager":   gin.H{"p": archive.Pagination, "query": c.Request.URL.Query()},
	})
}

// SearchTags 为编辑器提供标签自动补全，结果按长度排序。
func (a *API) SearchTags(c *gin.Context) {
	tags, err := a.tags.Suggest(c.Query("q"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to search tags")
		return
	}
	if tags == nil {
		tags = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// GetTags 获取标签列表
func (a *API) GetTags(c *gin.Context) {
	usage, err := a.tags.Usage()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取标签列表失败")
		return
	}

	response := make([]gin.H, 0, len(usage))
	for _, tag := range usage {
		response = append(response, gin.H{
			"id":    tag.ID,
			"name":  tag.Tag,
			"count": tag.Total(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"tags": response})
}

// CreateTag 创建新标签
func (a *API) CreateTag(c *gin.Context) {
	var req tagRequest
	if !bindJSON(c, &req, "标签名称不能为空") {
		return
	}

	tag, err := a.tags.Create(req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTagExists):
			respondError(c, http.StatusBadRequest, "标签已存在")
		case errors.Is(err, service.ErrTagInvalid):
			respondError(c, http.StatusBadRequest, "标签只能包含小写字母和数字")
		default:
			respondError(c, http.StatusInternalServerError, "创建标签失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "标签创建成功", "tag": tag})
}

// UpdateTag 更新标签
func (a *API) UpdateTag(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的标签ID")
		return
	}

	var req tagRequest
	if !bindJSON(c, &req, "标签名称不能为空") {
		return
	}

	tag, err := a.tags.Update(id, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTagExists):
			respondError(c, http.StatusBadRequest, "标签名已存在")
		case errors.Is(err, service.ErrTagInvalid):
			respondError(c, http.StatusBadRequest, "标签只能包含小写字母和数字")
		case errors.Is(err, service.ErrTagNotFound):
			respondError(c, http.StatusNotFound, "标签不存在")
		default:
			respondError(c, http.StatusInternalServerError, "更新标签失败")
		}
		return
	}

	a.purgePages(c)
	c.JSON(http.StatusOK, gin.H{"message": "标签更新成功", "tag": tag})
}

// DeleteTag 删除标签
func (a *API) DeleteTag(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的标签ID")
		return
	}

	if err := a.tags.Delete(id); err != nil {
		switch {
		case errors.Is(err, service.ErrTagInUse):
			respondError(c, http.StatusBadRequest, "标签正在被内容使用，无法删除")
		case errors.Is(err, service.ErrTagNotFound):
			respondError(c, http.StatusNotFound, "标签不存在")
		default:
			respondError(c, http.StatusInternalServerError, "删除标签失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "标签删除成功"})
}
