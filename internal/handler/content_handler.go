package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weblog/internal/service"
)

type contentRequest struct {
	Created   *time.Time `json:"created"`
	Slug      string     `json:"slug"`
	Tags      []string   `json:"tags"`
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
}

func (r contentRequest) fields() service.ContentFields {
	fields := service.ContentFields{
		Slug:      r.Slug,
		Tags:      r.Tags,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
	if r.Created != nil {
		fields.Created = *r.Created
	}
	return fields
}

type entryRequest struct {
	contentRequest
	Title         string `json:"title"`
	Body          string `json:"body"`
	TweetHTML     string `json:"tweet_html"`
	ExtraHeadHTML string `json:"extra_head_html"`
	SeriesID      *uint  `json:"series_id"`
}

type blogmarkRequest struct {
	contentRequest
	LinkURL    string `json:"link_url"`
	LinkTitle  string `json:"link_title"`
	ViaURL     string `json:"via_url"`
	ViaTitle   string `json:"via_title"`
	Commentary string `json:"commentary"`
}

type quotationRequest struct {
	contentRequest
	Quotation string `json:"quotation"`
	Source    string `json:"source"`
	SourceURL string `json:"source_url"`
}

func (r entryRequest) input() service.EntryInput {
	return service.EntryInput{
		ContentFields: r.fields(),
		Title:         r.Title,
		Body:          r.Body,
		TweetHTML:     r.TweetHTML,
		ExtraHeadHTML: r.ExtraHeadHTML,
		SeriesID:      r.SeriesID,
	}
}

func (r blogmarkRequest) input() service.BlogmarkInput {
	return service.BlogmarkInput{
		ContentFields: r.fields(),
		LinkURL:       r.LinkURL,
		LinkTitle:     r.LinkTitle,
		ViaURL:        r.ViaURL,
		ViaTitle:      r.ViaTitle,
		Commentary:    r.Commentary,
	}
}

func (r quotationRequest) input() service.QuotationInput {
	return service.QuotationInput{
		ContentFields: r.fields(),
		Quotation:     r.Quotation,
		Source:        r.Source,
		SourceURL:     r.SourceURL,
	}
}

// respondContentError 将内容服务错误映射为 HTTP 状态码。
func respondContentError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrEntryNotFound),
		errors.Is(err, service.ErrBlogmarkNotFound),
		errors.Is(err, service.ErrQuotationNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrContentInvalid),
		errors.Is(err, service.ErrTagInvalid),
		errors.Is(err, service.ErrSeriesNotFound):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, action+" failed")
	}
}

func pageParams(c *gin.Context) (int, int) {
	return parsePositiveInt(c.DefaultQuery("page", "1"), 1), parsePositiveInt(c.DefaultQuery("per_page", "30"), 30)
}

// ListEntries 获取文章列表
func (a *API) ListEntries(c *gin.Context) {
	page, perPage := pageParams(c)
	entries, p, err := a.content.ListEntries(page, perPage)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		respondContentError(c, err, "list entries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "pagination": p})
}

// GetEntry 获取单篇文章
func (a *API) GetEntry(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := a.content.GetEntry(id)
	if err != nil {
		respondContentError(c, err, "get entry")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// CreateEntry 创建新文章
func (a *API) CreateEntry(c *gin.Context) {
	var req entryRequest
	if !bindJSON(c, &req, "invalid entry") {
		return
	}
	entry, err := a.content.CreateEntry(req.input())
	if err != nil {
		respondContentError(c, err, "create entry")
		return
	}
	a.purgePages(c)
	c.JSON(http.StatusCreated, gin.H{"entry": entry, "url": entry.ArchivePath(a.loc)})
}

// UpdateEntry 更新文章
func (a *API) UpdateEntry(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	var req entryRequest
	if !bindJSON(c, &req, "invalid entry") {
		return
	}
	entry, err := a.content.UpdateEntry(id, req.input())
	if err != nil {
		respondContentError(c, err, "update entry")
		return
	}
	a.purgePages(c)
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// DeleteEntry 删除文章
func (a *API) DeleteEntry(c *gin.Context) {
	a.deleteContent(c, a.content.DeleteEntry)
}

// ListBlogmarks 获取链接列表
func (a *API) ListBlogmarks(c *gin.Context) {
	page, perPage := pageParams(c)
	blogmarks, p, err := a.content.ListBlogmarks(page, perPage)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		respondContentError(c, err, "list blogmarks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"blogmarks": blogmarks, "pagination": p})
}

// GetBlogmark returns one blogmark.
func (a *API) GetBlogmark(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	blogmark, err := a.content.GetBlogmark(id)
	if err != nil {
		respondContentError(c, err, "get blogmark")
		return
	}
	c.JSON(http.StatusOK, gin.H{"blogmark": blogmark})
}

// CreateBlogmark 创建链接
func (a *API) CreateBlogmark(c *gin.Context) {
	var req blogmarkRequest
	if !bindJSON(c, &req, "invalid blogmark") {
		return
	}
	blogmark, err := a.content.CreateBlogmark(req.input())
	if err != nil {
		respondContentError(c, err, "create blogmark")
		return
	}
	a.purgePages(c)
	c.JSON(http.StatusCreated, gin.H{"blogmark": blogmark, "url": blogmark.ArchivePath(a.loc)})
}

// UpdateBlogmark updates a blogmark in place.
func (a *API) UpdateBlogmark(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	var req blogmarkRequest
	if !bindJSON(c, &req, "invalid blogmark") {
		return
	}
	blogmark, err := a.content.UpdateBlogmark(id, req.input())
	if err != nil {
		respondContentError(c, err, "update blogmark")
		return
	}
	a.purgePages(c)
	c.JSON(http.StatusOK, gin.H{"blogmark": blogmark})
}

// DeleteBlogmark 删除链接
func (a *API) DeleteBlogmark(c *gin.Context) {
	a.deleteContent(c, a.content.DeleteBlogmark)
}

// ListQuotations 获取引用列表
func (a *API) ListQuotations(c *gin.Context) {
	page, perPage := pageParams(c)
	quotations, p, err := a.content.ListQuotations(page, perPage)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		respondContentError(c, err, "list quotations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotations": quotations, "pagination": p})
}

// GetQuotation returns one quotation.
func (a *API) GetQuotation(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	quotation, err := a.content.GetQuotation(id)
	if err != nil {
		respondContentError(c, err, "get quotation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotation": quotation})
}

// CreateQuotation 创建引用
func (a *API) CreateQuotation(c *gin.Context) {
	var req quotationRequest
	if !bindJSON(c, &req, "invalid quotation") {
		return
	}
	quotation, err := a.content.CreateQuotation(req.input())
	if err != nil {
		respondContentError(c, err, "create quotation")
		return
	}
	a.purgePages(c)
	c.JSON(http.StatusCreated, gin.H{"quotation": quotation, "url": quotation.ArchivePath(a.loc)})
}

// UpdateQuotation updates a quotation in place.
func (a *API) UpdateQuotation(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	var req quotationRequest
	if !bindJSON(c, &req, "invalid quotation") {
		return
	}
	quotation, err := a.content.UpdateQuotation(id, req.input())
	if err != nil {
		respondContentError(c, err, "update quotation")
		return
	}
	a.purgePages(c)
	c.JSON(http.StatusOK, gin.H{"quotation": quotation})
}

// DeleteQuotation 删除引用
func (a *API) DeleteQuotation(c *gin.Context) {
	a.deleteContent(c, a.content.DeleteQuotation)
}

func (a *API) deleteContent(c *gin.Context, remove func(uint) error) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := remove(id); err != nil {
		respondContentError(c, err, "delete")
		return
	}
	a.purgePages(c)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
