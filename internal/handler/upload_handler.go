package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weblog/internal/db"
	"github.com/weblog/internal/logger"
	"github.com/weblog/internal/service"
)

const maxUploadMemory = 32 << 20

// singleUpload returns the only file of the request, which must be sent in field.
func singleUpload(c *gin.Context, field string) (*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, service.ErrPhotoFileRequired
	}
	total := 0
	for _, files := range form.File {
		total += len(files)
	}
	files := form.File[field]
	if total != 1 || len(files) != 1 {
		return nil, service.ErrPhotoFileRequired
	}
	return files[0], nil
}

func (a *API) storeUpload(file *multipart.FileHeader) (*db.Photo, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return a.photos.Store(file.Filename, src)
}

// MicropubMedia 处理媒体端点上传，成功时返回 201 与文件地址。
func (a *API) MicropubMedia(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadMemory+1<<20)
	if !a.authorizeMicropub(c) {
		return
	}

	file, err := singleUpload(c, "file")
	if err != nil {
		micropubError(c, http.StatusBadRequest, service.MicropubInvalidRequest, "exactly one file is required")
		return
	}

	photo, err := a.storeUpload(file)
	if err != nil {
		if errors.Is(err, service.ErrPhotoUnsupported) || errors.Is(err, service.ErrPhotoFileRequired) {
			micropubError(c, http.StatusBadRequest, service.MicropubInvalidRequest, err.Error())
			return
		}
		c.Error(err)
		micropubError(c, http.StatusInternalServerError, "server_error", "could not store file")
		return
	}

	logger.InfoWithFields("micropub media stored", logger.Fields{"id": photo.ID, "url": photo.URL})
	a.purgePages(c)
	c.Header("Location", a.absoluteURL(c, photo.URL))
	c.Status(http.StatusCreated)
}

// UploadPhoto 处理后台照片上传请求
func (a *API) UploadPhoto(c *gin.Context) {
	file, err := singleUpload(c, "image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请上传一张图片", "success": 0})
		return
	}

	photo, err := a.storeUpload(file)
	if err != nil {
		if errors.Is(err, service.ErrPhotoUnsupported) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "只允许上传图片文件", "success": 0})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败", "success": 0})
		return
	}

	a.purgePages(c)
	c.JSON(http.StatusOK, gin.H{
		"success": 1,
		"message": "上传成功",
		"data": gin.H{
			"id":       photo.ID,
			"filePath": photo.URL,
			"url":      photo.URL,
			"width":    photo.Width,
			"height":   photo.Height,
		},
	})
}
