package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/weblog/internal/db"
	"golang.org/x/crypto/bcrypt"
)

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "login.html", gin.H{
		"title": "Sign in",
	})
}

// Login 处理用户登录请求
func (a *API) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	// 查找用户
	var user db.User
	if err := a.db.Where("username = ?", username).First(&user).Error; err != nil {
		a.renderHTML(c, http.StatusUnauthorized, "login.html", gin.H{"title": "Sign in", "error": "用户名或密码错误"})
		return
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		a.renderHTML(c, http.StatusUnauthorized, "login.html", gin.H{"title": "Sign in", "error": "用户名或密码错误"})
		return
	}

	// 设置会话
	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Set("username", user.Username)
	if err := session.Save(); err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "login.html", gin.H{"title": "Sign in", "error": "会话保存失败"})
		return
	}

	c.Redirect(http.StatusFound, "/admin/dashboard")
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	session.Save()
	c.Redirect(http.StatusFound, "/admin/login")
}

// ShowDashboard 渲染后台主面板
func (a *API) ShowDashboard(c *gin.Context) {
	session := sessions.Default(c)
	username := session.Get("username")

	counts := map[string]int64{}
	for key, model := range map[string]interface{}{
		"entryCount":     &db.Entry{},
		"blogmarkCount":  &db.Blogmark{},
		"quotationCount": &db.Quotation{},
		"photoCount":     &db.Photo{},
		"tagCount":       &db.Tag{},
	} {
		var count int64
		if err := a.db.Model(model).Count(&count).Error; err != nil {
			c.Error(err)
		}
		counts[key] = count
	}

	a.renderHTML(c, http.StatusOK, "dashboard.html", gin.H{
		"title":          "Dashboard",
		"username":       username,
		"entryCount":     counts["entryCount"],
		"blogmarkCount":  counts["blogmarkCount"],
		"quotationCount": counts["quotationCount"],
		"photoCount":     counts["photoCount"],
		"tagCount":       counts["tagCount"],
		"msg":            c.Query("msg"),
	})
}

// PurgeCache 手动清空页面缓存。
func (a *API) PurgeCache(c *gin.Context) {
	a.purgePages(c)
	c.Redirect(http.StatusFound, "/admin/dashboard?msg=Cache+purged")
}

// ExtractTitle returns {"title": ...} for ?url=, or {} without one.
func (a *API) ExtractTitle(c *gin.Context) {
	target := strings.TrimSpace(c.Query("url"))
	if target == "" {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		respondError(c, http.StatusBadRequest, "url must be http or https")
		return
	}

	title, err := a.titles.Extract(c.Request.Context(), target)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusBadGateway, "could not fetch url")
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": title})
}

// AuthRequired 是一个简单的认证中间件
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")
		if userID == nil {
			if strings.HasPrefix(c.Request.URL.Path, "/admin/api/") {
				respondError(c, http.StatusUnauthorized, "未登录")
				c.Abort()
				return
			}
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
