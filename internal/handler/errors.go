package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stress-guru-go/internal/model"
	"stress-guru-go/internal/service"
	"stress-guru-go/pkg/log"
)

// respondError 把业务错误映射为状态码。未知错误只记录日志，对外返回通用信息。
func respondError(c *gin.Context, action string, err error) {
	var vErr *service.ValidationError
	status := http.StatusInternalServerError
	message := "Internal server error"
	switch {
	case errors.As(err, &vErr):
		status, message = http.StatusBadRequest, vErr.Message
	case errors.Is(err, service.ErrUserExists):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrUserNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		status, message = http.StatusUnauthorized, err.Error()
	}
	if status == http.StatusInternalServerError {
		log.Errorf("%s: %v", action, err)
	} else {
		log.Warnf("%s: %v", action, err)
	}
	c.JSON(status, gin.H{"code": status, "message": message, "data": nil})
}

// currentUser 返回 AuthMiddleware 注入的用户。
func currentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get("user")
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

func abortNoUser(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "Token is invalid!", "data": nil})
}
