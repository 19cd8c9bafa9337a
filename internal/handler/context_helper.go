package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/records-panel/internal/middleware"
	"github.com/noah-isme/records-panel/internal/models"
)

func claimsFromContext(c *gin.Context) *models.SessionClaims {
	return middleware.SessionFromContext(c)
}

func formValues(c *gin.Context) map[string]string {
	_ = c.Request.ParseForm()
	values := make(map[string]string, len(c.Request.PostForm))
	for key, vs := range c.Request.PostForm {
		if len(vs) > 0 {
			values[key] = vs[0]
		}
	}
	return values
}
