package handler

import (
	"github.com/gin-gonic/gin"
)

func academicYearQuery(c *gin.Context) string {
	return c.Query("academicYear")
}
