// Package handler implements the station's HTTP surface (spec.md §6):
// thin gin handlers that bind requests, call into internal/station/service,
// and translate the result (or error) into the {success, data} / {success:
// false, error} envelope every station response uses.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Retr0981/agenttrust/internal/trusterr"
)

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, err error) {
	status, _, message := trusterr.AsHTTP(err)
	c.JSON(status, gin.H{"success": false, "error": message})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": message})
}
