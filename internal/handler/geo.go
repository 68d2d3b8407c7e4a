package handler

import (
	"net/url"
	"strings"

	"visualdilemma/internal/models"

	"github.com/gin-gonic/gin"
)

// Заголовки edge-прокси с геоданными клиента, в порядке приоритета.
var (
	countryHeaders = []string{"X-Vercel-IP-Country", "CF-IPCountry"}
	cityHeaders    = []string{"X-Vercel-IP-City"}
)

// geoFromRequest собирает IP и геоданные клиента из запроса.
// Значение "XX" у Cloudflare означает неизвестную страну.
func geoFromRequest(c *gin.Context) models.GeoLocation {
	return models.GeoLocation{
		IP:      c.ClientIP(),
		Country: firstHeader(c, countryHeaders, "XX"),
		City:    firstHeader(c, cityHeaders, ""),
	}
}

func firstHeader(c *gin.Context, names []string, unknown string) string {
	for _, name := range names {
		v := strings.TrimSpace(c.GetHeader(name))
		if v == "" || v == unknown {
			continue
		}
		// Vercel кодирует город percent-encoding'ом.
		if decoded, err := url.QueryUnescape(v); err == nil {
			v = decoded
		}
		return v
	}
	return ""
}
