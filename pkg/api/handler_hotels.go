package api

import (
	"net/http"
	"sort"

	echo "github.com/labstack/echo/v5"

	"github.com/seoulstay/concierge/pkg/config"
)

// listHotelsHandler handles GET /hotels.
func (s *Server) listHotelsHandler(c *echo.Context) error {
	items := make([]HotelItem, 0, len(config.Hotels))
	for key, info := range config.Hotels {
		items = append(items, HotelItem{
			Key:         key,
			Name:        info.Name,
			Phone:       info.Phone,
			LocationURL: info.LocationURL,
		})
	}

	// Sort for deterministic output.
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })

	return c.JSON(http.StatusOK, items)
}
