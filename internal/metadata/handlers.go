package metadata

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/toplist/toplist/internal/apperr"
	"github.com/toplist/toplist/internal/media"
)

// Handlers provides HTTP handlers for catalog lookups.
type Handlers struct {
	service *Service
}

// NewHandlers creates new metadata handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the search routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.Search)
	g.GET("/details/:source/:type/:id", h.GetDetails)
	g.GET("/status", h.GetStatus)
}

// SearchResponse is the body of a search answer. Failed is set when the
// provider could not be reached; Results is then empty.
type SearchResponse struct {
	Results []media.SearchResult `json:"results"`
	Failed  bool                 `json:"failed,omitempty"`
	Message string               `json:"message,omitempty"`
}

// Search searches one catalog.
// GET /api/v1/search?type=movie|series|book&query=...
func (h *Handlers) Search(c echo.Context) error {
	mediaType, err := media.ParseType(c.QueryParam("type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	results, err := h.service.Search(c.Request().Context(), c.QueryParam("query"), mediaType)
	if err != nil {
		if errors.Is(err, apperr.ErrSearch) {
			return c.JSON(http.StatusOK, SearchResponse{
				Results: []media.SearchResult{},
				Failed:  true,
				Message: "search is unavailable right now, try again",
			})
		}
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}

	return c.JSON(http.StatusOK, SearchResponse{Results: results})
}

// GetDetails returns the full record for a picked result.
// GET /api/v1/search/details/:source/:type/:id
func (h *Handlers) GetDetails(c echo.Context) error {
	source, err := media.ParseSource(c.Param("source"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	mediaType, err := media.ParseType(c.Param("type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Details(c.Request().Context(), source, mediaType, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}

	return c.JSON(http.StatusOK, result)
}

// GetStatus reports which providers are configured.
// GET /api/v1/search/status
func (h *Handlers) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Status())
}
