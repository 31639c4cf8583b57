package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/savcinema/voicereview-service/internal/tmdb"
	"github.com/savcinema/voicereview-service/internal/utils/response"
)

// Searcher is the slice of the TMDB client the search proxy needs.
type Searcher interface {
	Search(ctx context.Context, query string) ([]tmdb.Media, error)
}

type SearchResponse struct {
	Results []tmdb.Media `json:"results"`
}

// Search proxies a catalog search for the admin dashboard
// @Summary Search the movie catalog
// @Description Proxy a search query to the catalog, returning movie/tv results
// @Tags catalog
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {object} SearchResponse "Search results"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /admin/catalog/search [get]
func Search(searcher Searcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")

		results, err := searcher.Search(r.Context(), query)
		if err != nil {
			slog.Error("Catalog search failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("catalog search failed")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Search completed successfully", SearchResponse{Results: results}))
	}
}
