package apiurl

import (
	"net/http"

	v1 "github.com/etendosoftware/workspace-gateway/internal/transport/web/v1"
)

type Handler struct {
	BaseURL string
}

type response struct {
	URL string `json:"url"`
}

// Get godoc
// @Summary     ERP base URL
// @Description Returns the Etendo Classic base URL the browser should talk to.
// @Tags        context
// @Produce     json
// @Success     200 {object} response
// @Router      /api/url [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	v1.WriteJSON(w, r, http.StatusOK, response{URL: h.BaseURL})
}
