package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jan-server/services/consent-api/internal/domain/consent"
	"jan-server/services/consent-api/internal/interfaces/httpserver/responses"
)

type ConsentHandler struct {
	catalog *consent.Catalog
}

func NewConsentHandler(catalog *consent.Catalog) *ConsentHandler {
	return &ConsentHandler{catalog: catalog}
}

// Languages godoc
// @Summary      List consent languages
// @Description  Returns the supported consent languages and the default one.
// @Tags         consent
// @Produce      json
// @Success      200  {object}  responses.LanguagesResponse
// @Router       /v1/languages [get]
func (h *ConsentHandler) Languages(c *gin.Context) {
	c.JSON(http.StatusOK, responses.LanguagesResponse{
		Default:   h.catalog.Default().Language.Code,
		Languages: h.catalog.Languages(),
	})
}

// Script godoc
// @Summary      Get consent script
// @Description  Returns the prompt and statement for a language. Unknown codes fall back through Accept-Language, then the default language.
// @Tags         consent
// @Produce      json
// @Param        language         path      string  true   "Language code, e.g. kn"
// @Param        Accept-Language  header    string  false  "Fallback preference"
// @Success      200              {object}  responses.ConsentResponse
// @Router       /v1/consent/{language} [get]
func (h *ConsentHandler) Script(c *gin.Context) {
	requested := c.Param("language")
	_, found := h.catalog.Lookup(requested)
	script := h.catalog.Resolve(requested, c.GetHeader("Accept-Language"))

	c.JSON(http.StatusOK, responses.ConsentResponse{
		Requested: requested,
		Fallback:  !found,
		Script:    script,
	})
}
