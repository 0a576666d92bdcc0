package handler

import (
	"net/http"

	"github.com/aquadose/aquadose/internal/api/models"
	"github.com/aquadose/aquadose/internal/api/response"
	"github.com/aquadose/aquadose/internal/dosing"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct{}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler() *MetadataHandler {
	return &MetadataHandler{}
}

// GetEnums handles GET /v1/metadata/enums - get enum values used by the API.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	enums := models.Enums{
		Parameters: []string{
			string(dosing.ParameterAmmonia),
			string(dosing.ParameterNitrite),
			string(dosing.ParameterNitrate),
			string(dosing.ParameterGH),
			string(dosing.ParameterKH),
		},
		Statuses: []string{
			string(dosing.StatusGood),
			string(dosing.StatusWarning),
			string(dosing.StatusInfo),
		},
	}
	for _, u := range dosing.Units() {
		enums.Units = append(enums.Units, string(u))
	}
	for _, p := range dosing.Products() {
		enums.Products = append(enums.Products, string(p))
	}
	enums.Products = append(enums.Products, string(dosing.ProductDetoxifier), string(dosing.ProductBioBooster))
	for _, l := range dosing.Locales() {
		enums.Locales = append(enums.Locales, string(l))
	}
	response.JSON(w, r, http.StatusOK, enums)
}
