package sheets

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) presignOp() huma.Operation {
	return huma.Operation{
		OperationID: "sheets-presign",
		Method:      http.MethodGet,
		Path:        "/api/v1/sheets/presign",
		Summary:     "Presign a download URL for a stored sheet object",
		Tags:        []string{"sheets"},
		Middlewares: h.middleware,
	}
}
