package catalog

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) updatedOp() huma.Operation {
	return huma.Operation{
		OperationID: "songs-updated-since",
		Method:      http.MethodGet,
		Path:        "/api/v1/choirs/{choirID}/songs/updated",
		Summary:     "List songs changed after the given watermark",
		Tags:        []string{"catalog"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) deletedOp() huma.Operation {
	return huma.Operation{
		OperationID: "songs-deleted-since",
		Method:      http.MethodGet,
		Path:        "/api/v1/choirs/{choirID}/songs/deleted",
		Summary:     "List ids of songs deleted after the given watermark",
		Tags:        []string{"catalog"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) batchOp() huma.Operation {
	return huma.Operation{
		OperationID: "songs-batch",
		Method:      http.MethodPost,
		Path:        "/api/v1/choirs/{choirID}/songs/batch",
		Summary:     "Fetch full song records for a set of ids",
		Tags:        []string{"catalog"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) upcomingOp() huma.Operation {
	return huma.Operation{
		OperationID: "services-upcoming",
		Method:      http.MethodGet,
		Path:        "/api/v1/choirs/{choirID}/services/upcoming",
		Summary:     "List upcoming services, nearest first",
		Tags:        []string{"catalog"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) absencesOp() huma.Operation {
	return huma.Operation{
		OperationID: "member-absences",
		Method:      http.MethodGet,
		Path:        "/api/v1/choirs/{choirID}/members/{memberID}/absences",
		Summary:     "List a member's recorded absences, newest first",
		Tags:        []string{"catalog"},
		Middlewares: h.middleware,
	}
}
