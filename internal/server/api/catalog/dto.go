package catalog

import "github.com/kantorei/chorsync/internal/server/models"

type updatedInput struct {
	ChoirID string `path:"choirID"`
	Since   int64  `query:"since"`
}

type updatedOutput struct {
	Body UpdatedResponse
}

type UpdatedResponse struct {
	Songs      []models.Song `json:"songs"`
	ServerTime int64         `json:"serverTime"`
}

type deletedInput struct {
	ChoirID string `path:"choirID"`
	Since   int64  `query:"since"`
}

type deletedOutput struct {
	Body DeletedResponse
}

type DeletedResponse struct {
	IDs []string `json:"ids"`
}

type batchInput struct {
	ChoirID string `path:"choirID"`
	Body    struct {
		IDs []string `json:"ids"`
	}
}

type batchOutput struct {
	Body BatchResponse
}

type BatchResponse struct {
	Songs []models.Song `json:"songs"`
}

type upcomingInput struct {
	ChoirID string `path:"choirID"`
	Limit   int    `query:"limit"`
}

type upcomingOutput struct {
	Body UpcomingResponse
}

type UpcomingResponse struct {
	Services []models.ChoirService `json:"services"`
}

type absencesInput struct {
	ChoirID  string `path:"choirID"`
	MemberID string `path:"memberID"`
}

type absencesOutput struct {
	Body AbsencesResponse
}

type AbsencesResponse struct {
	Absences []models.Absence `json:"absences"`
}
