package authapi

type loginInput struct {
	Body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
}

type refreshInput struct {
	Body struct {
		RefreshToken string `json:"refreshToken"`
	}
}

type tokenPairOutput struct {
	Body TokenPairResponse
}

type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type resyncOutput struct {
	Body ResyncResponse
}

type ResyncResponse struct {
	Status string `json:"status"`
}
