package model

// ErrorResponse - 모든 실패 응답의 공통 형태
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type RootResponse struct {
	Message      string `json:"message"`
	Status       string `json:"status"`
	AuthProvider string `json:"auth_provider"`
}
