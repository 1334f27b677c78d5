package model

// ============================================================================
// Auth 요청 모델
// ============================================================================

// RegisterRequest - 회원가입 요청
type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required"`
	FullName *string `json:"full_name,omitempty"`
}

// LoginRequest - 로그인 요청
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest - JSON body 또는 query(refresh_token) 모두 허용
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token" binding:"required"`
}

// PasswordResetRequest - JSON body 또는 query(email) 모두 허용
type PasswordResetRequest struct {
	Email string `json:"email" form:"email" binding:"required,email"`
}

// UpdatePasswordRequest - JSON body 또는 query(new_password) 모두 허용
type UpdatePasswordRequest struct {
	NewPassword string `json:"new_password" form:"new_password" binding:"required"`
}

// ============================================================================
// Auth 응답 모델
// ============================================================================

// UserSummary - 외부 인증 서비스 user의 읽기 전용 projection
type UserSummary struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	FullName  string `json:"full_name,omitempty"`
}

// RegisterResponse - 회원가입 응답
type RegisterResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
}

// TokenResponse - 로그인/토큰 갱신 응답
type TokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	User         UserSummary `json:"user"`
}

// AuthUser - 인증 미들웨어가 gin.Context에 저장하는 호출자 정보
type AuthUser struct {
	ID          string
	Email       string
	CreatedAt   string
	FullName    string
	AccessToken string
}

// Summary projects the caller into the public user shape.
func (u *AuthUser) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		FullName:  u.FullName,
	}
}
