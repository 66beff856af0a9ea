package validation

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=31"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Username string `json:"username" validate:"omitempty,min=3,max=20,username"`
}

// LoginRequest is the body of POST /api/auth/login. Either email or
// username identifies the account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required_without=Username,omitempty,email"`
	Username string `json:"username" validate:"required_without=Email"`
	Password string `json:"password" validate:"required"`
}

// UpdateNameRequest is the body of POST /api/profile/update-name.
type UpdateNameRequest struct {
	Name string `json:"name" validate:"required,min=1,max=31"`
}

// UpdateUsernameRequest is the body of POST /api/profile/update-username.
type UpdateUsernameRequest struct {
	Username string `json:"username" validate:"required,min=3,max=20,username"`
}
