package handler

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest is the body of POST /auth/refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally carries the refresh token to revoke with the session
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Name        string   `json:"name" binding:"required,max=120"`
	Email       string   `json:"email" binding:"required,email"`
	Password    string   `json:"password" binding:"required,min=8,max=72"`
	Roles       []string `json:"roles" binding:"required,min=1,dive,oneof=admin technician seller driver financial manager"`
	Permissions []string `json:"permissions"`
}

// SetRolesRequest replaces the roles of a user
type SetRolesRequest struct {
	Roles []string `json:"roles" binding:"required,min=1,dive,oneof=admin technician seller driver financial manager"`
}

// CreateTenantRequest provisions a tenant and its first administrator
type CreateTenantRequest struct {
	Name          string `json:"name" binding:"required,max=160"`
	Slug          string `json:"slug" binding:"required,max=60"`
	Timezone      string `json:"timezone"`
	AdminName     string `json:"admin_name" binding:"required"`
	AdminEmail    string `json:"admin_email" binding:"required,email"`
	AdminPassword string `json:"admin_password" binding:"required,min=8,max=72"`
}

// CreateTenantResponse is returned when a tenant is provisioned
type CreateTenantResponse struct {
	Tenant any `json:"tenant"`
	Admin  any `json:"admin"`
}

// RolePermissionsRequest grants or revokes permissions on a role
type RolePermissionsRequest struct {
	Permissions []string `json:"permissions" binding:"required,min=1"`
}
