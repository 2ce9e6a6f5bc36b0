package dto

// CreateStaffRequest is the body of the staff-provisioning endpoint.
type CreateStaffRequest struct {
	Email      string `json:"email" validate:"required"`
	Password   string `json:"senha" validate:"required"`
	Name       string `json:"nome" validate:"required"`
	Department string `json:"setor" validate:"required"`
}

// CreateStaffResponse echoes the provisioned credentials back to the administrator.
type CreateStaffResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Email    string `json:"email"`
	Password string `json:"senha"`
}
