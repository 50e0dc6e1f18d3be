package transport

import "time"

type LeadInput struct {
	Name        string `json:"name" validate:"max=200"`
	Email       string `json:"email" validate:"omitempty,email,max=254"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Address     string `json:"address" validate:"max=300"`
}

type BulkCreateRequest struct {
	Leads []LeadInput `json:"leads" validate:"required,min=1,dive"`
}

type UpdateLeadRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Email       *string `json:"email" validate:"omitempty,email,max=254"`
	PhoneNumber *string `json:"phoneNumber"`
	Address     *string `json:"address" validate:"omitempty,max=300"`
}

type LeadResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type BulkCreateResponse struct {
	Leads []LeadResponse `json:"leads"`
}
