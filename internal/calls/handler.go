package calls

import (
	"net/http"

	"callgenie_backend/platform/apperr"
	"callgenie_backend/platform/httpkit"
	"callgenie_backend/platform/phone"
	"callgenie_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type singleCallRequest struct {
	AgentID     string `json:"agentId" validate:"required,uuid"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Name        string `json:"name" validate:"max=200"`
	Email       string `json:"email" validate:"omitempty,email,max=254"`
	Address     string `json:"address" validate:"max=300"`
}

type singleCallResponse struct {
	CallID string `json:"callId"`
}

type Handler struct {
	svc       *Service
	directory AgentDirectory
	val       *validator.Validator
}

func NewHandler(svc *Service, directory AgentDirectory, val *validator.Validator) *Handler {
	return &Handler{svc: svc, directory: directory, val: val}
}

// CreateSingleCall dials one lead with an assigned agent.
func (h *Handler) CreateSingleCall(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req singleCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	agent, err := h.directory.GetForUser(c.Request.Context(), id.UserID(), agentID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	toNumber := phone.NormalizeDialable(req.PhoneNumber)
	if toNumber == "" {
		httpkit.HandleError(c, apperr.Validation("lead has no dialable phone number"))
		return
	}
	if agent.RequiresAddress && req.Address == "" {
		httpkit.HandleError(c, apperr.Validation("missing address"))
		return
	}

	result, err := h.svc.DispatchSingle(c.Request.Context(), SingleRequest{
		UserID:          id.UserID(),
		ProviderAgentID: agent.ProviderAgentID,
		CallerNumber:    agent.CallerNumber,
		PhoneNumber:     toNumber,
		Name:            req.Name,
		Email:           req.Email,
		Address:         req.Address,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.Created(c, singleCallResponse{CallID: result.CallID})
}
