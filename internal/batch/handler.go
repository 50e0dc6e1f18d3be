package batch

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"callgenie_backend/platform/httpkit"
	"callgenie_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"

	// Uploads beyond this are rejected before parsing.
	maxUploadBytes = 10 << 20
)

type addLeadRequest struct {
	Name        string `json:"name" validate:"max=200"`
	Email       string `json:"email" validate:"omitempty,email,max=254"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Address     string `json:"address" validate:"max=300"`
}

type editLeadRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email" validate:"omitempty,email,max=254"`
	PhoneNumber *string `json:"phoneNumber"`
	Address     *string `json:"address"`
}

type submitRequest struct {
	AgentID          string     `json:"agentId" validate:"required,uuid"`
	BatchName        string     `json:"batchName" validate:"max=200"`
	TriggerTimestamp *time.Time `json:"triggerTimestamp"`
}

type sessionResponse struct {
	Leads         []Lead `json:"leads"`
	Pending       []Lead `json:"pending"`
	PendingSource string `json:"pendingSource,omitempty"`
}

type ingestResponse struct {
	Staged      int `json:"staged"`
	RowsSkipped int `json:"rowsSkipped,omitempty"`
}

type confirmResponse struct {
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
}

type syncResponse struct {
	sessionResponse
	Added    int `json:"added"`
	Enriched int `json:"enriched"`
}

type editResponse struct {
	sessionResponse
	Notice string `json:"notice,omitempty"`
}

type submitResponse struct {
	BatchID    string     `json:"batchId,omitempty"`
	Scheduled  bool       `json:"scheduled"`
	DispatchAt *time.Time `json:"dispatchAt,omitempty"`
	Credits    int        `json:"credits"`
}

func newSessionResponse(state State) sessionResponse {
	resp := sessionResponse{
		Leads:         state.Leads,
		Pending:       state.Pending,
		PendingSource: state.PendingSource,
	}
	if resp.Leads == nil {
		resp.Leads = []Lead{}
	}
	if resp.Pending == nil {
		resp.Pending = []Lead{}
	}
	return resp
}

type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GetSession returns the current working session.
func (h *Handler) GetSession(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	httpkit.OK(c, newSessionResponse(h.svc.State(id.UserID())))
}

// AddLead stores a hand-entered lead and adds it to the session.
func (h *Handler) AddLead(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req addLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	state, err := h.svc.AddManual(c.Request.Context(), id.UserID(), RawLead{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.Created(c, newSessionResponse(state))
}

// UploadFile stages a spreadsheet of leads into the pending buffer.
func (h *Handler) UploadFile(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	if fileHeader.Size > maxUploadBytes {
		httpkit.Error(c, http.StatusBadRequest, "file is too large", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}
	defer file.Close()

	summary, err := h.svc.IngestFile(c.Request.Context(), id.UserID(), fileHeader.Filename, file)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, ingestResponse{Staged: summary.Staged, RowsSkipped: summary.RowsSkipped})
}

// UploadImage extracts leads from a photo into the pending buffer.
func (h *Handler) UploadImage(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "image is required", nil)
		return
	}
	if fileHeader.Size > maxUploadBytes {
		httpkit.Error(c, http.StatusBadRequest, "image is too large", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read image", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read image", nil)
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	summary, err := h.svc.IngestImage(c.Request.Context(), id.UserID(), data, mimeType)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, ingestResponse{Staged: summary.Staged})
}

// ConfirmPending commits the reviewed buffer into the session.
func (h *Handler) ConfirmPending(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	summary, err := h.svc.ConfirmPending(c.Request.Context(), id.UserID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, confirmResponse{Added: summary.Added, Duplicates: summary.Duplicates})
}

// CancelPending discards the reviewed buffer.
func (h *Handler) CancelPending(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	h.svc.CancelPending(id.UserID())
	httpkit.OK(c, newSessionResponse(h.svc.State(id.UserID())))
}

// RemoveLead deletes the lead at the given position.
func (h *Handler) RemoveLead(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	index, ok := leadIndex(c)
	if !ok {
		return
	}

	state, err := h.svc.Remove(c.Request.Context(), id.UserID(), index)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, newSessionResponse(state))
}

// EditLead updates the lead at the given position.
func (h *Handler) EditLead(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	index, ok := leadIndex(c)
	if !ok {
		return
	}

	var req editLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	state, localOnly, err := h.svc.Edit(c.Request.Context(), id.UserID(), index, EditRequest{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	resp := editResponse{sessionResponse: newSessionResponse(state)}
	if localOnly {
		resp.Notice = "lead was not found in the store, the change applies to this session only"
	}
	httpkit.OK(c, resp)
}

// ToggleLead flips selection of the lead at the given position.
func (h *Handler) ToggleLead(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	index, ok := leadIndex(c)
	if !ok {
		return
	}

	state, err := h.svc.Toggle(id.UserID(), index)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, newSessionResponse(state))
}

// ToggleAll selects every session lead, or deselects them all when every
// lead is already selected.
func (h *Handler) ToggleAll(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	httpkit.OK(c, newSessionResponse(h.svc.ToggleAll(id.UserID())))
}

// Sync reconciles the session with the stored leads.
func (h *Handler) Sync(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	state, summary, err := h.svc.Sync(c.Request.Context(), id.UserID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, syncResponse{
		sessionResponse: newSessionResponse(state),
		Added:           summary.Added,
		Enriched:        summary.Enriched,
	})
}

// DiscardSession drops the working session entirely.
func (h *Handler) DiscardSession(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	h.svc.Discard(id.UserID())
	httpkit.OK(c, newSessionResponse(h.svc.State(id.UserID())))
}

// Submit fires or schedules the batch call for the selected leads.
func (h *Handler) Submit(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), id.UserID(), agentID, req.BatchName, req.TriggerTimestamp)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, submitResponse{
		BatchID:    result.BatchID,
		Scheduled:  result.Scheduled,
		DispatchAt: result.DispatchAt,
		Credits:    result.Credits,
	})
}

func leadIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead position", nil)
		return 0, false
	}
	return index, true
}
