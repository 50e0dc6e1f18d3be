package calls

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"callgenie_backend/platform/apperr"
	"callgenie_backend/platform/config"
	"callgenie_backend/platform/logger"
)

const providerTimeout = 30 * time.Second

// ProviderClient is a thin HTTP client for the voice provider's call API.
type ProviderClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logger.Logger
}

func NewProviderClient(cfg config.ProviderConfig, log *logger.Logger) *ProviderClient {
	return &ProviderClient{
		baseURL:    cfg.GetCallProviderBaseURL(),
		apiKey:     cfg.GetCallProviderAPIKey(),
		httpClient: &http.Client{Timeout: providerTimeout},
		log:        log,
	}
}

type batchCallTask struct {
	ToNumber  string            `json:"to_number"`
	Variables map[string]string `json:"dynamic_variables,omitempty"`
}

type createBatchCallRequest struct {
	FromNumber      string          `json:"from_number"`
	OverrideAgentID string          `json:"override_agent_id"`
	Name            string          `json:"name,omitempty"`
	Tasks           []batchCallTask `json:"tasks"`
}

type createBatchCallResponse struct {
	BatchCallID string `json:"batch_call_id"`
}

type createPhoneCallRequest struct {
	FromNumber      string            `json:"from_number"`
	ToNumber        string            `json:"to_number"`
	OverrideAgentID string            `json:"override_agent_id"`
	Variables       map[string]string `json:"dynamic_variables,omitempty"`
}

type createPhoneCallResponse struct {
	CallID string `json:"call_id"`
}

// CreateBatchCall submits a batch of outbound calls. The provider's error
// text is surfaced verbatim to the caller.
func (p *ProviderClient) CreateBatchCall(ctx context.Context, req BatchRequest) (BatchResult, error) {
	tasks := make([]batchCallTask, 0, len(req.Leads))
	for _, lead := range req.Leads {
		tasks = append(tasks, batchCallTask{
			ToNumber:  lead.PhoneNumber,
			Variables: leadVariables(lead.Name, lead.Email, lead.Address),
		})
	}

	body := createBatchCallRequest{
		FromNumber:      req.CallerNumber,
		OverrideAgentID: req.ProviderAgentID,
		Name:            req.BatchName,
		Tasks:           tasks,
	}

	var resp createBatchCallResponse
	if err := p.post(ctx, "/create-batch-call", body, &resp); err != nil {
		return BatchResult{}, err
	}

	return BatchResult{BatchID: resp.BatchCallID, LeadCount: len(tasks)}, nil
}

// CreatePhoneCall submits one outbound call.
func (p *ProviderClient) CreatePhoneCall(ctx context.Context, req SingleRequest) (SingleResult, error) {
	body := createPhoneCallRequest{
		FromNumber:      req.CallerNumber,
		ToNumber:        req.PhoneNumber,
		OverrideAgentID: req.ProviderAgentID,
		Variables:       leadVariables(req.Name, req.Email, req.Address),
	}

	var resp createPhoneCallResponse
	if err := p.post(ctx, "/create-phone-call", body, &resp); err != nil {
		return SingleResult{}, err
	}

	return SingleResult{CallID: resp.CallID}, nil
}

func (p *ProviderClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "encode provider request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "build provider request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return apperr.Wrap(apperr.KindUpstream, "call provider unreachable", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return apperr.Wrap(apperr.KindUpstream, "read provider response", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		message := providerErrorMessage(respBody)
		p.log.Warn("provider rejected request", "path", path, "status", httpResp.StatusCode, "message", message)
		return apperr.Upstream(message)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return apperr.Wrap(apperr.KindUpstream, "decode provider response", err)
		}
	}
	return nil
}

// providerErrorMessage pulls the human readable error out of the provider's
// error body, falling back to the raw text.
func providerErrorMessage(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	if len(body) == 0 {
		return "call provider request failed"
	}
	return fmt.Sprintf("call provider request failed: %s", string(body))
}

func leadVariables(name, email, address string) map[string]string {
	vars := make(map[string]string)
	if name != "" {
		vars["name"] = name
	}
	if email != "" {
		vars["email"] = email
	}
	if address != "" {
		vars["address"] = address
	}
	if len(vars) == 0 {
		return nil
	}
	return vars
}
