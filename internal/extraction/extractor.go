// Package extraction turns images of lead lists (screenshots, photographed
// sheets, flyers) into structured leads using the Gemini API.
package extraction

import (
	"context"
	"encoding/json"
	"strings"

	"callgenie_backend/platform/apperr"
	"callgenie_backend/platform/config"
	"callgenie_backend/platform/logger"

	"google.golang.org/genai"
)

const extractionPrompt = `You are a data extraction assistant. The image contains a list of contacts or leads.
Extract every entry you can find and respond with ONLY a JSON array, no prose.
Each element must have exactly these keys:
  "name": the contact's name, or "" when missing
  "email": the email address, or "" when missing
  "phone_number": the phone number exactly as written, or "" when missing
  "address": the street or property address, or "" when missing
Skip decorative rows and headers. If the image contains no contacts, respond with [].`

// ExtractedLead is one contact pulled from an image. Fields are raw text as
// read; phone normalization happens downstream.
type ExtractedLead struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
}

// Extractor calls Gemini to pull leads out of images.
type Extractor struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

// New creates the extractor. Returns nil when no API key is configured; the
// caller should treat image ingestion as unavailable in that case.
func New(ctx context.Context, cfg config.ExtractionConfig, log *logger.Logger) (*Extractor, error) {
	if !cfg.IsExtractionEnabled() {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GetGeminiAPIKey(),
	})
	if err != nil {
		return nil, err
	}

	return &Extractor{
		client: client,
		model:  cfg.GetGeminiModel(),
		log:    log,
	}, nil
}

// Extract runs one extraction pass over the image. A response that cannot be
// parsed as a lead array is an extraction failure; there is no retry.
func (e *Extractor) Extract(ctx context.Context, imageData []byte, mimeType string) ([]ExtractedLead, error) {
	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     imageData,
					},
				},
				genai.NewPartFromText(extractionPrompt),
			},
		},
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		e.log.Error("extraction request failed", "error", err.Error())
		return nil, apperr.Wrap(apperr.KindUpstream, "image extraction failed", err)
	}

	leads, err := parseLeads(resp.Text())
	if err != nil {
		e.log.Warn("extraction response unparseable", "error", err.Error())
		return nil, apperr.Upstream("could not extract leads from the image")
	}
	return leads, nil
}

// parseLeads strips markdown fences the model sometimes wraps around its JSON
// and decodes the lead array.
func parseLeads(text string) ([]ExtractedLead, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var leads []ExtractedLead
	if err := json.Unmarshal([]byte(cleaned), &leads); err != nil {
		return nil, err
	}
	return leads, nil
}
