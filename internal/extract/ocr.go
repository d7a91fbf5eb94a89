// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// ocrAPIBase is the OCR endpoint. Tests override it with an httptest URL.
var ocrAPIBase = "https://api.mistral.ai/v1/ocr"

const defaultOCRModel = "mistral-ocr-latest"

// OCRStrategy extracts text by uploading the PDF to a hosted OCR API
// as a base64 data URL and concatenating the returned page markdown.
type OCRStrategy struct {
	Client *http.Client
	APIKey string
	Model  string
}

type ocrRequest struct {
	Model    string      `json:"model"`
	Document ocrDocument `json:"document"`
}

type ocrDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type ocrResponse struct {
	Pages []ocrPage `json:"pages"`
}

type ocrPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// Name implements Strategy.
func (*OCRStrategy) Name() string { return "ocr" }

// Extract implements Strategy.
func (o *OCRStrategy) Extract(ctx context.Context, pdfPath string) (string, error) {
	if o.APIKey == "" {
		return "", fmt.Errorf("OCR API key not configured")
	}

	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return "", fmt.Errorf("reading PDF: %w", err)
	}

	model := o.Model
	if model == "" {
		model = defaultOCRModel
	}

	body, err := json.Marshal(ocrRequest{
		Model: model,
		Document: ocrDocument{
			Type:        "document_url",
			DocumentURL: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data),
		},
	})
	if err != nil {
		return "", fmt.Errorf("encoding OCR request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ocrAPIBase, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling OCR API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("OCR API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding OCR response: %w", err)
	}
	if len(parsed.Pages) == 0 {
		return "", fmt.Errorf("OCR API returned no pages")
	}

	pages := make([]string, len(parsed.Pages))
	for i, p := range parsed.Pages {
		pages[i] = p.Markdown
	}
	return strings.Join(pages, "\n\n"), nil
}
