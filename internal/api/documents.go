package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/access2chakri-ai/docushield-sub000/internal/core/domain"
	"github.com/access2chakri-ai/docushield-sub000/internal/transport"
)

// DocumentSubmission is the backend's reply to an upload: the document id
// doubles as the job id for status polling.
type DocumentSubmission struct {
	DocumentID string           `json:"document_id"`
	Filename   string           `json:"filename"`
	Status     domain.JobStatus `json:"status"`
}

type documentStatusResponse struct {
	DocumentID string           `json:"document_id"`
	Status     domain.JobStatus `json:"status"`
	Error      string           `json:"error,omitempty"`
}

// UploadDocument submits a document for processing under the extended
// timeout. The returned submission is what callers hand to the job
// tracker.
func (c *Client) UploadDocument(ctx context.Context, filename string, data io.Reader) (*DocumentSubmission, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", writer.FormDataContentType())

	var submission DocumentSubmission
	err = c.authed(ctx, transport.Request{
		Method:    http.MethodPost,
		URL:       c.baseURL + "/api/documents/upload",
		Body:      body.Bytes(),
		Header:    header,
		Operation: "document_upload",
	}, c.extendedTimeout, &submission)
	if err != nil {
		return nil, err
	}
	if submission.DocumentID == "" {
		return nil, fmt.Errorf("backend returned submission without document id")
	}
	if submission.Status == "" {
		submission.Status = domain.JobProcessing
	}
	return &submission, nil
}

// JobStatus reports the processing state of a submitted document. It
// implements the polling coordinator's status source. Idempotent, so
// transient failures are retried under the resilience executor.
func (c *Client) JobStatus(ctx context.Context, jobID string) (domain.JobStatus, error) {
	var resp documentStatusResponse
	err := c.resilience.Execute(ctx, "document_status", func(ctx context.Context) error {
		return c.authed(ctx, transport.Request{
			Method:    http.MethodGet,
			URL:       fmt.Sprintf("%s/api/documents/%s/status", c.baseURL, jobID),
			Operation: "document_status",
		}, c.defaultTimeout, &resp)
	}, classifyRequestError)
	if err != nil {
		return "", err
	}

	switch resp.Status {
	case domain.JobProcessing, domain.JobCompleted, domain.JobFailed:
		return resp.Status, nil
	default:
		return "", fmt.Errorf("backend returned unknown job status %q", resp.Status)
	}
}
