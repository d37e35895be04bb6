// Package server exposes the extraction pipeline over HTTP (gin) and gRPC.
package server

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
)

// DocumentProcessor is satisfied by *pipeline.Processor.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, req pipeline.Request) (*entity.ExtractionResult, error)
}

// RequestIDHeader carries the caller's request ID on HTTP and gRPC (as metadata).
const RequestIDHeader = "X-Request-ID"

// errorBody is the JSON error envelope returned by the HTTP API.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func newErrorBody(err error, reqID string) errorBody {
	detail := errorDetail{Code: "INTERNAL", Message: err.Error(), RequestID: reqID}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		detail.Code = appErr.Code
		detail.Message = appErr.Message
	}
	return errorBody{Error: detail}
}
