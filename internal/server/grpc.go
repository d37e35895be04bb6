package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
)

const (
	ExtractionServiceName = "docextract.v1.ExtractionService"
	ExtractMethod         = "/" + ExtractionServiceName + "/Extract"
)

// ExtractionServer is the gRPC surface. Requests and responses are
// google.protobuf.Struct so no generated code is needed:
//
//	{"path": "...", "fields": [...], "auto_detect": true, "doc_type": "invoice"}
//	{"filename": "scan.pdf", "content": "<base64>", ...}
//
// The response is the ExtractionResult JSON document.
type ExtractionServer interface {
	Extract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ExtractionServiceDesc is registered with grpc.Server.RegisterService.
var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ExtractionServiceName,
	HandlerType: (*ExtractionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Extract", Handler: extractHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docextract/v1/extraction.proto",
}

func RegisterExtractionServer(s grpc.ServiceRegistrar, srv ExtractionServer) {
	s.RegisterService(&ExtractionServiceDesc, srv)
}

func extractHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractionServer).Extract(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExtractMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExtractionServer).Extract(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ExtractionService implements ExtractionServer on top of a DocumentProcessor.
type ExtractionService struct {
	processor DocumentProcessor
	logger    *slog.Logger
}

var _ ExtractionServer = (*ExtractionService)(nil)

func NewExtractionService(processor DocumentProcessor, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{processor: processor, logger: logger}
}

func (s *ExtractionService) Extract(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	rid := common.RequestIDFromContext(ctx)
	req, content, filename, err := decodeRequest(in)
	if err != nil {
		s.logger.Warn("grpc.extract.rejected", "req_id", rid, "error", err)
		return nil, common.GRPCStatus(err)
	}

	if content != nil {
		dir, err := os.MkdirTemp("", "docextract-grpc-")
		if err != nil {
			return nil, common.InternalError("creating upload dir")
		}
		defer func() { _ = os.RemoveAll(dir) }()
		req.Path = filepath.Join(dir, "upload"+strings.ToLower(filepath.Ext(filename)))
		if err := os.WriteFile(req.Path, content, 0o600); err != nil {
			return nil, common.InternalError("writing upload")
		}
	}

	result, err := s.processor.ProcessDocument(ctx, req)
	if err != nil {
		s.logger.Error("grpc.extract.failed", "req_id", rid, "error", err)
		return nil, common.GRPCStatus(err)
	}

	out, err := encodeResult(result)
	if err != nil {
		s.logger.Error("grpc.extract.encode_failed", "req_id", rid, "error", err)
		return nil, common.InternalError("encoding result")
	}
	return out, nil
}

// decodeRequest accepts either a server-local path or inline base64 content
// with a filename whose extension selects the loader.
func decodeRequest(in *structpb.Struct) (pipeline.Request, []byte, string, error) {
	fields := in.GetFields()
	str := func(k string) string { return strings.TrimSpace(fields[k].GetStringValue()) }
	invalid := func(msg string) error {
		return common.Kind(common.ErrInvalidInput, "INVALID_REQUEST", msg, nil)
	}

	req := pipeline.Request{
		Path:       str("path"),
		AutoDetect: true,
		DocType:    str("doc_type"),
	}
	if v, ok := fields["auto_detect"]; ok {
		b, isBool := v.GetKind().(*structpb.Value_BoolValue)
		if !isBool {
			return req, nil, "", invalid("auto_detect must be a boolean")
		}
		req.AutoDetect = b.BoolValue
	}
	if v, ok := fields["fields"]; ok {
		list := v.GetListValue()
		if list == nil {
			return req, nil, "", invalid("fields must be a list of strings")
		}
		for _, item := range list.GetValues() {
			s, isString := item.GetKind().(*structpb.Value_StringValue)
			if !isString {
				return req, nil, "", invalid("fields must be a list of strings")
			}
			if name := strings.TrimSpace(s.StringValue); name != "" {
				req.Fields = append(req.Fields, name)
			}
		}
	}

	raw := str("content")
	if raw == "" {
		if req.Path == "" {
			return req, nil, "", invalid("one of path or content is required")
		}
		return req, nil, "", nil
	}
	if req.Path != "" {
		return req, nil, "", invalid("path and content are mutually exclusive")
	}
	filename := str("filename")
	if filename == "" {
		return req, nil, "", invalid("filename is required with content")
	}
	content, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return req, nil, "", invalid(fmt.Sprintf("content is not valid base64: %v", err))
	}
	return req, content, filename, nil
}

func encodeResult(result *entity.ExtractionResult) (*structpb.Struct, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnaryRequestID propagates x-request-id metadata into the context and logs
// each call.
func UnaryRequestID(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(strings.ToLower(RequestIDHeader)); len(v) > 0 {
				id = strings.TrimSpace(v[0])
			}
		}
		if id == "" {
			id = uuid.NewString()
		}
		ctx = common.WithRequestID(ctx, id)
		_ = grpc.SetHeader(ctx, metadata.Pairs(strings.ToLower(RequestIDHeader), id))

		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc.request",
			"req_id", id,
			"method", info.FullMethod,
			"ok", err == nil,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
