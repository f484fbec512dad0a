package chainrpc

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"ncc.pub/ncc/model"
)

// Server exposes model.ValidateResult over the ChainResolver gRPC service.
type Server struct {
	UnimplementedResolverServer
	Options model.ValidateOptions
}

func (s *Server) Validate(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing server")
	}

	var req model.ValidateRequest
	if err := json.Unmarshal(in.GetValue(), &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request JSON")
	}

	resp, err := model.ValidateResult(req, s.Options)
	if err != nil {
		return nil, mapCoded(err)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, "response encoding failed")
	}
	return wrapperspb.Bytes(b), nil
}

func mapCoded(err error) error {
	var ce *model.CodedError
	if !errors.As(err, &ce) {
		return status.Error(codes.Internal, err.Error())
	}
	switch ce.Code {
	case model.ErrInvalidRequest, model.ErrInvalidID:
		return status.Error(codes.InvalidArgument, ce.Error())
	case model.ErrMissingStore:
		return status.Error(codes.FailedPrecondition, ce.Error())
	case model.ErrNotFound:
		return status.Error(codes.NotFound, ce.Error())
	case model.ErrIDMismatch:
		return status.Error(codes.DataLoss, ce.Error())
	case model.ErrStrictRejected:
		return status.Error(codes.FailedPrecondition, ce.Error())
	default:
		return status.Error(codes.Internal, ce.Error())
	}
}
