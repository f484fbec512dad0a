package grpcstore

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"ncc.pub/ncc/storage"
)

// Server exposes a storage.RecordStore over the RecordStore gRPC service.
type Server struct {
	UnimplementedRecordStoreServer
	Store storage.RecordStore
}

func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	b := in.GetValue()
	// Enforce the id contract on the server side too.
	expected, err := storage.RecordID(b)
	if err != nil {
		return nil, mapErr(err)
	}
	id, err := s.Store.Put(b)
	if err != nil {
		return nil, mapErr(err)
	}
	if id != expected {
		return nil, status.Error(codes.DataLoss, storage.ErrIDMismatch.Error())
	}
	return wrapperspb.String(id), nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	id := in.GetValue()
	if !storage.ValidID(id) {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidID.Error())
	}
	b, err := s.Store.Get(id)
	if err != nil {
		return nil, mapErr(err)
	}
	got, err := storage.RecordID(b)
	if err != nil || got != id {
		return nil, status.Error(codes.DataLoss, storage.ErrIDMismatch.Error())
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	id := in.GetValue()
	if !storage.ValidID(id) {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidID.Error())
	}
	return wrapperspb.Bool(s.Store.Has(id)), nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case storage.IsNotFound(err):
		return status.Error(codes.NotFound, storage.ErrNotFound.Error())
	case errors.Is(err, storage.ErrInvalidID):
		return status.Error(codes.InvalidArgument, storage.ErrInvalidID.Error())
	case errors.Is(err, storage.ErrIDMismatch):
		return status.Error(codes.DataLoss, storage.ErrIDMismatch.Error())
	case errors.Is(err, storage.ErrImmutable):
		return status.Error(codes.FailedPrecondition, storage.ErrImmutable.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
