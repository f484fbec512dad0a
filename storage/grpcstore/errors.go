package grpcstore

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ncc.pub/ncc/storage"
)

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return storage.ErrNotFound
	case codes.InvalidArgument:
		// Server uses InvalidArgument for malformed ids.
		return storage.ErrInvalidID
	case codes.DataLoss:
		// Server uses DataLoss when bytes do not hash to the requested id.
		return storage.ErrIDMismatch
	case codes.FailedPrecondition:
		return storage.ErrImmutable
	default:
		// Best-effort: if the server sent a known storage error message, preserve it.
		switch st.Message() {
		case storage.ErrNotFound.Error():
			return storage.ErrNotFound
		case storage.ErrInvalidID.Error():
			return storage.ErrInvalidID
		case storage.ErrIDMismatch.Error():
			return storage.ErrIDMismatch
		default:
			return err
		}
	}
}
