package common

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestGRPCCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"nil", nil, codes.OK},
		{"bad request", BadRequestf("Bucket is required"), codes.InvalidArgument},
		{"not found", NotFoundf("Job not found: %s", "x"), codes.NotFound},
		{"wrapped not found", fmt.Errorf("read: %w", NotFoundf("gone")), codes.NotFound},
		{"unsupported", UnsupportedMediaType("text/plain"), codes.Unimplemented},
		{"invalid state", InvalidStatef("job %s is terminal", "x"), codes.FailedPrecondition},
		{"extraction", ExtractionError("failed to parse PDF", errors.New("eof")), codes.Internal},
		{"plain", errors.New("boom"), codes.Internal},
		{"status", status.Error(codes.Unavailable, "later"), codes.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GRPCCode(tt.err); got != tt.want {
				t.Fatalf("GRPCCode = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToStatusUsesClientMessage(t *testing.T) {
	err := ToStatus(NotFoundf("Document not found: %s", "docs/a.pdf"))
	s, ok := status.FromError(err)
	if !ok || s.Code() != codes.NotFound || s.Message() != "Document not found: docs/a.pdf" {
		t.Fatalf("status = %v", err)
	}
	if ToStatus(nil) != nil {
		t.Fatal("ToStatus(nil) != nil")
	}
}

func TestExtractionErrorKeepsCause(t *testing.T) {
	cause := errors.New("xref table missing")
	err := ExtractionError("failed to parse PDF", cause)
	if !errors.Is(err, ErrExtraction) || !errors.Is(err, cause) {
		t.Fatalf("err = %v does not unwrap to both sentinel and cause", err)
	}
	if got := err.Error(); got != "ExtractionError: failed to parse PDF: extraction failed: xref table missing" {
		t.Fatalf("message = %q", got)
	}
	if !errors.Is(ExtractionError("empty document", nil), ErrExtraction) {
		t.Fatal("nil-cause extraction error lost its sentinel")
	}
}

func TestValidator(t *testing.T) {
	err := NewValidator().
		Field("Bucket", "docs", Required, BucketName, MaxLength(255)).
		Field("Name", "a/b.pdf", Required, ObjectKey).
		Err()
	if err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	tests := []struct {
		name  string
		field string
		value string
		rules []ValidationRule
	}{
		{"blank", "Bucket", "   ", []ValidationRule{Required}},
		{"slash in bucket", "Bucket", "a/b", []ValidationRule{BucketName}},
		{"dot bucket", "Bucket", "..", []ValidationRule{BucketName}},
		{"absolute key", "Name", "/etc/passwd", []ValidationRule{ObjectKey}},
		{"parent segment", "Name", "a/../../b", []ValidationRule{ObjectKey}},
		{"too long", "JobId", "abcdef", []ValidationRule{MaxLength(5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidator().Field(tt.field, tt.value, tt.rules...).Err()
			if !errors.Is(err, ErrBadRequest) {
				t.Fatalf("err = %v, want bad request", err)
			}
		})
	}
}
