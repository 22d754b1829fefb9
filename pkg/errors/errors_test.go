package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeIdempotency, status: http.StatusConflict, publicMsg: "idempotency key reused", detailsOK: true},
		{code: CodeResolution, status: http.StatusServiceUnavailable, publicMsg: "ledger balance could not be resolved", retryable: true, detailsOK: true},
		{code: CodeConcurrency, status: http.StatusConflict, publicMsg: "concurrent write on the same ledger scope", retryable: true, detailsOK: true},
		{code: CodePartialPost, status: http.StatusBadGateway, publicMsg: "event was only partially posted", retryable: true, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("row locked")
	err := Wrap(CodeConcurrency, cause, "append failed")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause in chain")
	}
	typed := As(err)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeConcurrency {
		t.Fatalf("unexpected code %s", typed.Code())
	}
	if typed.Message() != "append failed" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestIsCodeWalksChain(t *testing.T) {
	inner := New(CodeIdempotency, "key reused")
	outer := Wrap(CodeInternal, inner, "posting failed")

	if !IsCode(outer, CodeIdempotency) {
		t.Fatal("expected inner code to be found")
	}
	if IsCode(outer, CodeNotFound) {
		t.Fatal("did not expect CodeNotFound in chain")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad input").WithDetails(map[string]string{"field": "amount"})
	details, ok := err.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details type %T", err.Details())
	}
	if details["field"] != "amount" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestAsReturnsNilForUntypedError(t *testing.T) {
	if As(stdErrors.New("plain")) != nil {
		t.Fatal("expected nil for untyped error")
	}
}
