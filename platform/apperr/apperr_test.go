package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:        http.StatusNotFound,
		KindValidation:      http.StatusBadRequest,
		KindConflict:        http.StatusConflict,
		KindInternal:        http.StatusInternalServerError,
		KindTooManyRequests: http.StatusTooManyRequests,
		KindBadGateway:      http.StatusBadGateway,
		KindGatewayTimeout:  http.StatusGatewayTimeout,
		KindUnavailable:     http.StatusServiceUnavailable,
		KindUnknown:         http.StatusBadRequest,
	}
	for kind, want := range cases {
		if got := New(kind, "x").HTTPStatus(); got != want {
			t.Fatalf("kind %d: expected %d, got %d", kind, want, got)
		}
	}
}

func TestGetKindFollowsWrapping(t *testing.T) {
	base := Wrap(KindBadGateway, "upstream failed", errors.New("dial tcp"))
	wrapped := fmt.Errorf("generate: %w", base)

	if !Is(wrapped, KindBadGateway) {
		t.Fatalf("expected wrapped error to keep its kind")
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatalf("expected unknown kind for plain errors")
	}
}

func TestErrorStringIncludesOpAndCause(t *testing.T) {
	err := Wrap(KindInternal, "render failed", errors.New("boom")).WithOp("print")
	if err.Error() != "print: render failed: boom" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
