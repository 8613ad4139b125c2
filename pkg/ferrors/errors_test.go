package ferrors

import (
	"errors"
	"net/http"
	"testing"
)

func TestRetryableKinds(t *testing.T) {
	cases := []struct {
		kind Kind
		want bool
	}{
		{KindTimeout, true},
		{KindRateLimit, true},
		{KindNetwork, true},
		{KindProviderError, true},
		{KindAuth, false},
		{KindContextOverflow, false},
		{KindValidation, false},
		{KindNotFound, false},
	}
	for _, c := range cases {
		if got := c.kind.Retryable(); got != c.want {
			t.Errorf("%s.Retryable() = %v, want %v", c.kind, got, c.want)
		}
	}
}

func TestErrorFormatsWithAndWithoutWrappedErr(t *testing.T) {
	plain := New(KindValidation, "bad input")
	if plain.Error() != "[VALIDATION] bad input" {
		t.Errorf("plain Error() = %q", plain.Error())
	}

	wrapped := Wrap(errors.New("boom"), KindStorage, "write failed")
	if wrapped.Error() != "[STORAGE] write failed: boom" {
		t.Errorf("wrapped Error() = %q", wrapped.Error())
	}
}

func TestUnwrapReturnsWrappedErr(t *testing.T) {
	inner := errors.New("boom")
	wrapped := Wrap(inner, KindStorage, "write failed")
	if !errors.Is(wrapped, inner) {
		t.Error("expected errors.Is to find the wrapped inner error")
	}
}

func TestAsNormalizesPlainError(t *testing.T) {
	if As(nil) != nil {
		t.Error("As(nil) should be nil")
	}
	fe := As(errors.New("raw"))
	if fe.Kind != KindProviderError {
		t.Errorf("As on a plain error = %s, want PROVIDER_ERROR", fe.Kind)
	}

	original := New(KindAuth, "nope")
	if As(original) != original {
		t.Error("As on an existing *Error should return it unchanged")
	}
}

func TestRetryableHelperOnPlainError(t *testing.T) {
	if Retryable(errors.New("plain")) {
		t.Error("a plain error should never be reported retryable")
	}
	if !Retryable(New(KindTimeout, "slow")) {
		t.Error("a TIMEOUT *Error should be retryable")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:          http.StatusBadRequest,
		KindAuth:                http.StatusUnauthorized,
		KindNotFound:            http.StatusNotFound,
		KindConcurrencyConflict: http.StatusConflict,
		KindRateLimit:           http.StatusTooManyRequests,
		KindTimeout:             http.StatusGatewayTimeout,
		KindContextOverflow:     http.StatusRequestEntityTooLarge,
		KindCancelled:           499,
		KindProviderError:       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := HTTPStatus(kind); got != want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestWithDetailMutatesAndReturnsSameError(t *testing.T) {
	e := New(KindParse, "bad json")
	got := e.WithDetail("line 3")
	if got != e {
		t.Error("WithDetail should return the same *Error instance")
	}
	if e.Detail != "line 3" {
		t.Errorf("Detail = %q, want %q", e.Detail, "line 3")
	}
}
