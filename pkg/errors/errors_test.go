package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"classified", New(KindPermanentItem, "no extractor"), KindPermanentItem},
		{"wrapped once", fmt.Errorf("processing: %w", New(KindTransientRemote, "rate limited")), KindTransientRemote},
		{"wrapped twice", fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", New(KindLocalIO, "write failed"))), KindLocalIO},
		{"unclassified", stderrors.New("plain"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(New(KindTransientRemote, "rate limited")) {
		t.Error("rate-limit errors must be retryable")
	}

	for _, kind := range []Kind{KindPermanentItem, KindRemoteProtocol, KindLocalIO, KindSequenceAdvance, KindConfig} {
		if IsRetryable(New(kind, "x")) {
			t.Errorf("%s must not be retryable", kind)
		}
	}

	if IsRetryable(stderrors.New("plain")) {
		t.Error("unclassified errors must not be retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil must not be retryable")
	}
}

func TestIsNotFound(t *testing.T) {
	err := WithCode(KindRemoteProtocol, 404, "record missing")
	if !IsNotFound(err) {
		t.Error("404 error not detected")
	}
	if !IsNotFound(fmt.Errorf("fetch: %w", err)) {
		t.Error("wrapped 404 error not detected")
	}
	if IsNotFound(WithCode(KindRemoteProtocol, 500, "server error")) {
		t.Error("500 misreported as not found")
	}
	if IsNotFound(stderrors.New("plain")) {
		t.Error("plain error misreported as not found")
	}
}

func TestErrorString(t *testing.T) {
	err := Wrap(KindLocalIO, stderrors.New("disk full"), "write destination")
	got := err.Error()
	for _, want := range []string{"local_io", "write destination", "disk full"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}

	coded := WithCode(KindRemoteProtocol, 429, "too many requests")
	if !strings.Contains(coded.Error(), "429") {
		t.Errorf("Error() = %q, missing status code", coded.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := Wrap(KindRemoteProtocol, cause, "fetch failed")
	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause not reachable through errors.Is")
	}
}
