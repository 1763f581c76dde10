package metadata

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}

func TestIsPrintableASCII(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"abc-123", true},
		{"has space", true},
		{"tab\tchar", false},
		{"utfé", false},
	}
	for _, tc := range cases {
		if got := IsPrintableASCII(tc.value); got != tc.want {
			t.Errorf("IsPrintableASCII(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestFirstMetadataValue(t *testing.T) {
	md := metadata.Pairs(RequestIDHeader, "req-1")
	if got := FirstMetadataValue(md, "X-Expohall-Request-Id"); got != "req-1" {
		t.Fatalf("expected case-insensitive match, got %q", got)
	}
	md = metadata.Pairs(RequestIDHeader, "bad\x01value", RequestIDHeader, "req-2")
	if got := FirstMetadataValue(md, RequestIDHeader); got != "req-2" {
		t.Fatalf("expected first printable value, got %q", got)
	}
	if got := FirstMetadataValue(nil, RequestIDHeader); got != "" {
		t.Fatalf("expected empty value, got %q", got)
	}
}

// fakeServerStream satisfies grpc.ServerTransportStream so SetHeader works
// outside a live transport.
type fakeServerStream struct {
	headers metadata.MD
}

func (f *fakeServerStream) Method() string { return "/expohall.v1.MeetingService/GetMeeting" }

func (f *fakeServerStream) SetHeader(md metadata.MD) error {
	if f.headers == nil {
		f.headers = metadata.MD{}
	}
	for key, values := range md {
		f.headers[key] = append(f.headers[key], values...)
	}
	return nil
}

func (f *fakeServerStream) SendHeader(md metadata.MD) error { return f.SetHeader(md) }

func (f *fakeServerStream) SetTrailer(md metadata.MD) error { return nil }

func streamContext(ctx context.Context, stream *fakeServerStream) context.Context {
	return grpc.NewContextWithServerTransportStream(ctx, stream)
}

func TestUnaryServerInterceptorGeneratesRequestID(t *testing.T) {
	interceptor := UnaryServerInterceptor(func() (string, error) { return "generated-1", nil })

	stream := &fakeServerStream{}
	var seen string
	handler := func(ctx context.Context, req any) (any, error) {
		seen = RequestIDFromContext(ctx)
		return "ok", nil
	}
	_, err := interceptor(streamContext(context.Background(), stream), nil, &grpc.UnaryServerInfo{FullMethod: "/expohall.v1.MeetingService/GetMeeting"}, handler)
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if seen != "generated-1" {
		t.Fatalf("expected generated id, got %q", seen)
	}
	if got := FirstMetadataValue(stream.headers, RequestIDHeader); got != "generated-1" {
		t.Fatalf("expected echoed header, got %q", got)
	}
}

func TestUnaryServerInterceptorKeepsCallerRequestID(t *testing.T) {
	interceptor := UnaryServerInterceptor(func() (string, error) { return "generated-1", nil })

	md := metadata.Pairs(RequestIDHeader, "caller-1")
	ctx := streamContext(metadata.NewIncomingContext(context.Background(), md), &fakeServerStream{})

	var seen string
	handler := func(ctx context.Context, req any) (any, error) {
		seen = RequestIDFromContext(ctx)
		return "ok", nil
	}
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/expohall.v1.MeetingService/GetMeeting"}, handler)
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if seen != "caller-1" {
		t.Fatalf("expected caller id, got %q", seen)
	}
}
