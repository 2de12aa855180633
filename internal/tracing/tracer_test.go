package tracing

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSetup_Disabled(t *testing.T) {
	ctx := context.Background()
	p, err := Setup(ctx, Config{Enabled: false, ExporterType: ExporterStdout})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.provider != nil {
		t.Fatal("disabled tracing should not install a provider")
	}

	// Starting a span should work even when disabled
	_, span := Start(ctx, "noop")
	End(span, nil)

	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
}

func TestSetup_StdoutExporter(t *testing.T) {
	ctx := context.Background()
	buf := &bytes.Buffer{}

	p, err := Setup(ctx, Config{
		Enabled:      true,
		ExporterType: ExporterStdout,
		ServiceName:  "deskctx-test",
		Output:       buf,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.provider == nil {
		t.Fatal("expected provider for enabled tracing")
	}

	_, span := Start(ctx, "reconcile")
	End(span, errors.New("boom"))

	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	if !strings.Contains(buf.String(), "reconcile") {
		t.Fatalf("expected exported span in output, got %q", buf.String())
	}
}

func TestSetup_UnknownExporter(t *testing.T) {
	if _, err := Setup(context.Background(), Config{Enabled: true, ExporterType: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error for unsupported exporter")
	}
}

func TestShutdown_NilProvider(t *testing.T) {
	var p *Provider
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() on nil provider: %v", err)
	}
}
