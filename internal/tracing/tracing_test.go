package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestSetupExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(&buf, "todo-api-test")
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "todo.Create")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
	if !strings.Contains(buf.String(), "todo.Create") {
		t.Errorf("exported spans do not contain todo.Create: %s", buf.String())
	}
}
