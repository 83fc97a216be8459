package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type TracingTestSuite struct {
	suite.Suite
}

func TestTracingSuite(t *testing.T) {
	suite.Run(t, new(TracingTestSuite))
}

func (suite *TracingTestSuite) TearDownTest() {
	suite.NoError(Shutdown(context.Background()))
}

func (suite *TracingTestSuite) TestSpanExported() {
	var buf bytes.Buffer
	suite.Require().NoError(Init(&buf, "test"))

	_, span := StartSpan(context.Background(), "download.strategy",
		trace.WithAttributes(attribute.String("strategy_id", "S1")))
	suite.True(span.SpanContext().IsValid())
	span.End()

	suite.Require().NoError(Shutdown(context.Background()))
	suite.Contains(buf.String(), "download.strategy")
	suite.Contains(buf.String(), "S1")
}

func (suite *TracingTestSuite) TestShutdownWithoutInit() {
	suite.NoError(Shutdown(context.Background()))
}
