package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/otterhq/otter/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

// Sink reports confirmation outcomes to an external HTTP endpoint as a
// POST with an {http_code} body.
type Sink struct {
	url    string
	client *http.Client
	ins    instrument.Instrumentation
}

func NewSink(url string, timeout time.Duration, ins instrument.Instrumentation) *Sink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Sink{
		url:    url,
		client: &http.Client{Timeout: timeout},
		ins:    ins,
	}
}

type reportBody struct {
	HTTPCode int `json:"http_code"`
}

func (s *Sink) Report(ctx context.Context, httpCode int) error {
	ctx, span := s.ins.Tracer("push.outbound.callback").Start(ctx, "Report")
	defer span.End()

	body, err := json.Marshal(reportBody{HTTPCode: httpCode})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = fmt.Errorf("callback sink returned status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
