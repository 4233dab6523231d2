package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveUpstream(t *testing.T) {
	ok := testutil.ToFloat64(UpstreamRequests.WithLabelValues("test", "ok"))
	failed := testutil.ToFloat64(UpstreamRequests.WithLabelValues("test", "error"))

	ObserveUpstream("test", time.Now(), nil)
	ObserveUpstream("test", time.Now(), errors.New("timeout"))
	ObserveUpstream("test", time.Now(), errors.New("timeout"))

	if got := testutil.ToFloat64(UpstreamRequests.WithLabelValues("test", "ok")) - ok; got != 1 {
		t.Errorf("ok delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(UpstreamRequests.WithLabelValues("test", "error")) - failed; got != 2 {
		t.Errorf("error delta = %v, want 2", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/metrics", Handler())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/ping", "200"))

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/ping", "200")) - before; got != 1 {
		t.Errorf("request counter delta = %v, want 1", got)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "soleklart_http_requests_total") {
		t.Error("metrics output does not contain the request counter")
	}
}
