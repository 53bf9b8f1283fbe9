package api

import (
	"net/http"

	"github.com/xraph/forge"
)

// health probes the active store. Unhealthy reports are served with 503 so
// load balancers take the instance out of rotation.
func (a *API) health(ctx forge.Context) error {
	report := a.reporter.HealthCheck(ctx.Context())

	code := http.StatusOK
	if !report.Healthy {
		code = http.StatusServiceUnavailable
	}
	return ctx.JSON(code, report)
}

func (a *API) status(ctx forge.Context) error {
	return ctx.JSON(http.StatusOK, a.reporter.GetStatus())
}
