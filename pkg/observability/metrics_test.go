package observability_test

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/few"
	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/observability"
	"github.com/aretw0/few/pkg/registry"
)

func counter() domain.ComponentDefinition {
	inc, _ := registry.NewDefault().Get("inc")
	return domain.ComponentDefinition{
		Name: "counter",
		Data: func() domain.Store { return domain.Store{"value": 0} },
		Actions: map[string]domain.ActionDefinition{
			"plusOne": domain.Structured(inc,
				domain.WithInput("value", "${data.value}"),
				domain.WithOutput("data.value", ""),
			),
			"bad": domain.Simple(func(c *domain.Component) error {
				return c.Dispatch(domain.Action{Value: domain.PatchOf("elsewhere.x", 1)})
			}),
		},
	}
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	c, err := few.New(few.WithLifecycleHooks(m.Hooks())).Instantiate(counter())
	require.NoError(t, err)

	require.NoError(t, c.Invoke("plusOne"))
	require.NoError(t, c.Invoke("plusOne"))
	require.Error(t, c.Invoke("bad"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Actions.WithLabelValues("plusOne", "structured", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("bad", "simple", "true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("true", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("false", "true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Refreshes))

	w := httptest.NewRecorder()
	observability.Handler(reg).ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, w.Body.String(), "few_action_duration_seconds")
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c, err := few.New(few.WithLifecycleHooks(observability.LogHooks(logger))).Instantiate(counter())
	require.NoError(t, err)
	require.NoError(t, c.Invoke("plusOne"))
	require.Error(t, c.Invoke("bad"))

	out := buf.String()
	assert.Contains(t, out, "msg=action_start")
	assert.Contains(t, out, "msg=action_end")
	assert.Contains(t, out, "msg=dispatch_failed")
	assert.Contains(t, out, "msg=action_failed")
}
