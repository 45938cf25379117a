package few_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/few"
	"github.com/aretw0/few/pkg/adapters/memory"
	"github.com/aretw0/few/pkg/config"
	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/ports"
)

func counter() domain.ComponentDefinition {
	return domain.ComponentDefinition{
		Name: "counter",
		Data: func() domain.Store { return domain.Store{"value": 3} },
		Actions: map[string]domain.ActionDefinition{
			"plusOne": domain.Structured(
				func(this any, args ...any) (any, error) { return args[0].(int) + 1, nil },
				domain.WithInput("value", "${data.value}"),
				domain.WithOutput("data.value", ""),
			),
			"minusOne": domain.Simple(func(c *domain.Component) error {
				return c.Dispatch(domain.Action{Value: domain.PatchOf("data.value", c.Data["value"].(int)-1)})
			}),
		},
		View: "value: ${data.value}",
	}
}

func TestEngine_Instantiate(t *testing.T) {
	refreshes := 0
	engine := few.New(
		few.WithRefresher(ports.RefresherFunc(func(*domain.Component) { refreshes++ })),
		few.WithIDGenerator(func() string { return "fixed" }),
	)

	c, err := engine.Instantiate(counter())
	require.NoError(t, err)
	assert.Equal(t, "fixed", c.ID)

	require.NoError(t, c.Invoke("plusOne"))
	require.NoError(t, c.Invoke("plusOne"))
	require.NoError(t, c.Invoke("minusOne"))

	assert.Equal(t, 4, c.Data["value"])
	assert.Equal(t, 3, refreshes)
}

func TestEngine_InstanceOptions(t *testing.T) {
	engine := few.New()

	c, err := engine.InstantiateWithProps(counter(), map[string]any{"label": "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", c.Props["label"])

	c, err = engine.Instantiate(counter(), few.WithInstanceID("abc"), few.WithData(domain.Store{"value": 10}))
	require.NoError(t, err)
	assert.Equal(t, "abc", c.ID)
	assert.Equal(t, domain.Store{"value": 10}, c.Data)

	require.NoError(t, c.Invoke("plusOne"))
	assert.Equal(t, 11, c.Data["value"])
}

func TestEngine_HooksMerge(t *testing.T) {
	var calls []string
	engine := few.New(
		few.WithLifecycleHooks(domain.LifecycleHooks{
			OnActionStart: func(*domain.ActionEvent) { calls = append(calls, "first") },
		}),
		few.WithLifecycleHooks(domain.LifecycleHooks{
			OnActionStart: func(*domain.ActionEvent) { calls = append(calls, "second") },
		}),
	)

	c, err := engine.Instantiate(counter())
	require.NoError(t, err)
	require.NoError(t, c.Invoke("minusOne"))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestEngine_Load(t *testing.T) {
	ctx := context.Background()

	_, err := few.New().Load(ctx, "counter")
	assert.ErrorIs(t, err, domain.ErrComponentNotFound)

	engine := few.New(few.WithLoader(memory.NewLoader(counter())))
	c, err := engine.Load(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "counter", c.Name)

	names, err := engine.Components(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"counter"}, names)
}

func TestEngine_LoadModule(t *testing.T) {
	ctx := context.Background()

	_, err := few.New().LoadModule(ctx, "lib.js")
	assert.ErrorIs(t, err, domain.ErrNoModuleLoader)

	boom := errors.New("offline")
	engine := few.New(few.WithModuleLoader(ports.ModuleLoaderFunc(func(ctx context.Context, dep string) (any, error) {
		if dep == "broken" {
			return nil, boom
		}
		return "module:" + dep, nil
	})))

	mod, err := engine.LoadModule(ctx, "lib.js")
	require.NoError(t, err)
	assert.Equal(t, "module:lib.js", mod)

	_, err = engine.LoadModule(ctx, "broken")
	assert.ErrorIs(t, err, boom)
}

func TestEngine_Config(t *testing.T) {
	assert.Equal(t, config.DriverMemory, few.New().Config().Store.Driver)

	cfg := config.Default()
	cfg.BaseURL = "https://example.com/"
	assert.Same(t, cfg, few.New(few.WithConfig(cfg)).Config())
}

func TestEval(t *testing.T) {
	engine := few.New()
	c, err := engine.InstantiateWithProps(counter(), map[string]any{"step": 2})
	require.NoError(t, err)

	v, err := few.Eval(c, "data.value + step")
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	v, err = few.Eval(c, "this.value")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = few.Eval(c, "actions.plusOne()")
	require.NoError(t, err)
	assert.Equal(t, 4, c.Data["value"])

	_, err = few.Eval(c, "missing.x")
	var exprErr *domain.ExpressionError
	assert.ErrorAs(t, err, &exprErr)
}
