package plan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graft/internal/analyze"
)

func sampleResult() *analyze.Result {
	return &analyze.Result{
		Modules: []string{"api", "models"},
		Endpoints: []analyze.ApiEndpoint{
			{Module: "api", Function: "list_users", Methods: []string{"get"}},
			{Module: "api", Function: "create_user", Methods: []string{"post"}},
		},
		Models: []analyze.DatabaseModel{
			{Module: "models", ClassName: "User"},
			{Module: "models", ClassName: "Account"},
			{Module: "legacy", ClassName: "User"},
		},
	}
}

func TestBuildBaseline(t *testing.T) {
	p := Build(&analyze.Result{})

	require.Len(t, p.Components, 2)
	assert.Equal(t, RequestCoreComponent, p.Components[0].Name)
	assert.Equal(t, StatusExisting, p.Components[0].Status)
	assert.Equal(t, SubsystemComponent, p.Components[1].Name)
	assert.Equal(t, StatusNew, p.Components[1].Status)
	assert.Equal(t, []string{RequestCoreComponent, PersistenceDep}, p.Components[1].Dependencies)

	require.Len(t, p.Interfaces, 1, "empty analysis still gets the control surface")
	assert.Equal(t, ControlInterface, p.Interfaces[0].Name)
	assert.Equal(t, KindRPCLike, p.Interfaces[0].Kind)
	assert.Equal(t, []string{"submit", "status", "result"}, p.Interfaces[0].Methods)

	require.Len(t, p.DataFlows, 1)
	assert.Equal(t, "ingestion", p.DataFlows[0].Name)
	require.Len(t, p.DataFlows[0].Steps, 3)
}

func TestBuildModelComponents(t *testing.T) {
	p := Build(sampleResult())

	require.Len(t, p.Components, 4, "model classes dedupe by name")
	assert.Equal(t, "Account", p.Components[2].Name, "model components come sorted")
	assert.Equal(t, "User", p.Components[3].Name)
	assert.Equal(t, []string{PersistenceDep}, p.Components[3].Dependencies)
	assert.Equal(t, StatusExisting, p.Components[3].Status)
}

func TestBuildInterfaces(t *testing.T) {
	p := Build(sampleResult())

	require.Len(t, p.Interfaces, 3)
	assert.Equal(t, Interface{
		Name:           "list_users",
		Kind:           KindRESTLike,
		Methods:        []string{"get"},
		ProviderModule: "api",
	}, p.Interfaces[0])
	assert.Equal(t, KindRPCLike, p.Interfaces[2].Kind)
}

func TestBuildDeterministic(t *testing.T) {
	a := Build(sampleResult())
	b := Build(sampleResult())
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("identical input produced different plans (-first +second):\n%s", diff)
	}
}
