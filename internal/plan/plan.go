// Package plan turns an analysis result into an integration blueprint.
// Build is pure and deterministic: identical analysis input always yields
// a structurally identical plan, with no timestamps or generated IDs.
package plan

import (
	"fmt"
	"sort"

	"graft/internal/analyze"
	"graft/internal/logging"
)

// ComponentStatus marks a component as already present or to be built.
type ComponentStatus string

const (
	StatusExisting ComponentStatus = "existing"
	StatusNew      ComponentStatus = "new"
)

// Component is one architectural unit in the blueprint.
type Component struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Status       ComponentStatus `json:"status"`
	Dependencies []string        `json:"dependencies,omitempty"`
}

// InterfaceKind distinguishes REST-shaped from RPC-shaped surfaces.
type InterfaceKind string

const (
	KindRESTLike InterfaceKind = "rest"
	KindRPCLike  InterfaceKind = "rpc"
)

// Interface is one call surface in the blueprint.
type Interface struct {
	Name           string        `json:"name"`
	Kind           InterfaceKind `json:"kind"`
	Methods        []string      `json:"methods"`
	ProviderModule string        `json:"provider_module,omitempty"`
}

// DataFlowStep is one hop in a data flow.
type DataFlowStep struct {
	Component string `json:"component"`
	Action    string `json:"action"`
}

// DataFlow is a named, ordered sequence of steps.
type DataFlow struct {
	Name  string         `json:"name"`
	Steps []DataFlowStep `json:"steps"`
}

// IntegrationPlan is the sole artifact handed to the scaffolder and
// executor.
type IntegrationPlan struct {
	Components []Component `json:"components"`
	Interfaces []Interface `json:"interfaces"`
	DataFlows  []DataFlow  `json:"data_flows"`
}

// Fixed component and interface names.
const (
	RequestCoreComponent = "request core"
	SubsystemComponent   = "analysis subsystem"
	PersistenceDep       = "persistence layer"
	ControlInterface     = "analysis-control"
)

// Build constructs the integration plan from an analysis result.
func Build(res *analyze.Result) *IntegrationPlan {
	timer := logging.StartTimer(logging.CategoryPlan, "Plan build")
	defer timer.Stop()

	p := &IntegrationPlan{}

	// Baseline components: the host application's request core and the
	// subsystem being grafted in.
	p.Components = append(p.Components,
		Component{
			Name:        RequestCoreComponent,
			Description: "existing request-handling core of the host application",
			Status:      StatusExisting,
		},
		Component{
			Name:        SubsystemComponent,
			Description: "new subsystem being integrated into the host application",
			Status:      StatusNew,
			Dependencies: []string{
				RequestCoreComponent,
				PersistenceDep,
			},
		},
	)

	// One component per distinct model class, sorted for determinism.
	classNames := make([]string, 0, len(res.Models))
	seen := make(map[string]bool)
	for _, m := range res.Models {
		if !seen[m.ClassName] {
			classNames = append(classNames, m.ClassName)
			seen[m.ClassName] = true
		}
	}
	sort.Strings(classNames)
	for _, name := range classNames {
		p.Components = append(p.Components, Component{
			Name:         name,
			Description:  fmt.Sprintf("persisted entity %s", name),
			Status:       StatusExisting,
			Dependencies: []string{PersistenceDep},
		})
	}

	// One REST-like interface per detected endpoint, plus the subsystem's
	// fixed RPC-like control surface.
	for _, ep := range res.Endpoints {
		p.Interfaces = append(p.Interfaces, Interface{
			Name:           ep.Function,
			Kind:           KindRESTLike,
			Methods:        ep.Methods,
			ProviderModule: ep.Module,
		})
	}
	p.Interfaces = append(p.Interfaces, Interface{
		Name:    ControlInterface,
		Kind:    KindRPCLike,
		Methods: []string{"submit", "status", "result"},
	})

	// Canonical ingestion path.
	p.DataFlows = append(p.DataFlows, DataFlow{
		Name: "ingestion",
		Steps: []DataFlowStep{
			{Component: RequestCoreComponent, Action: "receive intake request"},
			{Component: SubsystemComponent, Action: "analyze payload"},
			{Component: PersistenceDep, Action: "persist analysis result"},
		},
	})

	logging.Plan("plan built: %d components, %d interfaces, %d data flows",
		len(p.Components), len(p.Interfaces), len(p.DataFlows))
	return p
}
