package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graft/internal/config"
	"graft/internal/scan"
	"graft/internal/syntax"
)

// addModule indexes a hand-built tree under the given key.
func addModule(t *testing.T, actx *scan.AnalysisContext, key string, tree *syntax.Tree, lines []string) {
	t.Helper()
	rec := &scan.ModuleRecord{
		Path:  key,
		File:  key + ".py",
		Tree:  tree,
		Lines: lines,
	}
	for _, cl := range tree.Classes {
		rec.ClassNames = append(rec.ClassNames, cl.Name)
	}
	for _, fn := range tree.Functions {
		rec.FunctionNames = append(rec.FunctionNames, fn.Name)
	}
	for _, imp := range tree.Imports {
		rec.Imports = append(rec.Imports, imp.Target)
	}
	require.NoError(t, actx.Add(rec))
}

func TestRunRequiresSealedContext(t *testing.T) {
	actx := scan.NewAnalysisContext("/tmp")
	_, err := Run(context.Background(), actx, nil, config.DefaultConfig())
	require.Error(t, err)
}

func TestDetectEndpoints(t *testing.T) {
	actx := scan.NewAnalysisContext("/tmp")
	addModule(t, actx, "api", &syntax.Tree{
		Functions: []syntax.FuncDecl{
			{Name: "list_users", Decorators: []string{"get"}},
			{Name: "create_user", Decorators: []string{"post"}},
			{Name: "upsert_user", Decorators: []string{"put", "post", "put"}},
			{Name: "helper"},
			{Name: "logged", Decorators: []string{"cache"}},
		},
	}, nil)
	actx.Seal()

	eps := detectEndpoints(actx, &config.DefaultConfig().Analyze)
	require.Len(t, eps, 3, "undecorated and non-verb functions never match")

	assert.Equal(t, ApiEndpoint{Module: "api", Function: "list_users", Methods: []string{"get"}}, eps[0])
	assert.Equal(t, []string{"put", "post"}, eps[2].Methods, "decorator order kept, duplicates dropped")
}

func TestExtractModels(t *testing.T) {
	actx := scan.NewAnalysisContext("/tmp")
	addModule(t, actx, "models", &syntax.Tree{
		Classes: []syntax.ClassDecl{
			{
				Name:  "User",
				Bases: []string{"Base"},
				Assigns: []syntax.Assign{
					{Target: "id", CallName: "Column", FirstArg: "Integer"},
					{Target: "name", CallName: "Column"},
					{Target: "posts", CallName: "relationship"},
				},
			},
			{Name: "AuditModelMixin", Bases: []string{"PersistedModel"}},
			{Name: "Helper"},
		},
	}, nil)
	actx.Seal()

	models := extractModels(actx, &config.DefaultConfig().Analyze)
	require.Len(t, models, 2)

	user := models[0]
	assert.Equal(t, "User", user.ClassName)
	require.Len(t, user.Fields, 2, "only column-constructor assigns become fields")
	assert.Equal(t, ModelField{Name: "id", DeclaredType: "Integer"}, user.Fields[0])
	assert.Equal(t, ModelField{Name: "name", DeclaredType: "Unknown"}, user.Fields[1])

	assert.Equal(t, "AuditModelMixin", models[1].ClassName)
	assert.Empty(t, models[1].Fields)
}

func TestScanMarkers(t *testing.T) {
	actx := scan.NewAnalysisContext("/tmp")
	addModule(t, actx, "app", &syntax.Tree{}, []string{
		"import os",
		"",
		"",
		"def f():",
		"    # TODO: fix this FIXME later",
		"    pass",
	})
	actx.Seal()

	items := assessDebt(actx, &config.DefaultConfig().Analyze)
	require.Len(t, items, 1, "one item per line even with two tokens")
	assert.Equal(t, DebtMarker, items[0].Kind)
	assert.Equal(t, 5, items[0].Line)
	assert.Equal(t, "# TODO: fix this FIXME later", items[0].Text)
}

func TestComplexity(t *testing.T) {
	branch := func(kind syntax.StmtKind) syntax.Stmt { return syntax.Stmt{Kind: kind} }

	t.Run("straight line scores one", func(t *testing.T) {
		fn := &syntax.FuncDecl{Body: []syntax.Stmt{{Kind: syntax.StmtExpr}, {Kind: syntax.StmtAssign}}}
		assert.Equal(t, 1, Complexity(fn))
	})

	t.Run("one per branch construct", func(t *testing.T) {
		fn := &syntax.FuncDecl{Body: []syntax.Stmt{
			branch(syntax.StmtIf),
			branch(syntax.StmtWhile),
			branch(syntax.StmtFor),
			branch(syntax.StmtWith),
			branch(syntax.StmtTry),
		}}
		assert.Equal(t, 6, Complexity(fn))
	})

	t.Run("nested scopes count", func(t *testing.T) {
		fn := &syntax.FuncDecl{Body: []syntax.Stmt{
			{Kind: syntax.StmtFor, Children: []syntax.Stmt{
				{Kind: syntax.StmtIf, Children: []syntax.Stmt{
					branch(syntax.StmtWhile),
				}},
			}},
		}}
		assert.Equal(t, 4, Complexity(fn))
	})

	t.Run("and chain adds operands minus one", func(t *testing.T) {
		// if a and b and c: -> 1 + 1 + 2
		fn := &syntax.FuncDecl{Body: []syntax.Stmt{{Kind: syntax.StmtIf, AndOps: 2}}}
		assert.Equal(t, 4, Complexity(fn))
	})
}

func TestComplexityThresholdFlagsFunction(t *testing.T) {
	body := make([]syntax.Stmt, 10)
	for i := range body {
		body[i] = syntax.Stmt{Kind: syntax.StmtIf}
	}
	actx := scan.NewAnalysisContext("/tmp")
	addModule(t, actx, "hot", &syntax.Tree{
		Functions: []syntax.FuncDecl{
			{Name: "tangled", Body: body},
			{Name: "plain"},
		},
	}, nil)
	actx.Seal()

	items := assessDebt(actx, &config.DefaultConfig().Analyze)
	require.Len(t, items, 1, "score 11 exceeds the default threshold of 10")
	assert.Equal(t, DebtComplexity, items[0].Kind)
	assert.Equal(t, "tangled", items[0].Function)
	assert.Equal(t, 11, items[0].Score)
}

func TestAnalyzeCoverage(t *testing.T) {
	actx := scan.NewAnalysisContext("/tmp")
	addModule(t, actx, "app/models", &syntax.Tree{}, nil)
	addModule(t, actx, "app/views", &syntax.Tree{}, nil)
	addModule(t, actx, "tests/test_models", &syntax.Tree{
		Functions: []syntax.FuncDecl{
			{Name: "test_create"},
			{Name: "test_delete"},
			{Name: "fixture_db"},
		},
	}, nil)
	addModule(t, actx, "tests/test_orphan", &syntax.Tree{
		Functions: []syntax.FuncDecl{{Name: "test_nothing"}},
	}, nil)
	actx.Seal()

	cov := analyzeCoverage(actx, &config.DefaultConfig().Analyze)
	assert.Equal(t, 2, cov.TestFileCount)
	assert.Equal(t, 3, cov.TestFunctionCount)
	assert.Equal(t, 1, cov.ModulesWithTests)
	assert.Equal(t, 3, cov.ModulesWithoutTest)
	assert.Equal(t, []string{"test_create", "test_delete"}, cov.TestsByModule["app/models"])
}

func TestIdentifyIntegrationPoints(t *testing.T) {
	actx := scan.NewAnalysisContext("/tmp")
	addModule(t, actx, "svc", &syntax.Tree{
		Classes: []syntax.ClassDecl{
			{Name: "PaymentService"},
			{Name: "WidgetFactory"},
			{Name: "User"},
		},
	}, nil)
	actx.Seal()

	endpoints := []ApiEndpoint{
		{Module: "api", Function: "payment_callback", Methods: []string{"post"}},
		{Module: "api", Function: "list_users", Methods: []string{"get"}},
	}

	points := identifyIntegrationPoints(actx, endpoints, &config.DefaultConfig().Analyze)
	require.Len(t, points, 3)
	assert.Equal(t, IntegrationPoint{Module: "svc", Name: "PaymentService", Kind: "class"}, points[0])
	assert.Equal(t, IntegrationPoint{Module: "svc", Name: "WidgetFactory", Kind: "class"}, points[1])
	assert.Equal(t, IntegrationPoint{Module: "api", Name: "payment_callback", Kind: "hook"}, points[2])
}

func TestRunAssemblesResult(t *testing.T) {
	actx := scan.NewAnalysisContext("/tmp")
	addModule(t, actx, "api", &syntax.Tree{
		Functions: []syntax.FuncDecl{{Name: "get_user", Decorators: []string{"get"}}},
	}, []string{"# TODO: wire auth"})
	actx.Seal()
	graph := scan.BuildGraph(actx)

	res, err := Run(context.Background(), actx, graph, config.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"api"}, res.Modules)
	assert.Equal(t, 0, res.Failures)
	assert.Len(t, res.Endpoints, 1)
	assert.Len(t, res.Debt, 1)
	assert.Same(t, graph, res.Graph)
}
