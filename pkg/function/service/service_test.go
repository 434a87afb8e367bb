package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/funcbox/pkg/agent/memory/notes"
	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/capability"
	"github.com/entrhq/funcbox/pkg/function/compiler"
	"github.com/entrhq/funcbox/pkg/function/store"
)

func newService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(context.Background(), Config{Notes: notes.NewManager()})
	require.NoError(t, err)
	return svc
}

func doubleRequest() RegisterRequest {
	return RegisterRequest{
		Definition: function.Definition{
			Name:        "double",
			Description: "Doubles a number",
			Parameters:  []function.Parameter{{Name: "n", Type: "number", Description: "value"}},
			ReturnType:  "number",
			Code:        "return n * 2;",
			Tags:        []string{"Math"},
		},
		CreatedBy: "tester",
	}
}

func mustFunction(t *testing.T, resp *Response) *function.Function {
	t.Helper()
	require.True(t, resp.Success, "%s: %s", resp.Error, resp.Message)
	fn, ok := resp.Data.(*function.Function)
	require.True(t, ok, "data is %T", resp.Data)
	return fn
}

func TestRegisterAndExecute(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	fn := mustFunction(t, svc.Register(ctx, doubleRequest()))
	assert.Equal(t, []string{"math"}, fn.Tags)

	resp := svc.Execute(ctx, "double", map[string]any{"n": 21})
	require.True(t, resp.Success, resp.Message)
	result := resp.Data.(*function.Result)
	assert.Equal(t, int64(42), result.Value)

	got := mustFunction(t, svc.Get(fn.ID))
	assert.Equal(t, 1, got.Metadata.UsageCount)
	assert.NotNil(t, got.Metadata.LastUsed)

	stats := svc.Stats().Data.(Stats)
	assert.Equal(t, 1, stats.Store.TotalFunctions)
	assert.Equal(t, "double", stats.Store.MostUsedFunction)
	assert.Equal(t, compiler.Stats{CompiledFunctions: 1, CacheSize: 1}, stats.Compiler)
	assert.Equal(t, int64(1), stats.Executor.Completed)
}

func TestRegister_Failures(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	req := doubleRequest()
	req.Code = "return eval('n * 2');"
	resp := svc.Register(ctx, req)
	assert.False(t, resp.Success)
	assert.Equal(t, function.KindValidationFailed, resp.Error)
	require.NotEmpty(t, resp.Issues)
	assert.Equal(t, function.IssueSecurity, resp.Issues[0].Kind)
	assert.Contains(t, resp.Message, "Line 1")

	mustFunction(t, svc.Register(ctx, doubleRequest()))
	dup := doubleRequest()
	dup.Name = "DOUBLE"
	resp = svc.Register(ctx, dup)
	assert.False(t, resp.Success)
	assert.Equal(t, function.KindNameConflict, resp.Error)
	assert.Error(t, resp.Err())
}

func TestExecute_Failures(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	mustFunction(t, svc.Register(ctx, doubleRequest()))

	resp := svc.Execute(ctx, "missing", nil)
	assert.Equal(t, function.KindNotFound, resp.Error)

	resp = svc.Execute(ctx, "double", map[string]any{})
	assert.False(t, resp.Success)
	assert.Equal(t, function.KindParameterValidation, resp.Error)
	require.IsType(t, &function.Result{}, resp.Data)

	fn := mustFunction(t, svc.Get("double"))
	assert.Equal(t, 0, fn.Metadata.UsageCount, "failed executions are not counted")
}

func TestExecute_UsesNotes(t *testing.T) {
	noteStore := notes.NewManager()
	svc, err := New(context.Background(), Config{Notes: noteStore})
	require.NoError(t, err)
	ctx := context.Background()

	mustFunction(t, svc.Register(ctx, RegisterRequest{Definition: function.Definition{
		Name:        "countTagged",
		Description: "Counts notes with a tag",
		Parameters:  []function.Parameter{{Name: "tag", Type: "string", Description: "tag"}},
		ReturnType:  "number",
		Code:        "return notes.list({ tag: tag }).length;",
	}}))

	_, _ = noteStore.Add("One", "", []string{"work"})
	_, _ = noteStore.Add("Two", "", []string{"work"})
	_, _ = noteStore.Add("Three", "", []string{"home"})

	resp := svc.Execute(ctx, "countTagged", map[string]any{"tag": "work"})
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, int64(2), resp.Data.(*function.Result).Value)
	assert.Contains(t, svc.Capabilities(), capability.Notes)
}

func TestUpdateRecompiles(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	mustFunction(t, svc.Register(ctx, doubleRequest()))

	require.True(t, svc.Execute(ctx, "double", map[string]any{"n": 2}).Success)

	code := "return n * 3;"
	updated := mustFunction(t, svc.Update(ctx, "double", store.Patch{Code: &code}))
	assert.Equal(t, 2, updated.Metadata.Version)

	resp := svc.Execute(ctx, "double", map[string]any{"n": 2})
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, int64(6), resp.Data.(*function.Result).Value)
	assert.Equal(t, int64(2), svc.Stats().Data.(Stats).Compiler.CompiledFunctions)

	resp = svc.Update(ctx, "missing", store.Patch{Code: &code})
	assert.Equal(t, function.KindNotFound, resp.Error)
}

func TestDeleteIdempotent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	fn := mustFunction(t, svc.Register(ctx, doubleRequest()))

	resp := svc.Delete(ctx, "double")
	require.True(t, resp.Success)
	assert.Equal(t, DeleteResult{Deleted: true, ID: fn.ID}, resp.Data)

	resp = svc.Delete(ctx, fn.ID)
	require.True(t, resp.Success)
	assert.Equal(t, DeleteResult{Deleted: false}, resp.Data)

	assert.Equal(t, function.KindNotFound, svc.Get(fn.ID).Error)
}

func TestQueries(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	mustFunction(t, svc.Register(ctx, doubleRequest()))

	greet := RegisterRequest{Definition: function.Definition{
		Name:        "greet",
		Description: "Builds a greeting",
		Parameters:  []function.Parameter{{Name: "who", Type: "string", Description: "name"}},
		ReturnType:  "string",
		Code:        "return \"hello \" + who;",
		Tags:        []string{"text"},
	}}
	mustFunction(t, svc.Register(ctx, greet))

	list := svc.List(ListRequest{}).Data.([]*function.Function)
	require.Len(t, list, 2)
	assert.Equal(t, "double", list[0].Name)

	list = svc.List(ListRequest{NamePattern: "gr*"}).Data.([]*function.Function)
	require.Len(t, list, 1)
	assert.Equal(t, "greet", list[0].Name)

	assert.Len(t, svc.Search("greeting").Data, 1)
	assert.Len(t, svc.FilterByTags("math", "text").Data, 2)
	assert.Len(t, svc.FilterByTags("none").Data, 0)
}

func TestValidate(t *testing.T) {
	svc := newService(t)

	resp := svc.Validate(doubleRequest().Definition)
	assert.True(t, resp.Success)
	assert.True(t, resp.Data.(function.ValidationResult).Valid)

	def := doubleRequest().Definition
	def.Code = "return require('fs');"
	resp = svc.Validate(def)
	assert.False(t, resp.Success)
	assert.Equal(t, function.KindValidationFailed, resp.Error)
	assert.False(t, resp.Data.(function.ValidationResult).Valid)

	assert.Equal(t, 0, svc.Store().Count(), "validate never stores")
}

func TestExportImportFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, name := range []string{"backup.json", "backup.yaml"} {
		t.Run(name, func(t *testing.T) {
			src := newService(t)
			mustFunction(t, src.Register(ctx, doubleRequest()))
			path := filepath.Join(dir, name)

			resp := src.ExportFile(path)
			require.True(t, resp.Success, resp.Message)
			_, err := os.Stat(path)
			require.NoError(t, err)

			dst := newService(t)
			resp = dst.ImportFile(ctx, path)
			require.True(t, resp.Success, resp.Message)

			fn := mustFunction(t, dst.Get("double"))
			assert.Equal(t, "return n * 2;", fn.Code)
			assert.True(t, dst.Execute(ctx, "double", map[string]any{"n": 1}).Success)
		})
	}
}

func TestImport_Rejected(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	mustFunction(t, svc.Register(ctx, doubleRequest()))

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": "1.0", "functions": [{"id": ""}]}`), 0o600))

	resp := svc.ImportFile(ctx, path)
	assert.False(t, resp.Success)
	assert.Equal(t, function.KindValidationFailed, resp.Error)
	assert.Equal(t, 1, svc.Store().Count(), "failed import leaves the store untouched")

	resp = svc.ImportFile(ctx, filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, function.KindNotFound, resp.Error)

	evil := filepath.Join(t.TempDir(), "evil.json")
	require.NoError(t, os.WriteFile(evil, []byte(`{"version": "1.0", "functions": [{
		"id": "fn-1", "name": "eval", "returnType": "number", "code": "return eval('1');",
		"metadata": {"createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-01T00:00:00Z", "version": 1, "usageCount": 0}
	}]}`), 0o600))
	resp = svc.ImportFile(ctx, evil)
	assert.False(t, resp.Success)
	assert.Equal(t, function.KindValidationFailed, resp.Error)
	assert.NotEmpty(t, resp.Issues)
	assert.Equal(t, 1, svc.Store().Count())
	_, ok := svc.Store().GetByName("eval")
	assert.False(t, ok)
}

func TestPersistentBackends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, backend := range []string{BackendJSON, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			path := filepath.Join(dir, backend, "functions."+backend)

			p, err := NewPersister(backend, path)
			require.NoError(t, err)
			svc, err := New(ctx, Config{Persister: p})
			require.NoError(t, err)
			mustFunction(t, svc.Register(ctx, doubleRequest()))
			require.NoError(t, svc.Close())

			p, err = NewPersister(backend, path)
			require.NoError(t, err)
			reopened, err := New(ctx, Config{Persister: p})
			require.NoError(t, err)
			defer reopened.Close()
			mustFunction(t, reopened.Get("double"))
		})
	}

	_, err := NewPersister("postgres", filepath.Join(dir, "x"))
	assert.Error(t, err)
}

func TestFail(t *testing.T) {
	resp := Fail(function.NewError(function.KindTimeout, "took too long"))
	assert.Equal(t, &Response{Error: function.KindTimeout, Message: "took too long"}, resp)
	assert.ErrorIs(t, resp.Err(), function.ErrTimeout)

	resp = Fail(assert.AnError)
	assert.Equal(t, function.KindInternal, resp.Error)
	assert.Nil(t, OK(nil).Err())

}
