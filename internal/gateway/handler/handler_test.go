package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stencil/internal/assemble"
	"stencil/internal/catalog"
	"stencil/internal/gateway/repository/artifact"
	"stencil/internal/gateway/repository/jobstore"
	"stencil/internal/gateway/service/generate"
	"stencil/internal/llm"
	"stencil/internal/ratelimit"
	"stencil/internal/safety"
)

type fakeDrafter struct {
	body string
	err  error
}

func (f *fakeDrafter) DraftTemplate(context.Context, string) (string, error) {
	return f.body, f.err
}

func newTestHandler(t *testing.T, limiterMax int, drafter llm.TemplateDrafter) *Service {
	t.Helper()
	c, err := catalog.Load()
	require.NoError(t, err)
	jobs := jobstore.New()
	arts := artifact.NewMemoryStore()
	gen := generate.New(
		assemble.New(c, assemble.Options{Logf: t.Logf}),
		safety.New(safety.Limits{}, func(string, map[string]any) {}),
		jobs,
		arts,
		generate.NewHub(),
	)
	limiter, err := ratelimit.New(limiterMax, time.Minute)
	require.NoError(t, err)
	return NewService(gen, jobs, arts, limiter, drafter)
}

const validBody = `{
  "name": "My App",
  "stack": "next-tailwind",
  "features": ["forms"],
  "pages": [{"route": "/", "purpose": "Homepage"}]
}`

func postGenerate(s *Service, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	s.HandleGenerate(rec, req)
	return rec
}

func TestGenerateOK(t *testing.T) {
	s := newTestHandler(t, 100, nil)
	rec := postGenerate(s, validBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success    bool   `json:"success"`
		RunID      string `json:"run_id"`
		FileCount  int    `json:"file_count"`
		TotalBytes int    `json:"total_bytes"`
		Files      []struct {
			Path    string `json:"path"`
			Size    int    `json:"size"`
			Preview string `json:"preview"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.RunID)
	require.Equal(t, resp.FileCount, len(resp.Files))
	require.Positive(t, resp.TotalBytes)

	var sawPackageJSON bool
	for _, f := range resp.Files {
		if f.Path == "package.json" {
			sawPackageJSON = true
			require.Contains(t, f.Preview, "my-app")
		}
		require.LessOrEqual(t, len(f.Preview), 200)
	}
	require.True(t, sawPackageJSON)
}

func TestGenerateSchemaViolation(t *testing.T) {
	s := newTestHandler(t, 100, nil)
	rec := postGenerate(s, `{"name":"x","pages":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Category   string   `json:"category"`
		Violations []string `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "schema_violation", resp.Category)
	require.NotEmpty(t, resp.Violations)
}

func TestGenerateSafetyViolation(t *testing.T) {
	s := newTestHandler(t, 100, nil)
	body := `{
  "name": "My App",
  "stack": "next-tailwind",
  "pages": [{"route": "/", "purpose": "Homepage"}],
  "assets": [{"path": "malware.exe", "contents": "x", "encoding": "utf8"}]
}`
	rec := postGenerate(s, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Category   string   `json:"category"`
		Violations []string `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "spec_safety_violation", resp.Category)
	require.Contains(t, strings.Join(resp.Violations, "\n"), "unsupported extension")
}

func TestGenerateUnsupportedStack(t *testing.T) {
	s := newTestHandler(t, 100, nil)
	rec := postGenerate(s, `{"name":"My App","stack":"remix","pages":[{"route":"/","purpose":"Homepage"}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "unsupported_stack")
}

func TestGenerateRateLimited(t *testing.T) {
	s := newTestHandler(t, 1, nil)
	require.Equal(t, http.StatusOK, postGenerate(s, validBody).Code)
	rec := postGenerate(s, validBody)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestGenerateMethodNotAllowed(t *testing.T) {
	s := newTestHandler(t, 100, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/generate", nil)
	rec := httptest.NewRecorder()
	s.HandleGenerate(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDownloadStreamsArchive(t *testing.T) {
	s := newTestHandler(t, 100, nil)
	rec := postGenerate(s, validBody)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodGet, "/api/download?run_id="+resp.RunID, nil)
	dl := httptest.NewRecorder()
	s.HandleDownload(dl, req)
	require.Equal(t, http.StatusOK, dl.Code)
	require.Equal(t, "application/zip", dl.Header().Get("Content-Type"))
	require.Equal(t, "attachment; filename=my-app.zip", dl.Header().Get("Content-Disposition"))
	require.NotEmpty(t, dl.Body.Bytes())
}

func TestDownloadUnknownRun(t *testing.T) {
	s := newTestHandler(t, 100, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/download?run_id=run-missing", nil)
	rec := httptest.NewRecorder()
	s.HandleDownload(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobsStatus(t *testing.T) {
	s := newTestHandler(t, 100, nil)
	rec := postGenerate(s, validBody)
	var genResp struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &genResp))

	req := httptest.NewRequest(http.MethodGet, "/api/jobs?run_id="+genResp.RunID, nil)
	jr := httptest.NewRecorder()
	s.HandleJobs(jr, req)
	require.Equal(t, http.StatusOK, jr.Code)

	var resp struct {
		Job struct {
			Status string `json:"status"`
			Slug   string `json:"slug"`
		} `json:"job"`
		Events    []jobstore.Event    `json:"events"`
		Artifacts []jobstore.Artifact `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal(jr.Body.Bytes(), &resp))
	require.Equal(t, "completed", resp.Job.Status)
	require.Equal(t, "my-app", resp.Job.Slug)
	require.NotEmpty(t, resp.Events)
	require.Len(t, resp.Artifacts, 1)
	require.Equal(t, "my-app.zip", resp.Artifacts[0].Path)
}

func TestJobsRequiresRunID(t *testing.T) {
	s := newTestHandler(t, 100, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	rec := httptest.NewRecorder()
	s.HandleJobs(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTemplateDrafting(t *testing.T) {
	s := newTestHandler(t, 100, &fakeDrafter{body: "<h1><%= Name %></h1>"})
	req := httptest.NewRequest(http.MethodPost, "/api/template", strings.NewReader(`{"prompt":"a hero header"}`))
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	s.HandleTemplate(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success  bool   `json:"success"`
		Template string `json:"template"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "<h1><%= Name %></h1>", resp.Template)
}

func TestTemplateDisabled(t *testing.T) {
	s := newTestHandler(t, 100, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/template", strings.NewReader(`{"prompt":"anything"}`))
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	s.HandleTemplate(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTemplateRequiresPrompt(t *testing.T) {
	s := newTestHandler(t, 100, &fakeDrafter{body: "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/template", strings.NewReader(`{}`))
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	s.HandleTemplate(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
