package report

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTMLPostsDocument(t *testing.T) {
	var gotPath, gotHTML, gotWidth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotWidth = r.FormValue("paperWidth")
		f, _, err := r.FormFile("files")
		require.NoError(t, err)
		b, _ := io.ReadAll(f)
		gotHTML = string(b)
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	pdf, err := NewClient(srv.URL+"/").RenderHTML(context.Background(), "<h1>Order</h1>")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
	assert.Equal(t, "/forms/chromium/convert/html", gotPath)
	assert.Equal(t, "<h1>Order</h1>", gotHTML)
	assert.Equal(t, "8.5", gotWidth)
}

func TestRenderHTMLFailureIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).RenderHTML(context.Background(), "<p>x</p>")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRender)
}

func TestWithPaperDoesNotMutate(t *testing.T) {
	c := NewClient("http://gotenberg")
	a4 := c.WithPaper(Paper{Width: "8.27", Height: "11.7"})
	assert.Equal(t, Letter, c.paper)
	assert.Equal(t, "8.27", a4.paper.Width)
}

func TestHealth(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()

	r := chi.NewRouter()
	r.Route("/report", NewHandler(NewClient(up.URL), discardLogger()).MountRoutes)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	up.Close()
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
