package pool

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentpool.run/internal/workertemplate"
)

func newTemplate(name, image string) workertemplate.WorkerTemplate {
	return workertemplate.WorkerTemplate{Name: name, Image: image, Label: name}
}

func TestPool_AddReplacesSameName(t *testing.T) {
	t.Parallel()

	p := New(testr.New(t))
	p.Add(newTemplate("a", "img:1"))
	p.Add(newTemplate("b", "img:1"))
	p.Add(newTemplate("a", "img:2"))

	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []string{"b", "a"}, workertemplate.Names(p.List()))
	assert.True(t, p.Contains("a", "img:2"))
	assert.False(t, p.Contains("a", "img:1"))
}

func TestPool_Remove(t *testing.T) {
	t.Parallel()

	p := New(testr.New(t))
	p.Add(newTemplate("a", "img:1"))

	assert.True(t, p.Remove("a"))
	assert.False(t, p.Remove("a"))
	assert.Equal(t, 0, p.Len())
	_, ok := p.Get("a")
	assert.False(t, ok)
}

func TestPool_Contains(t *testing.T) {
	t.Parallel()

	p := New(testr.New(t))
	p.Add(newTemplate("a", "img:1"))

	assert.True(t, p.Contains("a", "img:1"))
	assert.False(t, p.Contains("a", ""))
	assert.False(t, p.Contains("", "img:1"))
	assert.False(t, p.Contains("b", "img:1"))
}

func TestPool_ListIsACopy(t *testing.T) {
	t.Parallel()

	p := New(testr.New(t))
	p.Add(newTemplate("a", "img:1"))

	l := p.List()
	l[0].Image = "changed"
	assert.True(t, p.Contains("a", "img:1"))
}

func TestPool_Concurrent(t *testing.T) {
	t.Parallel()

	p := New(testr.New(t))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				name := fmt.Sprintf("t-%d", j%10)
				p.Add(newTemplate(name, fmt.Sprintf("img:%d", i)))
				_ = p.List()
			}
		}(i)
	}
	wg.Wait()

	// Names stay unique no matter how adds interleave.
	assert.Equal(t, 10, p.Len())
	assert.Len(t, p.List(), 10)
}

func TestHandler(t *testing.T) {
	t.Parallel()

	p := New(testr.New(t))
	p.Add(newTemplate("maven", "quay.io/ci/maven:3"))
	p.Add(newTemplate("nodejs", "quay.io/ci/nodejs:18"))
	h := NewHandler(testr.New(t), p)

	t.Run("list", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, TemplatesPath, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var templates []workertemplate.WorkerTemplate
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &templates))
		assert.Equal(t, []string{"maven", "nodejs"}, workertemplate.Names(templates))
	})

	t.Run("get", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, TemplatesPath+"/nodejs", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var tmpl workertemplate.WorkerTemplate
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tmpl))
		assert.Equal(t, "quay.io/ci/nodejs:18", tmpl.Image)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, TemplatesPath+"/python", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, TemplatesPath, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
