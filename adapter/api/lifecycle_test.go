package api_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/venues/adapter/api"
	"github.com/felixgeelhaar/venues/internal/venues/application/queries"
	"github.com/felixgeelhaar/venues/pkg/etag"
)

// Every request sees the same instant, so tags only move because writes
// move the stored modification time.
func TestVenuesAPI_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	s.frozen = time.Date(2024, 9, 14, 18, 30, 0, 250000000, time.UTC)

	rec := s.do(t, http.MethodPost, "/api/venues", api.VenueWriteRequest{Name: "Library Hall"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[queries.VenueDTO](t, rec)
	path := "/api/venues/" + created.ID.String()

	assert.True(t, s.frozen.Equal(created.CreatedDate))
	assert.True(t, created.CreatedDate.Equal(created.ModifiedDate))
	tag0 := rec.Header().Get("ETag")
	assert.Equal(t, etag.Generate(created.ID, s.frozen, s.frozen), tag0)

	rec = s.do(t, http.MethodPut, path, api.VenueWriteRequest{Name: "Library Annex"}, map[string]string{"If-Match": tag0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[queries.VenueDTO](t, rec)
	tag1 := rec.Header().Get("ETag")
	assert.NotEqual(t, tag0, tag1)
	assert.Equal(t, etag.Generate(created.ID, created.CreatedDate, updated.ModifiedDate), tag1)
	assert.True(t, updated.ModifiedDate.After(updated.CreatedDate))

	rec = s.do(t, http.MethodPut, path, api.VenueWriteRequest{Name: "Library Basement"}, map[string]string{"If-Match": tag0})
	require.Equal(t, http.StatusPreconditionFailed, rec.Code, rec.Body.String())
	conflict := decode[errorBody](t, rec)
	assert.Equal(t, "Concurrency Check Failed", conflict.Message)
	assert.Equal(t, tag0, conflict.Requested)
	assert.Equal(t, tag1, conflict.Current)

	rec = s.do(t, http.MethodDelete, path, nil, map[string]string{"If-Match": tag0})
	require.Equal(t, http.StatusPreconditionFailed, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Library Annex", decode[queries.VenueDTO](t, rec).Name)
	assert.Equal(t, tag1, rec.Header().Get("ETag"))

	rec = s.do(t, http.MethodDelete, path, nil, map[string]string{"If-Match": tag1})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Empty(t, rec.Body.Bytes())

	rec = s.do(t, http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/venues", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
