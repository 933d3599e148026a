package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkondratev/eventprog/internal/handler"
)

func TestGetHealth_200(t *testing.T) {
	rec := doRequest(t, newHTTPHandler(nil, nil, nil, handler.ServerConfig{}), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetOpenAPI_200(t *testing.T) {
	rec := doRequest(t, newHTTPHandler(nil, nil, nil, handler.ServerConfig{}), http.MethodGet, "/openapi.yaml", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "yaml")
	assert.Contains(t, rec.Body.String(), "openapi:")
}
