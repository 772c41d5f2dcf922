package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humidorhq/humidor-tracker/constants"
	"github.com/humidorhq/humidor-tracker/internal/common"
	"github.com/humidorhq/humidor-tracker/internal/entity"
)

type fakeServices struct {
	processResult *entity.ProcessingResult
	processErr    error
	lastFilename  string

	matchResult *entity.MatchResult

	confirmResult *entity.ConfirmationResult

	quotaInfo *entity.QuotaInfo
}

func (f *fakeServices) ProcessImport(_ context.Context, _ uuid.UUID, filename string, _ []byte) (*entity.ProcessingResult, error) {
	f.lastFilename = filename
	return f.processResult, f.processErr
}

func (f *fakeServices) FindMatches(context.Context, []entity.ImportRecord) (*entity.MatchResult, error) {
	return f.matchResult, nil
}

func (f *fakeServices) ConfirmImport(context.Context, uuid.UUID, []entity.Selection) (*entity.ConfirmationResult, error) {
	return f.confirmResult, nil
}

func (f *fakeServices) GetUserQuota(context.Context, uuid.UUID) (*entity.QuotaInfo, error) {
	return f.quotaInfo, nil
}

func newTestServer(f *fakeServices) http.Handler {
	return NewServer(":0", f, f, f, f, nil, nil).Handler()
}

func TestQuotaEndpoint(t *testing.T) {
	f := &fakeServices{quotaInfo: &entity.QuotaInfo{
		Images: entity.CategoryQuota{Used: 3, Total: 30, Remaining: 27},
	}}
	h := newTestServer(f)

	req := httptest.NewRequest(http.MethodGet, "/v1/quota", nil)
	req.Header.Set("X-User-ID", uuid.NewString())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var info entity.QuotaInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, 27, info.Images.Remaining)
}

func TestQuotaEndpointRequiresUserHeader(t *testing.T) {
	h := newTestServer(&fakeServices{})

	req := httptest.NewRequest(http.MethodGet, "/v1/quota", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "X-User-ID")
}

func TestProcessEndpointUploadsMultipart(t *testing.T) {
	f := &fakeServices{processResult: &entity.ProcessingResult{
		Success: true,
		Method:  constants.MethodDirectParse,
		Data:    []entity.ImportRecord{{Brand: "Acme", Name: "Robusto", Quantity: 2}},
	}}
	h := newTestServer(f)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "inventory.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("brand,name\nAcme,Robusto\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/imports/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-ID", uuid.NewString())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "inventory.csv", f.lastFilename)

	var res entity.ProcessingResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.Success)
	require.Len(t, res.Data, 1)
}

func TestProcessEndpointMapsQuotaExceeded(t *testing.T) {
	f := &fakeServices{processErr: common.NewAppError("IMPORT_REJECTED", "monthly IMAGES quota exceeded", common.ErrQuotaExceeded)}
	h := newTestServer(f)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "photo.jpg")
	_, _ = fw.Write([]byte{1})
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/imports/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-ID", uuid.NewString())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), "QUOTA_EXCEEDED")
}

func TestMatchEndpointRejectsEmptyBatch(t *testing.T) {
	h := newTestServer(&fakeServices{})

	req := httptest.NewRequest(http.MethodPost, "/v1/imports/match", strings.NewReader(`{"records":[]}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestConfirmEndpointRoundTrip(t *testing.T) {
	f := &fakeServices{confirmResult: &entity.ConfirmationResult{
		Success: true, Created: 1, AddedToHumidor: 1, Errors: []entity.SelectionError{},
	}}
	h := newTestServer(f)

	payload := `{"selections":[{"kind":"new","record":{"brand":"Acme","name":"Robusto","quantity":1},"add_to_humidor":false}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/imports/confirm", strings.NewReader(payload))
	req.Header.Set("X-User-ID", uuid.NewString())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var res entity.ConfirmationResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Created)
}
