// Package api is the engine's HTTP client for the table/record/view service.
// Request and response bodies are the camelCase JSON shapes in models.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"gridbase/gridbase_go_view_engine_service/config"
	"gridbase/gridbase_go_view_engine_service/models"
	"gridbase/gridbase_go_view_engine_service/pkg/jaeger"
)

type ClientI interface {
	GetFields(ctx context.Context, tableId string) ([]models.Field, error)
	CreateField(ctx context.Context, tableId string, req models.CreateFieldRequest) (models.Field, error)
	DeleteField(ctx context.Context, fieldId string) error

	GetViews(ctx context.Context, tableId string) ([]models.View, error)
	CreateView(ctx context.Context, tableId string, req models.CreateViewRequest) (models.View, error)
	PatchView(ctx context.Context, viewId string, req models.PatchViewRequest) (models.View, error)
	DeleteView(ctx context.Context, viewId string) error

	QueryRecords(ctx context.Context, tableId string, req models.RecordQueryRequest) (models.RecordPage, error)
	CreateRecord(ctx context.Context, tableId string, initialValues map[string]any) (models.Record, error)
	PatchRecord(ctx context.Context, recordId string, valuesPatch map[string]any) (models.Record, error)
	DeleteRecord(ctx context.Context, recordId string) error
	DeleteRecordsByQuery(ctx context.Context, tableId string, req models.RecordQueryRequest) (int, error)

	GetTablePermissions(ctx context.Context, tableId string) ([]models.TablePermission, error)
	PutTablePermissions(ctx context.Context, tableId string, perms []models.TablePermission) error
	GetViewPermissions(ctx context.Context, viewId string) ([]models.ViewPermission, error)
	PutViewPermissions(ctx context.Context, viewId string, perms []models.ViewPermission) error
	GetButtonPermissions(ctx context.Context, tableId string) (models.ButtonPermissionSet, error)
	PutButtonPermissions(ctx context.Context, tableId, userId string, set models.ButtonPermissionSet) error

	GetReferenceMembers(ctx context.Context, tableId string) ([]models.ReferenceMember, error)
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg config.Config) ClientI {
	return &httpClient{
		baseURL: cfg.APIBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithHTTP wires a caller-owned http.Client, used by tests to point
// the engine at an httptest server.
func NewClientWithHTTP(baseURL string, hc *http.Client) ClientI {
	return &httpClient{baseURL: baseURL, http: hc}
}

func (c *httpClient) do(ctx context.Context, method, path string, body any, out any) error {
	span, ctx := jaeger.StartSpanFromContext(ctx, method+" "+path, body)
	defer span.Finish()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "json.Marshal")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "http.NewRequestWithContext")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.SetTag("error", true)
		return errors.Wrap(err, method+" "+path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetTag("error", true)
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(detail))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "json.Decode")
	}
	return nil
}

func (c *httpClient) GetFields(ctx context.Context, tableId string) (resp []models.Field, err error) {
	err = c.do(ctx, http.MethodGet, fmt.Sprintf("/tables/%s/fields", tableId), nil, &resp)
	return resp, err
}

func (c *httpClient) CreateField(ctx context.Context, tableId string, req models.CreateFieldRequest) (resp models.Field, err error) {
	err = c.do(ctx, http.MethodPost, fmt.Sprintf("/tables/%s/fields", tableId), req, &resp)
	return resp, err
}

func (c *httpClient) DeleteField(ctx context.Context, fieldId string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/fields/%s", fieldId), nil, nil)
}

func (c *httpClient) GetViews(ctx context.Context, tableId string) (resp []models.View, err error) {
	err = c.do(ctx, http.MethodGet, fmt.Sprintf("/tables/%s/views", tableId), nil, &resp)
	return resp, err
}

func (c *httpClient) CreateView(ctx context.Context, tableId string, req models.CreateViewRequest) (resp models.View, err error) {
	err = c.do(ctx, http.MethodPost, fmt.Sprintf("/tables/%s/views", tableId), req, &resp)
	return resp, err
}

func (c *httpClient) PatchView(ctx context.Context, viewId string, req models.PatchViewRequest) (resp models.View, err error) {
	err = c.do(ctx, http.MethodPatch, fmt.Sprintf("/views/%s", viewId), req, &resp)
	return resp, err
}

func (c *httpClient) DeleteView(ctx context.Context, viewId string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/views/%s", viewId), nil, nil)
}

func (c *httpClient) QueryRecords(ctx context.Context, tableId string, req models.RecordQueryRequest) (resp models.RecordPage, err error) {
	err = c.do(ctx, http.MethodPost, fmt.Sprintf("/tables/%s/records/query", tableId), req, &resp)
	return resp, err
}

func (c *httpClient) CreateRecord(ctx context.Context, tableId string, initialValues map[string]any) (resp models.Record, err error) {
	req := models.CreateRecordRequest{InitialValues: initialValues}
	err = c.do(ctx, http.MethodPost, fmt.Sprintf("/tables/%s/records", tableId), req, &resp)
	return resp, err
}

func (c *httpClient) PatchRecord(ctx context.Context, recordId string, valuesPatch map[string]any) (resp models.Record, err error) {
	req := models.PatchRecordRequest{ValuesPatch: valuesPatch}
	err = c.do(ctx, http.MethodPatch, fmt.Sprintf("/records/%s", recordId), req, &resp)
	return resp, err
}

func (c *httpClient) DeleteRecord(ctx context.Context, recordId string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/records/%s", recordId), nil, nil)
}

func (c *httpClient) DeleteRecordsByQuery(ctx context.Context, tableId string, req models.RecordQueryRequest) (int, error) {
	var resp struct {
		DeletedCount int `json:"deletedCount"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/tables/%s/records/delete-by-query", tableId), req, &resp)
	return resp.DeletedCount, err
}

func (c *httpClient) GetTablePermissions(ctx context.Context, tableId string) (resp []models.TablePermission, err error) {
	err = c.do(ctx, http.MethodGet, fmt.Sprintf("/tables/%s/permissions", tableId), nil, &resp)
	return resp, err
}

func (c *httpClient) PutTablePermissions(ctx context.Context, tableId string, perms []models.TablePermission) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/tables/%s/permissions", tableId), perms, nil)
}

func (c *httpClient) GetViewPermissions(ctx context.Context, viewId string) (resp []models.ViewPermission, err error) {
	err = c.do(ctx, http.MethodGet, fmt.Sprintf("/views/%s/permissions", viewId), nil, &resp)
	return resp, err
}

func (c *httpClient) PutViewPermissions(ctx context.Context, viewId string, perms []models.ViewPermission) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/views/%s/permissions", viewId), perms, nil)
}

func (c *httpClient) GetButtonPermissions(ctx context.Context, tableId string) (resp models.ButtonPermissionSet, err error) {
	err = c.do(ctx, http.MethodGet, fmt.Sprintf("/tables/%s/button-permissions/me", tableId), nil, &resp)
	return resp, err
}

func (c *httpClient) PutButtonPermissions(ctx context.Context, tableId, userId string, set models.ButtonPermissionSet) error {
	body := struct {
		UserId string                     `json:"userId"`
		Set    models.ButtonPermissionSet `json:"set"`
	}{UserId: userId, Set: set}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/tables/%s/button-permissions", tableId), body, nil)
}

func (c *httpClient) GetReferenceMembers(ctx context.Context, tableId string) (resp []models.ReferenceMember, err error) {
	err = c.do(ctx, http.MethodGet, fmt.Sprintf("/tables/%s/reference-members", tableId), nil, &resp)
	return resp, err
}
