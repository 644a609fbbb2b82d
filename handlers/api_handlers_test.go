package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"school-registry-go/db"
	"school-registry-go/models"
	"school-registry-go/service"
)

type failingPersister struct{}

func (failingPersister) Save(context.Context, models.Snapshot) error {
	return errors.New("redis down")
}

func newTestRouter(t *testing.T, p service.Persister) (*gin.Engine, *service.SchoolService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := service.NewSchoolService(models.NewSchool(1, "Test School"), p, nil)
	return NewRouter(NewAPIHandler(svc, nil)), svc
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := doJSON(t, r, http.MethodGet, "/api/ping", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"message":"Pong!"}`, w.Body.String())
}

func TestTeacherLifecycle(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/teachers", gin.H{"name": "A", "subject_id": 5})
	require.Equal(t, http.StatusCreated, w.Code)
	require.JSONEq(t, `{"id":1,"name":"A","subject_id":5}`, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/teachers/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"id":1,"name":"A","subject_id":5}`, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/teachers", nil)
	require.JSONEq(t, `[{"id":1,"name":"A","subject_id":5}]`, w.Body.String())

	w = doJSON(t, r, http.MethodDelete, "/api/teachers/1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/teachers/1", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/teachers/1", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestEmptyListsAreArrays(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	for _, path := range []string{"/api/teachers", "/api/classes", "/api/schedules", "/api/subjects"} {
		w := doJSON(t, r, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		require.JSONEq(t, `[]`, w.Body.String(), path)
	}
}

func TestBadRequests(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodGet, "/api/classes/abc", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/schedules/-1", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/subjects", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/import", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassSubjectEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/classes", gin.H{"name": "C", "description": "D"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.JSONEq(t, `{"id":1,"name":"C","description":"D","subject_ids":[]}`, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/classes/1/subjects", gin.H{"subject_ids": []int{3, 4, 5, 3}})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"id":1,"name":"C","description":"D","subject_ids":[3,4,5]}`, w.Body.String())

	w = doJSON(t, r, http.MethodDelete, "/api/classes/1/subjects/4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"id":1,"name":"C","description":"D","subject_ids":[3,5]}`, w.Body.String())

	w = doJSON(t, r, http.MethodDelete, "/api/classes/9/subjects/4", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteClassKeepsSchedules(t *testing.T) {
	r, svc := newTestRouter(t, nil)

	doJSON(t, r, http.MethodPost, "/api/classes", gin.H{"name": "C"})
	w := doJSON(t, r, http.MethodPost, "/api/schedules", gin.H{"name": "Mon", "class_id": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/classes/1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/schedules/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"id":1,"name":"Mon","class_id":1}`, w.Body.String())
	require.Empty(t, svc.Classes())
}

func TestSubjectsAndSchoolSnapshot(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/subjects", gin.H{"name": "Maths"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/subjects/1", nil)
	require.JSONEq(t, `{"id":1,"name":"Maths"}`, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/school", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Equal(t, "Test School", snap.Name)
	require.Equal(t, models.SubjectID(2), snap.NextSubjectID)
	require.Len(t, snap.Subjects, 1)

	w = doJSON(t, r, http.MethodDelete, "/api/subjects/1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestPersistFailureIs500(t *testing.T) {
	r, _ := newTestRouter(t, failingPersister{})

	w := doJSON(t, r, http.MethodPost, "/api/subjects", gin.H{"name": "Maths"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestImportAndExportWorkbook(t *testing.T) {
	r, svc := newTestRouter(t, nil)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", db.SheetSubjects))
	require.NoError(t, f.SetSheetRow(db.SheetSubjects, "A1", &[]interface{}{"Name"}))
	require.NoError(t, f.SetSheetRow(db.SheetSubjects, "A2", &[]interface{}{"Maths"}))
	var xlsx bytes.Buffer
	require.NoError(t, f.Write(&xlsx))
	require.NoError(t, f.Close())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "school.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), `"subjects":1`)
	require.Len(t, svc.Subjects(), 1)

	w = doJSON(t, r, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))

	out, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer out.Close()
	rows, err := out.GetRows(db.SheetSubjects)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"ID", "Name"}, {"1", "Maths"}}, rows)
}
