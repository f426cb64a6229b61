package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"

	. "github.com/trezcool/sanggar/apps/api/echo"
	"github.com/trezcool/sanggar/core"
	"github.com/trezcool/sanggar/core/document"
	"github.com/trezcool/sanggar/storage/uploads"
	"github.com/trezcool/sanggar/tests"
)

// pdfBackend writes a placeholder PDF to the conversion target.
type pdfBackend struct{}

func (pdfBackend) Name() string { return "stub" }

func (pdfBackend) Convert(_ context.Context, job document.Job) document.Outcome {
	if err := os.WriteFile(job.Target, []byte("%PDF-1.4 stub"), 0o644); err != nil {
		return document.Failed(document.ReasonPrimaryTool, err)
	}
	return document.Succeeded(job.Target)
}

type fixture struct {
	app    *Server
	store  *uploads.Store
	logger *testutil.Logger
}

func setup(t *testing.T) fixture {
	conf := &core.Config{AppName: "Sanggar Belajar", TestMode: true}
	store := testutil.NewStore(t)
	logger := &testutil.Logger{}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	svc := document.NewService(store, document.Chain{pdfBackend{}}, logger, document.Options{})

	app := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logger,
		DocumentSvc: svc,
		Store:       store,
		Validate:    validate,
		Translator:  translator,
	})
	return fixture{app: app, store: store, logger: logger}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	path     string
	wantCode int
	wantData []byte
}

func newRequest(method, path string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, &bytes.Buffer{})
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
