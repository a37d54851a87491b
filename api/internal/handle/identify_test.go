package handle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"device-identifier/api/internal/classify"
	"device-identifier/api/internal/config"
	"device-identifier/api/internal/devicetext"
	"device-identifier/api/internal/imaging"
	"device-identifier/api/internal/pipeline"
)

type fakeClassifier struct {
	result *classify.Result
	err    error
}

func (f *fakeClassifier) Classify(ctx context.Context, jpeg []byte) (*classify.Result, error) {
	return f.result, f.err
}

type fakeExtractor struct{ info devicetext.Info }

func (f *fakeExtractor) Extract(ctx context.Context, img []byte) devicetext.Info {
	return f.info
}

func successResult() *classify.Result {
	top := classify.Prediction{Label: "router", Score: 0.9}
	conf := top.Score
	return &classify.Result{
		Status:        classify.StatusSuccess,
		Predictions:   []classify.Prediction{top, {Label: "modem", Score: 0.1}},
		TopPrediction: &top,
		Confidence:    &conf,
	}
}

func testHandle(c classify.Classifier, e devicetext.Extractor) *Handle {
	cfg := &config.Config{
		HuggingFaceToken:   "token",
		HuggingFaceModelID: "google/vit-base-patch16-224",
		MaxFileSize:        10 << 20,
		MaxImageDimension:  1024,
		JPEGQuality:        85,
	}
	p := &pipeline.Pipeline{
		Normalizer: &imaging.Normalizer{
			MaxBytes:     cfg.MaxFileSize,
			MaxDimension: cfg.MaxImageDimension,
			Quality:      cfg.JPEGQuality,
		},
		Classifier: c,
		Extractor:  e,
		ModelID:    cfg.HuggingFaceModelID,
	}
	return New(cfg, p, nil)
}

func pngUpload(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func multipartUpload(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
	hdr["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	mw.Close()
	return body, mw.FormDataContentType()
}

func postIdentify(t *testing.T, h *Handle, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartUpload(t, "file", filename, contentType, data)
	req := httptest.NewRequest(http.MethodPost, "/identify", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.Identify(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad response body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestIdentifySuccessEnvelope(t *testing.T) {
	h := testHandle(&fakeClassifier{result: successResult()}, &fakeExtractor{info: devicetext.Info{
		ProductType:    devicetext.ProductRouter,
		ModelNumber:    "TG1682G",
		SerialNumber:   "ABC123",
		RawText:        []string{"Wireless Router", "Model: TG1682G", "S/N: ABC123"},
		TextDetections: 3,
	}})

	rec := postIdentify(t, h, "my_router.png", "image/png", pngUpload(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	out := decodeBody(t, rec)
	if out["filename"] != "my_router.png" {
		t.Errorf("filename = %v", out["filename"])
	}
	if out["model_used"] != "google/vit-base-patch16-224" {
		t.Errorf("model_used = %v", out["model_used"])
	}
	if out["status"] != "success" {
		t.Errorf("status = %v", out["status"])
	}
	if out["confidence"] != 0.9 {
		t.Errorf("confidence = %v, want 0.9", out["confidence"])
	}
	if out["problem_detected"] != false {
		t.Errorf("problem_detected = %v, want false", out["problem_detected"])
	}
	if _, ok := out["problem_description"]; ok {
		t.Error("problem_description must be absent when no problem detected")
	}
	if _, ok := out["dispatch_note"]; ok {
		t.Error("dispatch_note must be absent when no problem detected")
	}
	if fs, ok := out["file_size"].(float64); !ok || fs <= 0 {
		t.Errorf("file_size = %v, want positive", out["file_size"])
	}

	info, ok := out["device_info"].(map[string]any)
	if !ok {
		t.Fatalf("device_info missing: %v", out)
	}
	if info["product_type"] != "Router" || info["serial_number"] != "ABC123" {
		t.Errorf("device_info = %v", info)
	}
}

func TestIdentifyBrokenCableAnnotation(t *testing.T) {
	h := testHandle(&fakeClassifier{result: successResult()}, &fakeExtractor{})

	rec := postIdentify(t, h, "broken_cable1.jpg", "image/png", pngUpload(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	out := decodeBody(t, rec)
	if out["problem_detected"] != true {
		t.Errorf("problem_detected = %v, want true", out["problem_detected"])
	}
	if out["problem_description"] != "Cable appears broken" {
		t.Errorf("problem_description = %v", out["problem_description"])
	}
	note, _ := out["dispatch_note"].(string)
	if !bytes.Contains([]byte(note), []byte("replace the broken cable")) {
		t.Errorf("dispatch_note = %q", note)
	}
}

func TestIdentifyGreenLightOmitsProblemFields(t *testing.T) {
	h := testHandle(&fakeClassifier{result: successResult()}, &fakeExtractor{info: devicetext.Info{
		ProductType: devicetext.ProductRouter,
	}})

	rec := postIdentify(t, h, "router_green_light.png", "image/png", pngUpload(t))
	out := decodeBody(t, rec)

	if out["problem_detected"] != false {
		t.Errorf("problem_detected = %v, want false", out["problem_detected"])
	}
	if _, ok := out["problem_description"]; ok {
		t.Error("problem_description must be omitted")
	}
	if _, ok := out["dispatch_note"]; ok {
		t.Error("dispatch_note must be omitted")
	}
	// Classification still populated independently of the rule outcome.
	if out["status"] != "success" {
		t.Errorf("status = %v", out["status"])
	}
}

func TestIdentifyRejectsNonImage(t *testing.T) {
	called := false
	h := testHandle(&classifierSpy{called: &called}, &fakeExtractor{})

	rec := postIdentify(t, h, "notes.txt", "text/plain", []byte("not an image"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if called {
		t.Error("classifier must not be called for rejected uploads")
	}
}

type classifierSpy struct{ called *bool }

func (s *classifierSpy) Classify(ctx context.Context, jpeg []byte) (*classify.Result, error) {
	*s.called = true
	return successResult(), nil
}

func TestIdentifyRejectsOversizedUpload(t *testing.T) {
	h := testHandle(&fakeClassifier{result: successResult()}, &fakeExtractor{})
	h.pipeline.Normalizer.MaxBytes = 64

	rec := postIdentify(t, h, "big.png", "image/png", pngUpload(t))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIdentifyMissingFileField(t *testing.T) {
	h := testHandle(&fakeClassifier{result: successResult()}, &fakeExtractor{})

	body, ct := multipartUpload(t, "image", "x.png", "image/png", pngUpload(t))
	req := httptest.NewRequest(http.MethodPost, "/identify", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.Identify(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIdentifyErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"missing token", classify.ErrNotConfigured, http.StatusInternalServerError},
		{"timeout", classify.ErrTimeout, http.StatusRequestTimeout},
		{"upstream error keeps status", &classify.UpstreamError{StatusCode: 429, Body: "rate limited"}, 429},
		{"transport failure", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := testHandle(&fakeClassifier{err: tc.err}, &fakeExtractor{})
			rec := postIdentify(t, h, "router.png", "image/png", pngUpload(t))
			if rec.Code != tc.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			out := decodeBody(t, rec)
			if _, ok := out["detail"]; !ok {
				t.Error("error payload must carry a detail field")
			}
		})
	}
}

func TestIdentifyModelLoadingPassesThrough(t *testing.T) {
	est := 42.0
	h := testHandle(&fakeClassifier{result: &classify.Result{
		Status:        classify.StatusModelLoading,
		Predictions:   []classify.Prediction{},
		Message:       "Model is currently loading. Please try again in a few moments.",
		EstimatedTime: &est,
	}}, &fakeExtractor{})

	rec := postIdentify(t, h, "router.png", "image/png", pngUpload(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (loading is not an error)", rec.Code)
	}
	out := decodeBody(t, rec)
	if out["status"] != "model_loading" {
		t.Errorf("status = %v", out["status"])
	}
	if out["estimated_time"] != 42.0 {
		t.Errorf("estimated_time = %v", out["estimated_time"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := testHandle(&fakeClassifier{result: successResult()}, &fakeExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	out := decodeBody(t, rec)
	if out["status"] != "healthy" {
		t.Errorf("status = %v", out["status"])
	}
	if out["huggingface_configured"] != true {
		t.Errorf("huggingface_configured = %v, want true", out["huggingface_configured"])
	}
	if out["model"] != "google/vit-base-patch16-224" {
		t.Errorf("model = %v", out["model"])
	}
}

func TestRootListsEndpoints(t *testing.T) {
	h := testHandle(&fakeClassifier{result: successResult()}, &fakeExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Root(rec, req)

	out := decodeBody(t, rec)
	eps, ok := out["endpoints"].(map[string]any)
	if !ok {
		t.Fatalf("endpoints missing: %v", out)
	}
	for _, p := range []string{"/identify", "/health"} {
		if _, ok := eps[p]; !ok {
			t.Errorf("endpoint %s not listed", p)
		}
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	h := testHandle(&fakeClassifier{result: successResult()}, &fakeExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	rec := httptest.NewRecorder()
	h.History(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when no store configured", rec.Code)
	}
}
