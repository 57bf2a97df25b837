package handlers

import (
	"bytes"
	"context"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/kozaktomas/names-to-faces/internal/person"
)

func listPeople(t *testing.T, env *testEnv) (*httptest.ResponseRecorder, PeopleResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	env.people().List(w, httptest.NewRequest(http.MethodGet, "/api/v1/people", nil))
	var resp PeopleResponse
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return w, resp
}

func seededEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t, &fakeBiometric{available: true})
	env.seed(
		person.Person{Name: "Alice", ImageRef: "a"},
		person.Person{Name: "Bob", ImageRef: "b"},
		person.Person{Name: "Carol", ImageRef: "c"},
	)
	env.unlock(t)
	return env
}

func TestPeopleHandler_ListLocked(t *testing.T) {
	env := newTestEnv(t, &fakeBiometric{available: true})

	w, _ := listPeople(t, env)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestPeopleHandler_List(t *testing.T) {
	env := seededEnv(t)

	w, resp := listPeople(t, env)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if resp.Count != 3 || len(resp.People) != 3 {
		t.Fatalf("expected 3 people, got %+v", resp)
	}
	if resp.People[1].Index != 1 || resp.People[1].Name != "Bob" || resp.People[1].Image != "b" {
		t.Errorf("unexpected person %+v", resp.People[1])
	}
	if resp.People[2].ImageURL != "/api/v1/people/2/image" {
		t.Errorf("unexpected image URL %q", resp.People[2].ImageURL)
	}
}

func TestPeopleHandler_ListQuery(t *testing.T) {
	env := newTestEnv(t, &fakeBiometric{available: true})
	env.seed(
		person.Person{Name: "Jiří", ImageRef: "a"},
		person.Person{Name: "Bob", ImageRef: "b"},
		person.Person{Name: "jiri novak", ImageRef: "c"},
	)
	env.unlock(t)

	w := httptest.NewRecorder()
	env.people().List(w, httptest.NewRequest(http.MethodGet, "/api/v1/people?q=JIRI", nil))

	var resp PeopleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Count != 2 || resp.People[0].Index != 0 || resp.People[1].Index != 2 {
		t.Errorf("expected matches at 0 and 2 keeping list indexes, got %+v", resp.People)
	}
}

func TestPeopleHandler_ListEmpty(t *testing.T) {
	env := newTestEnv(t, &fakeBiometric{available: true})
	env.unlock(t)

	w := httptest.NewRecorder()
	env.people().List(w, httptest.NewRequest(http.MethodGet, "/api/v1/people", nil))

	if !strings.Contains(w.Body.String(), `"people":[]`) {
		t.Errorf("expected an empty array, got %s", w.Body.String())
	}
}

func TestPeopleHandler_Create(t *testing.T) {
	env := seededEnv(t)
	body, contentType := multipartImage(t, "image", testPNG(t))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/people", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	env.people().Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp PersonResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Index != 3 || resp.Name != person.DefaultName || resp.Image == "" {
		t.Errorf("unexpected person %+v", resp)
	}
	if env.store.ImageCount() != 1 {
		t.Errorf("expected 1 stored image, got %d", env.store.ImageCount())
	}
}

func TestPeopleHandler_CreateRejects(t *testing.T) {
	tests := []struct {
		name  string
		field string
		data  []byte
	}{
		{name: "wrong field", field: "photo", data: []byte("x")},
		{name: "not an image", field: "image", data: []byte("definitely not an image")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := seededEnv(t)
			body, contentType := multipartImage(t, tt.field, tt.data)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/people", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			env.people().Create(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
			if _, resp := listPeople(t, env); resp.Count != 3 {
				t.Errorf("expected list unchanged, got %d people", resp.Count)
			}
		})
	}
}

func TestPeopleHandler_CreateNotMultipart(t *testing.T) {
	env := seededEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/people", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.people().Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestPeopleHandler_Rename(t *testing.T) {
	tests := []struct {
		name       string
		index      string
		body       string
		wantStatus int
		wantNames  []string
	}{
		{name: "rename", index: "1", body: `{"name":"Robert"}`, wantStatus: http.StatusOK, wantNames: []string{"Alice", "Robert", "Carol"}},
		{name: "kept as given", index: "0", body: `{"name":"  Alicia "}`, wantStatus: http.StatusOK, wantNames: []string{"  Alicia ", "Bob", "Carol"}},
		{name: "empty name", index: "2", body: `{"name":""}`, wantStatus: http.StatusOK, wantNames: []string{"Alice", "Bob", ""}},
		{name: "missing name", index: "0", body: `{}`, wantStatus: http.StatusBadRequest, wantNames: []string{"Alice", "Bob", "Carol"}},
		{name: "invalid body", index: "0", body: `nope`, wantStatus: http.StatusBadRequest, wantNames: []string{"Alice", "Bob", "Carol"}},
		{name: "invalid index", index: "first", body: `{"name":"X"}`, wantStatus: http.StatusBadRequest, wantNames: []string{"Alice", "Bob", "Carol"}},
		{name: "out of range", index: "3", body: `{"name":"X"}`, wantStatus: http.StatusConflict, wantNames: []string{"Alice", "Bob", "Carol"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := seededEnv(t)
			req := requestWithChiParams(
				httptest.NewRequest(http.MethodPut, "/api/v1/people/"+tt.index, strings.NewReader(tt.body)),
				map[string]string{"index": tt.index},
			)
			w := httptest.NewRecorder()

			env.people().Rename(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			_, resp := listPeople(t, env)
			got := make([]string, len(resp.People))
			for i, p := range resp.People {
				got[i] = p.Name
			}
			if strings.Join(got, ",") != strings.Join(tt.wantNames, ",") {
				t.Errorf("expected %v, got %v", tt.wantNames, got)
			}
		})
	}
}

func TestPeopleHandler_Delete(t *testing.T) {
	env := seededEnv(t)
	env.store.WriteImage(context.Background(), "b", []byte{0xff, 0xd8})

	req := requestWithChiParams(httptest.NewRequest(http.MethodDelete, "/api/v1/people/1", nil), map[string]string{"index": "1"})
	w := httptest.NewRecorder()
	env.people().Delete(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	_, resp := listPeople(t, env)
	if resp.Count != 2 || resp.People[0].Name != "Alice" || resp.People[1].Name != "Carol" {
		t.Errorf("unexpected list after delete: %+v", resp.People)
	}
	if env.store.ImageCount() != 0 {
		t.Errorf("expected the deleted person's image to be removed")
	}

	req = requestWithChiParams(httptest.NewRequest(http.MethodDelete, "/api/v1/people/5", nil), map[string]string{"index": "5"})
	w = httptest.NewRecorder()
	env.people().Delete(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", w.Code)
	}
}

func TestPeopleHandler_Image(t *testing.T) {
	env := seededEnv(t)
	stored := []byte("stored-jpeg")
	env.store.WriteImage(context.Background(), "a", stored)

	get := func(index string) *httptest.ResponseRecorder {
		req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/api/v1/people/"+index+"/image", nil), map[string]string{"index": index})
		w := httptest.NewRecorder()
		env.people().Image(w, req)
		return w
	}

	w := get("0")
	if w.Code != http.StatusOK || !bytes.Equal(w.Body.Bytes(), stored) {
		t.Errorf("expected stored image, got %d %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", ct)
	}

	w = get("1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected placeholder, got %d", w.Code)
	}
	if _, err := jpeg.Decode(bytes.NewReader(w.Body.Bytes())); err != nil {
		t.Errorf("placeholder is not a JPEG: %v", err)
	}

	if w = get("9"); w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", w.Code)
	}
	if w = get("x"); w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}
