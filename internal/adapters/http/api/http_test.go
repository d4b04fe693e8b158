package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/radrate/internal/adapters/http/api"
	repository "github.com/okian/radrate/internal/adapters/repository"
	service "github.com/okian/radrate/internal/app"
	"github.com/okian/radrate/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const dataset = "idx,image_path,model1_response,model2_response,model3_response,model4_response,model5_response\n" +
	"3,chest/003.png,a,b,c,d,e\n" +
	"7,https://cdn.example.org/007,a,b,c,d,e\n"

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newMux(opts ...api.Option) (*http.ServeMux, *service.Service) {
	svc := service.New(
		service.WithStore(repository.NewKVStore(repository.NewMemoryKV())),
		service.WithClock(func() time.Time { return time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC) }),
	)
	mux := http.NewServeMux()
	api.NewServer(svc, opts...).Register(context.Background(), mux)
	return mux, svc
}

func do(mux *http.ServeMux, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var e apiError
	_ = json.Unmarshal(w.Body.Bytes(), &e)
	return e.Code
}

func login(mux *http.ServeMux, name, email string) model.User {
	w := do(mux, http.MethodPost, "/login", `{"name":"`+name+`","email":"`+email+`"}`)
	var resp struct {
		User model.User `json:"user"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.User
}

func TestDatasetUpload(t *testing.T) {
	Convey("Given an API server", t, func() {
		mux, svc := newMux()

		Convey("When uploading without the admin flag", func() {
			w := do(mux, http.MethodPost, "/dataset", dataset)

			Convey("Then it is forbidden", func() {
				So(w.Code, ShouldEqual, http.StatusForbidden)
				So(errorCode(w), ShouldEqual, "admin_required")
			})
		})

		Convey("When uploading a raw CSV body as admin", func() {
			w := do(mux, http.MethodPost, "/dataset?admin=true", dataset)

			Convey("Then the reports are loaded", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"reports":2`)
				So(len(svc.Reports(context.Background())), ShouldEqual, 2)
			})
		})

		Convey("When uploading a multipart file", func() {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			fw, err := mw.CreateFormFile("file", "reports.csv")
			So(err, ShouldBeNil)
			_, _ = fw.Write([]byte(dataset))
			So(mw.Close(), ShouldBeNil)

			req := httptest.NewRequest(http.MethodPost, "/dataset?admin=true", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the reports are loaded", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(len(svc.Reports(context.Background())), ShouldEqual, 2)
			})
		})

		Convey("When uploads are rejected", func() {
			cases := map[string]string{
				"invalid_image_path": "idx,image_path\n1,notes.txt\n",
				"empty_dataset":      "idx,image_path\n,\n",
				"malformed_file":     "idx,image_path\nx,a.png\n",
			}
			for code, body := range cases {
				Convey("Then "+code+" is reported", func() {
					w := do(mux, http.MethodPost, "/dataset?admin=true", body)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(errorCode(w), ShouldEqual, code)
				})
			}
		})
	})

	Convey("Given a server with a tiny upload limit", t, func() {
		mux, _ := newMux(api.WithMaxUploadBytes(16))

		Convey("Then large uploads are refused", func() {
			w := do(mux, http.MethodPost, "/dataset?admin=true", dataset)
			So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			So(errorCode(w), ShouldEqual, "payload_too_large")
		})
	})
}

func TestReportsAndSession(t *testing.T) {
	Convey("Given a loaded dataset", t, func() {
		mux, _ := newMux()
		So(do(mux, http.MethodPost, "/dataset?admin=true", dataset).Code, ShouldEqual, http.StatusOK)

		Convey("Then /reports lists them", func() {
			w := do(mux, http.MethodGet, "/reports", "")
			var reports []model.Report
			So(json.Unmarshal(w.Body.Bytes(), &reports), ShouldBeNil)
			So(len(reports), ShouldEqual, 2)
		})

		Convey("Then /session is empty before login", func() {
			w := do(mux, http.MethodGet, "/session", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(w), ShouldEqual, "no_session")
		})

		Convey("When a user logs in", func() {
			u := login(mux, "Dr. A", "a@example.org")

			Convey("Then the session reports them", func() {
				w := do(mux, http.MethodGet, "/session", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, u.ID)
				So(w.Body.String(), ShouldContainSubstring, `"resumeIndex":0`)
			})

			Convey("And a report view resolves the image", func() {
				w := do(mux, http.MethodGet, "/reports/3?user="+u.ID, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var v service.View
				So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
				So(v.ImageURL, ShouldEqual, "/images/chest/003.png")
				So(len(v.Order), ShouldEqual, 5)
			})

			Convey("And unknown reports are 404", func() {
				w := do(mux, http.MethodGet, "/reports/99", "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(errorCode(w), ShouldEqual, "unknown_report")
			})

			Convey("And a non-numeric idx is a bad request", func() {
				So(do(mux, http.MethodGet, "/reports/abc", "").Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("And /users needs the admin flag", func() {
				So(do(mux, http.MethodGet, "/users", "").Code, ShouldEqual, http.StatusForbidden)
				w := do(mux, http.MethodGet, "/users?admin=true", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "Dr. A")
			})

			Convey("And logout ends the session", func() {
				So(do(mux, http.MethodPost, "/logout", "").Code, ShouldEqual, http.StatusNoContent)
				So(do(mux, http.MethodGet, "/session", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When login has no name", func() {
			w := do(mux, http.MethodPost, "/login", `{"email":"x@example.org"}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "bad_request")
			})
		})
	})
}

func TestRatingsAndExport(t *testing.T) {
	Convey("Given a logged-in rater", t, func() {
		mux, _ := newMux()
		So(do(mux, http.MethodPost, "/dataset?admin=true", dataset).Code, ShouldEqual, http.StatusOK)
		u := login(mux, "Dr. A", "a@example.org")

		Convey("When exporting before rating", func() {
			w := do(mux, http.MethodGet, "/export/"+u.ID, "")

			Convey("Then no file is produced", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(errorCode(w), ShouldEqual, "empty_ratings")
				So(w.Header().Get("Content-Disposition"), ShouldBeEmpty)
			})
		})

		Convey("When saving ratings for idx 7", func() {
			body := `{"modelRatings":[{"modelIndex":0,"scores":{"accuracy":4,"comprehensiveness":4,"clarity":4,"interpretation":4,"terminology":4}}]}`
			w := do(mux, http.MethodPut, "/ratings/"+u.ID+"/7", body)

			Convey("Then the entry is stored", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var ir model.ImageRating
				So(json.Unmarshal(w.Body.Bytes(), &ir), ShouldBeNil)
				So(ir.Idx, ShouldEqual, 7)
				So(len(ir.ModelRatings), ShouldEqual, 1)

				list := do(mux, http.MethodGet, "/ratings/"+u.ID, "")
				var all []model.ImageRating
				So(json.Unmarshal(list.Body.Bytes(), &all), ShouldBeNil)
				So(len(all), ShouldEqual, 2)
			})

			Convey("And a single dimension can be changed", func() {
				w := do(mux, http.MethodPatch, "/ratings/"+u.ID+"/7/models/0", `{"dimension":"clarity","value":1.5}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"clarity":1.5`)
			})

			Convey("And the export is a CSV attachment", func() {
				w := do(mux, http.MethodGet, "/export/"+u.ID, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
				_, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
				So(err, ShouldBeNil)
				So(params["filename"], ShouldEqual, "radiologist_ratings_"+u.ID+"_2026-03-05.csv")
				So(w.Body.String(), ShouldStartWith, "idx,image_path,rater_id,rater_name,rater_email\n")
			})

			Convey("And the batch export has the generic name", func() {
				w := do(mux, http.MethodGet, "/export/"+u.ID+"/batch", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "radiologist_ratings.csv")
			})

			Convey("And stats count the rater as active", func() {
				w := do(mux, http.MethodGet, "/stats?admin=true", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"activeUsers":1`)

				md := do(mux, http.MethodGet, "/stats?admin=true&format=markdown", "")
				So(md.Header().Get("Content-Type"), ShouldStartWith, "text/markdown")
				So(md.Body.String(), ShouldContainSubstring, "# Rating Completion")
			})
		})

		Convey("When ratings are invalid", func() {
			cases := map[string]struct {
				method, path, body string
			}{
				"a score off the step": {http.MethodPut, "/ratings/" + u.ID + "/7", `{"modelRatings":[{"modelIndex":0,"scores":{"accuracy":4.2,"comprehensiveness":4,"clarity":4,"interpretation":4,"terminology":4}}]}`},
				"a model out of range": {http.MethodPatch, "/ratings/" + u.ID + "/7/models/6", `{"dimension":"clarity","value":2}`},
				"an unknown dimension": {http.MethodPatch, "/ratings/" + u.ID + "/7/models/1", `{"dimension":"style","value":2}`},
			}
			for name, c := range cases {
				Convey("Then "+name+" is rejected", func() {
					w := do(mux, c.method, c.path, c.body)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(errorCode(w), ShouldEqual, "invalid_rating")
				})
			}

			Convey("Then a missing value is a bad request", func() {
				w := do(mux, http.MethodPatch, "/ratings/"+u.ID+"/7/models/1", `{"dimension":"clarity"}`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "bad_request")
			})

			Convey("Then an unknown user is 404", func() {
				w := do(mux, http.MethodPatch, "/ratings/ghost/7/models/1", `{"dimension":"clarity","value":2}`)
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(errorCode(w), ShouldEqual, "unknown_user")
			})
		})
	})
}

func TestHealth(t *testing.T) {
	Convey("Given an API server", t, func() {
		mux, _ := newMux()
		_ = do(mux, http.MethodGet, "/reports", "")

		Convey("Then /healthz exposes request metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "radrate_http_requests_total")
		})
	})
}

func TestErrorKinds(t *testing.T) {
	Convey("Given an error tagged with a kind", t, func() {
		cause := service.ErrUnknownUser
		err := api.WrapKind("api.test", api.ErrBadRequest, cause)

		Convey("Then both kind and cause match", func() {
			So(err.Error(), ShouldEqual, "api.test: unknown user")
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, service.ErrUnknownUser), ShouldBeTrue)
		})

		Convey("Then NewKind and Wrap keep their kind", func() {
			So(errors.Is(api.NewKind("op", api.ErrNoSession), api.ErrNoSession), ShouldBeTrue)
			So(api.Wrap("op", nil), ShouldBeNil)
			So(errors.Is(api.Wrap("op", cause), service.ErrUnknownUser), ShouldBeTrue)
		})
	})
}
