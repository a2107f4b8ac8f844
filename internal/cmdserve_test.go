// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package internal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
)

func testRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	writeTestFITS(t, filepath.Join(dir, "ones.fits"), []int{5, 5}, constant(1))
	writeTestFITS(t, filepath.Join(dir, "loss.fits"), []int{101, 101}, constant(0.5))

	sciP, lossP, p := DefaultScienceParams(), DefaultLossParams(), DefaultServeParams()
	p.Dir = dir
	r, err := NewRouter(&sciP, &lossP, &p)
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}
	return r, dir
}

func post(r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	r, _ := testRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	if w.Code != http.StatusOK || w.Body.String() != `{"message":"pong"}` {
		t.Errorf("got %d %s", w.Code, w.Body.String())
	}
}

func TestApertureEndpoint(t *testing.T) {
	r, _ := testRouter(t)
	tests := []struct {
		name    string
		req     ApertureRequest
		code    int
		value   *float64
		defined bool
		pixels  int
	}{
		{"mean disk", ApertureRequest{File: "ones.fits", X: 2, Y: 2, Outer: 1, Statistic: "mean"}, http.StatusOK, ptr(1), true, 5},
		{"std disk", ApertureRequest{File: "ones.fits", X: 2, Y: 2, Outer: 1}, http.StatusOK, ptr(0), true, 5},
		{"annulus", ApertureRequest{File: "ones.fits", X: 2, Y: 2, Kind: "annulus", Inner: 1, Outer: 2, Statistic: "mean"}, http.StatusOK, ptr(1), true, 8},
		{"off image", ApertureRequest{File: "ones.fits", X: 40, Y: 40, Outer: 1}, http.StatusOK, nil, false, 0},
		{"bad kind", ApertureRequest{File: "ones.fits", Kind: "square", Outer: 1}, http.StatusBadRequest, nil, false, 0},
		{"bad radii", ApertureRequest{File: "ones.fits", Kind: "annulus", Inner: 2, Outer: 1}, http.StatusBadRequest, nil, false, 0},
		{"missing file", ApertureRequest{File: "none.fits", Outer: 1}, http.StatusNotFound, nil, false, 0},
		{"no file", ApertureRequest{Outer: 1}, http.StatusBadRequest, nil, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(r, "/api/v1/aperture", tt.req)
			if w.Code != tt.code {
				t.Fatalf("status: got %d, want %d: %s", w.Code, tt.code, w.Body.String())
			}
			if tt.code != http.StatusOK {
				return
			}
			var res ApertureResponse
			if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
				t.Fatal(err)
			}
			if (res.Value == nil) != (tt.value == nil) || (res.Value != nil && *res.Value != *tt.value) {
				t.Errorf("value: got %v, want %v", res.Value, tt.value)
			}
			if res.Defined != tt.defined || res.Pixels != tt.pixels {
				t.Errorf("got defined %v pixels %d, want %v %d", res.Defined, res.Pixels, tt.defined, tt.pixels)
			}
		})
	}
}

func TestLossEndpoint(t *testing.T) {
	r, _ := testRouter(t)
	w := post(r, "/api/v1/loss", LossRequest{File: "loss.fits", Separation: 1, Angle: 90})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}
	var res LossResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Total == nil || *res.Total != 0.5 || res.Local == nil || *res.Local != 0.5 {
		t.Errorf("got total %v local %v, want 0.5", res.Total, res.Local)
	}
	if res.TotalPercent != "50 percent" || res.LocalPercent != "50 percent" {
		t.Errorf("got %q %q", res.TotalPercent, res.LocalPercent)
	}

	if w := post(r, "/api/v1/loss", LossRequest{File: "loss.fits", Separation: 7, Angle: 90}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown location: got %d", w.Code)
	}
	if w := post(r, "/api/v1/loss", LossRequest{File: "../../etc/passwd", Separation: 1, Angle: 90}); w.Code != http.StatusNotFound {
		t.Errorf("path outside data folder: got %d", w.Code)
	}
}

func TestDataPath(t *testing.T) {
	if got := dataPath("/data", "../../etc/passwd"); got != filepath.FromSlash("/data/etc/passwd") {
		t.Errorf("got %q", got)
	}
}

func ptr(v float64) *float64 { return &v }
