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
	"fmt"
	"math"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/contrib/static"
	"github.com/gin-gonic/gin"

	"github.com/hoxca/sensloss/internal/aperture"
	"github.com/hoxca/sensloss/internal/companion"
	"github.com/hoxca/sensloss/internal/report"
)

// Parameters for the HTTP service
type ServeParams struct {
	Port int    `yaml:"port"`
	Dir  string `yaml:"dir"` // data folder; FITS files in requests are relative to it, and it is served statically
}

func DefaultServeParams() ServeParams {
	return ServeParams{Port: 8080, Dir: "."}
}

// Print parameters for the HTTP service
func (p *ServeParams) String() string {
	return fmt.Sprintf("port %d dir %s", p.Port, p.Dir)
}

// Request for a single aperture statistic
type ApertureRequest struct {
	File      string  `json:"file" binding:"required"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Kind      string  `json:"kind"`
	Inner     float64 `json:"inner"`
	Outer     float64 `json:"outer"`
	Bounds    string  `json:"bounds"`
	Statistic string  `json:"statistic"`
}

// Aperture statistic. JSON has no NaN, so an undefined statistic is null with defined false.
type ApertureResponse struct {
	Value   *float64 `json:"value"`
	Defined bool     `json:"defined"`
	Pixels  int      `json:"pixels"`
}

// Request for total and local loss of a magnitude loss image
type LossRequest struct {
	File       string  `json:"file" binding:"required"`
	Separation float64 `json:"separation"`
	Angle      float64 `json:"angle"`
}

type LossResponse struct {
	Total        *float64 `json:"total"`
	Local        *float64 `json:"local"`
	TotalPercent string   `json:"totalPercent"`
	LocalPercent string   `json:"localPercent"`
}

// Serve static data and API endpoints via HTTP
func CmdServe(sciP *ScienceParams, lossP *LossParams, p *ServeParams) error {
	r, err := NewRouter(sciP, lossP, p)
	if err != nil {
		return err
	}
	LogPrintf("Serving %s on port %d\n", p.Dir, p.Port)
	return r.Run(fmt.Sprintf(":%d", p.Port)) // listen and serve on 0.0.0.0:port (for windows "localhost:port")
}

// Set up routes for the API and static files
func NewRouter(sciP *ScienceParams, lossP *LossParams, p *ServeParams) (*gin.Engine, error) {
	table, err := lossP.LoadTable()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// Serve data folder, e.g. for previews
	r.Use(static.Serve("/", static.LocalFile(p.Dir, true)))

	r.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	r.POST("/api/v1/aperture", func(c *gin.Context) {
		handleAperture(c, p)
	})
	r.POST("/api/v1/loss", func(c *gin.Context) {
		handleLoss(c, table, sciP, p)
	})
	return r, nil
}

func handleAperture(c *gin.Context, p *ServeParams) {
	var req ApertureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sel, st, err := req.selector()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	_, img, err := LoadStack(0, dataPath(p.Dir, req.File))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	m, err := aperture.SelectMask(img.Height, img.Width, aperture.Center{X: req.X, Y: req.Y}, sel)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	v, err := aperture.Aggregate(img, m, st)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ApertureResponse{Value: jsonFloat(v), Defined: !math.IsNaN(v), Pixels: m.Count()})
}

func handleLoss(c *gin.Context, table *companion.Table, sciP *ScienceParams, p *ServeParams) {
	var req LossRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	center, err := table.Lookup(req.Separation, req.Angle)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := MeasureLoss(0, dataPath(p.Dir, req.File), center, sciP)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, LossResponse{
		Total:        jsonFloat(res.Total),
		Local:        jsonFloat(res.Local),
		TotalPercent: percentOrEmpty(res.Total),
		LocalPercent: percentOrEmpty(res.Local),
	})
}

// Parses selector and statistic. Defaults are a closed disk and the standard deviation.
func (req *ApertureRequest) selector() (aperture.Selector, aperture.Statistic, error) {
	sel := aperture.Selector{Inner: req.Inner, Outer: req.Outer}
	var err error
	if req.Kind != "" {
		if sel.Kind, err = aperture.ParseKind(req.Kind); err != nil {
			return sel, 0, err
		}
	}
	if req.Bounds != "" {
		if sel.Bounds, err = aperture.ParseBounds(req.Bounds); err != nil {
			return sel, 0, err
		}
	}
	st := aperture.StatStdDev
	if req.Statistic != "" {
		if st, err = aperture.ParseStatistic(req.Statistic); err != nil {
			return sel, 0, err
		}
	}
	return sel, st, sel.Validate()
}

// Resolves a request path inside the data folder
func dataPath(dir, file string) string {
	return filepath.Join(dir, filepath.Clean("/"+file))
}

func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func percentOrEmpty(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return report.Percent(v)
}
