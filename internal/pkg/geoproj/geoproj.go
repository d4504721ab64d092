// Package geoproj converts between WGS84 geographic coordinates and the
// web-mercator plane used for all metric geometry math.
package geoproj

import (
	"fmt"
	"sync"

	"github.com/ctessum/geom/proj"
)

// webMercator is the spherical-mercator spatial reference used by web maps
// (EPSG:3857); distances near the equator are in meters.
const webMercator = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"

const longLat = "+proj=longlat"

var (
	once     sync.Once
	forward  proj.Transformer
	inverse  proj.Transformer
	setupErr error
)

func setup() {
	geoSR, err := proj.Parse(longLat)
	if err != nil {
		setupErr = fmt.Errorf("parse longlat: %w", err)
		return
	}
	mercSR, err := proj.Parse(webMercator)
	if err != nil {
		setupErr = fmt.Errorf("parse web mercator: %w", err)
		return
	}
	forward, err = geoSR.NewTransform(mercSR)
	if err != nil {
		setupErr = fmt.Errorf("longlat->mercator transform: %w", err)
		return
	}
	inverse, err = mercSR.NewTransform(geoSR)
	if err != nil {
		setupErr = fmt.Errorf("mercator->longlat transform: %w", err)
	}
}

// Forward returns the longlat → web-mercator transformer, suitable for
// geom.Geom.Transform.
func Forward() (proj.Transformer, error) {
	once.Do(setup)
	return forward, setupErr
}

// Inverse returns the web-mercator → longlat transformer.
func Inverse() (proj.Transformer, error) {
	once.Do(setup)
	return inverse, setupErr
}

// ToMercator projects a geographic coordinate to mercator meters.
func ToMercator(lon, lat float64) (x, y float64, err error) {
	t, err := Forward()
	if err != nil {
		return 0, 0, err
	}
	return t(lon, lat)
}

// FromMercator unprojects mercator meters back to geographic degrees.
func FromMercator(x, y float64) (lon, lat float64, err error) {
	t, err := Inverse()
	if err != nil {
		return 0, 0, err
	}
	return t(x, y)
}
