package poi

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tourika/audiotour/internal/app/models"
)

// maxRouteFileSize caps uploaded route files at 10 MB.
const maxRouteFileSize = 10 * 1024 * 1024

// freePreviewCount marks how many ingested points start out free. The flag
// is only an initial value; editors can flip it per POI afterwards.
const freePreviewCount = 3

type kmlPlacemark struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Point       struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"Point"`
}

type kmlFile struct {
	Document struct {
		Placemarks []kmlPlacemark `xml:"Placemark"`
	} `xml:"Document"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type gpxWaypoint struct {
	Lat  string `xml:"lat,attr"`
	Lon  string `xml:"lon,attr"`
	Name string `xml:"name"`
	Desc string `xml:"desc"`
}

type gpxFile struct {
	Waypoints []gpxWaypoint `xml:"wpt"`
}

// routePoint is a parsed route entry before it becomes a POI. DocIndex is
// the 1-based position in the source document, skipped entries included, so
// order indexes stay strictly increasing but may have gaps.
type routePoint struct {
	Name        string
	Description string
	Latitude    float64
	Longitude   float64
	DocIndex    int
}

var titleCaser = cases.Title(language.English)

// normalizeName trims a point name and fixes the all-caps or all-lowercase
// labels common in exported route files. Mixed-case names pass through
// untouched.
func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	if name == strings.ToUpper(name) || name == strings.ToLower(name) {
		return titleCaser.String(strings.ToLower(name))
	}
	return name
}

// ParseRouteFile validates and parses a KML or GPX upload into route points
// in document order. File-level violations (extension, size, not XML,
// unknown root) are fatal; points with out-of-range coordinates are skipped.
func ParseRouteFile(filename string, data []byte, logger *zap.Logger) ([]routePoint, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".kml" && ext != ".gpx" && ext != ".xml" {
		return nil, fmt.Errorf("%w: invalid file type, only KML and GPX files are supported", models.ErrInvalidFile)
	}

	if len(data) > maxRouteFileSize {
		return nil, fmt.Errorf("%w: file too large, maximum size is 10MB", models.ErrInvalidFile)
	}

	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "<?xml") && !strings.HasPrefix(trimmed, "<") {
		return nil, fmt.Errorf("%w: invalid XML file format", models.ErrInvalidFile)
	}

	root, err := rootElement(data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid XML file format", models.ErrInvalidFile)
	}

	switch root {
	case "kml":
		var doc kmlFile
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: malformed KML", models.ErrInvalidFile)
		}
		placemarks := doc.Document.Placemarks
		if len(placemarks) == 0 {
			placemarks = doc.Placemarks
		}
		return parsePlacemarks(placemarks, logger), nil
	case "gpx":
		var doc gpxFile
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: malformed GPX", models.ErrInvalidFile)
		}
		return parseWaypoints(doc.Waypoints, logger), nil
	default:
		return nil, fmt.Errorf("%w: unsupported file format, only KML and GPX are supported", models.ErrInvalidFile)
	}
}

func rootElement(data []byte) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func parsePlacemarks(placemarks []kmlPlacemark, logger *zap.Logger) []routePoint {
	points := []routePoint{}
	for i, pm := range placemarks {
		name := normalizeName(pm.Name)
		if name == "" {
			name = fmt.Sprintf("Point %d", i+1)
		}

		// KML coordinates are "lng,lat[,alt]"
		coords := strings.TrimSpace(pm.Point.Coordinates)
		if coords == "" {
			continue
		}
		parts := strings.Split(coords, ",")
		if len(parts) < 2 {
			logger.Warn("Invalid coordinates for placemark", zap.String("name", name))
			continue
		}
		lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errLng != nil || errLat != nil || !validCoordinates(lat, lng) {
			logger.Warn("Invalid coordinates for placemark",
				zap.String("name", name),
				zap.Float64("lat", lat),
				zap.Float64("lng", lng),
			)
			continue
		}

		points = append(points, routePoint{
			Name:        name,
			Description: strings.TrimSpace(pm.Description),
			Latitude:    lat,
			Longitude:   lng,
			DocIndex:    i + 1,
		})
	}
	return points
}

func parseWaypoints(waypoints []gpxWaypoint, logger *zap.Logger) []routePoint {
	points := []routePoint{}
	for i, wp := range waypoints {
		name := normalizeName(wp.Name)
		if name == "" {
			name = fmt.Sprintf("Waypoint %d", i+1)
		}

		lat, errLat := strconv.ParseFloat(strings.TrimSpace(wp.Lat), 64)
		lng, errLng := strconv.ParseFloat(strings.TrimSpace(wp.Lon), 64)
		if errLat != nil || errLng != nil || !validCoordinates(lat, lng) {
			logger.Warn("Invalid coordinates for waypoint",
				zap.String("name", name),
				zap.String("lat", wp.Lat),
				zap.String("lon", wp.Lon),
			)
			continue
		}

		points = append(points, routePoint{
			Name:        name,
			Description: strings.TrimSpace(wp.Desc),
			Latitude:    lat,
			Longitude:   lng,
			DocIndex:    i + 1,
		})
	}
	return points
}

// buildRoutePOIs turns parsed points into POIs: order_index keeps the
// document position and the first freePreviewCount created points are
// flagged free.
func buildRoutePOIs(points []routePoint) []models.POI {
	pois := make([]models.POI, 0, len(points))
	for i, pt := range points {
		pois = append(pois, models.POI{
			Title:       pt.Name,
			Description: pt.Description,
			Latitude:    pt.Latitude,
			Longitude:   pt.Longitude,
			IsFree:      i < freePreviewCount,
			OrderIndex:  pt.DocIndex,
		})
	}
	return pois
}
