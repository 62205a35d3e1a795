package poi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const kmlFivePlacemarks = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <name>Town Hall</name>
      <description>Starting point</description>
      <Point><coordinates>37.617635,55.755814,0</coordinates></Point>
    </Placemark>
    <Placemark>
      <name>Broken North</name>
      <Point><coordinates>37.62,95.0,0</coordinates></Point>
    </Placemark>
    <Placemark>
      <name>Old Bridge</name>
      <Point><coordinates>37.618,55.751</coordinates></Point>
    </Placemark>
    <Placemark>
      <name>Broken East</name>
      <Point><coordinates>200.0,55.75,0</coordinates></Point>
    </Placemark>
    <Placemark>
      <name>Cathedral</name>
      <Point><coordinates>37.622,55.760,0</coordinates></Point>
    </Placemark>
  </Document>
</kml>`

const gpxTwoWaypoints = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test">
  <wpt lat="55.755814" lon="37.617635">
    <name>Town Hall</name>
    <desc>Starting point</desc>
  </wpt>
  <wpt lat="55.751" lon="37.618">
    <desc>No name here</desc>
  </wpt>
</gpx>`

func TestParseRouteFileKML(t *testing.T) {
	logger := zap.NewNop()

	points, err := ParseRouteFile("route.kml", []byte(kmlFivePlacemarks), logger)
	require.NoError(t, err)

	// two placemarks have out-of-range coordinates and are skipped
	require.Len(t, points, 3)

	assert.Equal(t, "Town Hall", points[0].Name)
	assert.Equal(t, "Starting point", points[0].Description)
	assert.InDelta(t, 55.755814, points[0].Latitude, 1e-9)
	assert.InDelta(t, 37.617635, points[0].Longitude, 1e-9)

	assert.Equal(t, "Old Bridge", points[1].Name)
	assert.Equal(t, "Cathedral", points[2].Name)

	// order indexes keep document positions, gaps where invalid points sat
	assert.Equal(t, 1, points[0].DocIndex)
	assert.Equal(t, 3, points[1].DocIndex)
	assert.Equal(t, 5, points[2].DocIndex)
}

func TestParseRouteFileGPX(t *testing.T) {
	logger := zap.NewNop()

	points, err := ParseRouteFile("track.gpx", []byte(gpxTwoWaypoints), logger)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "Town Hall", points[0].Name)
	assert.InDelta(t, 55.755814, points[0].Latitude, 1e-9)
	assert.InDelta(t, 37.617635, points[0].Longitude, 1e-9)

	// unnamed waypoints get a positional fallback name
	assert.Equal(t, "Waypoint 2", points[1].Name)
	assert.Equal(t, "No name here", points[1].Description)
}

func TestParseRouteFileRejections(t *testing.T) {
	logger := zap.NewNop()

	t.Run("WrongExtension", func(t *testing.T) {
		_, err := ParseRouteFile("route.csv", []byte("<kml></kml>"), logger)
		assert.Error(t, err)
	})

	t.Run("TooLarge", func(t *testing.T) {
		_, err := ParseRouteFile("route.kml", make([]byte, maxRouteFileSize+1), logger)
		assert.Error(t, err)
	})

	t.Run("NotXML", func(t *testing.T) {
		_, err := ParseRouteFile("route.kml", []byte("just some text"), logger)
		assert.Error(t, err)
	})

	t.Run("UnsupportedRoot", func(t *testing.T) {
		_, err := ParseRouteFile("route.xml", []byte(`<?xml version="1.0"?><svg></svg>`), logger)
		assert.Error(t, err)
	})
}

func TestBuildRoutePOIs(t *testing.T) {
	points := []routePoint{
		{Name: "A", DocIndex: 1},
		{Name: "B", DocIndex: 3},
		{Name: "C", DocIndex: 5},
		{Name: "D", DocIndex: 6},
	}

	pois := buildRoutePOIs(points)
	require.Len(t, pois, 4)

	// the first three created points are free, order indexes follow doc order
	assert.True(t, pois[0].IsFree)
	assert.True(t, pois[1].IsFree)
	assert.True(t, pois[2].IsFree)
	assert.False(t, pois[3].IsFree)
	assert.Equal(t, []int{1, 3, 5, 6}, []int{pois[0].OrderIndex, pois[1].OrderIndex, pois[2].OrderIndex, pois[3].OrderIndex})
}

func TestBuildRoutePOIsFewerThanCutoff(t *testing.T) {
	pois := buildRoutePOIs([]routePoint{{Name: "A", DocIndex: 1}, {Name: "B", DocIndex: 2}})
	require.Len(t, pois, 2)
	assert.True(t, pois[0].IsFree)
	assert.True(t, pois[1].IsFree)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Town Hall", normalizeName("TOWN HALL"))
	assert.Equal(t, "Town Hall", normalizeName("town hall"))
	assert.Equal(t, "McDonald Bridge", normalizeName("McDonald Bridge"))
	assert.Equal(t, "", normalizeName("   "))
}
