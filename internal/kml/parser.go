// Package kml parses acquisition-plan KML manifests into plan collections.
package kml

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/geowatch/nextpass/internal/plan"
	"github.com/geowatch/nextpass/pkg/geo"
)

type kmlRoot struct {
	XMLName  xml.Name `xml:"kml"`
	Document document `xml:"Document"`
}

type document struct {
	Folders    []folder    `xml:"Folder"`
	Placemarks []placemark `xml:"Placemark"`
}

// folder nests arbitrarily deep in acquisition-plan files.
type folder struct {
	Folders    []folder    `xml:"Folder"`
	Placemarks []placemark `xml:"Placemark"`
}

type placemark struct {
	Begin        string       `xml:"TimeSpan>begin"`
	End          string       `xml:"TimeSpan>end"`
	ExtendedData extendedData `xml:"ExtendedData"`
	Coordinates  string       `xml:"Polygon>outerBoundaryIs>LinearRing>coordinates"`
	MultiCoords  string       `xml:"MultiGeometry>Polygon>outerBoundaryIs>LinearRing>coordinates"`
}

type extendedData struct {
	Data []dataField `xml:"Data"`
}

type dataField struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

// ParseFile parses one KML manifest into a collection. Placemarks that
// fail to parse are skipped so a single bad record does not lose the file.
func ParseFile(path string) (*plan.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read KML file: %w", err)
	}
	return Parse(data)
}

// Parse parses raw KML bytes into a collection.
func Parse(data []byte) (*plan.Collection, error) {
	var root kmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse KML: %w", err)
	}

	col := &plan.Collection{}
	appendPlacemarks(col, root.Document.Placemarks)
	walkFolders(col, root.Document.Folders)
	return col, nil
}

func walkFolders(col *plan.Collection, folders []folder) {
	for _, f := range folders {
		appendPlacemarks(col, f.Placemarks)
		walkFolders(col, f.Folders)
	}
}

func appendPlacemarks(col *plan.Collection, marks []placemark) {
	for _, pm := range marks {
		a, err := parsePlacemark(pm)
		if err != nil {
			continue
		}
		col.Acquisitions = append(col.Acquisitions, a)
	}
}

func parsePlacemark(pm placemark) (plan.Acquisition, error) {
	var a plan.Acquisition

	begin, err := parseTime(pm.Begin)
	if err != nil {
		return a, fmt.Errorf("invalid begin time: %w", err)
	}
	end, err := parseTime(pm.End)
	if err != nil {
		return a, fmt.Errorf("invalid end time: %w", err)
	}

	fields := make(map[string]string, len(pm.ExtendedData.Data))
	for _, d := range pm.ExtendedData.Data {
		fields[d.Name] = strings.TrimSpace(d.Value)
	}

	orbitAbs, err := strconv.Atoi(fields["OrbitAbsolute"])
	if err != nil {
		return a, fmt.Errorf("invalid OrbitAbsolute: %w", err)
	}
	orbitRel, err := strconv.Atoi(fields["OrbitRelative"])
	if err != nil {
		return a, fmt.Errorf("invalid OrbitRelative: %w", err)
	}

	coords := pm.Coordinates
	if strings.TrimSpace(coords) == "" {
		coords = pm.MultiCoords
	}
	footprint, err := parseFootprint(coords)
	if err != nil {
		return a, err
	}

	return plan.Acquisition{
		BeginDate:     begin,
		EndDate:       end,
		Mode:          fields["Mode"],
		OrbitAbsolute: orbitAbs,
		OrbitRelative: orbitRel,
		Footprint:     footprint,
	}, nil
}

// parseFootprint converts a KML coordinate string ("lon,lat[,alt] ..." per
// vertex) into a polygon geometry.
func parseFootprint(coords string) (*geo.Geometry, error) {
	fields := strings.Fields(strings.TrimSpace(coords))
	if len(fields) < 3 {
		return nil, fmt.Errorf("footprint has too few coordinates")
	}

	ring := make([][]float64, 0, len(fields)+1)
	for _, f := range fields {
		parts := strings.Split(f, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid coordinate tuple: %s", f)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude %q: %w", parts[0], err)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude %q: %w", parts[1], err)
		}
		ring = append(ring, []float64{lon, lat})
	}

	// Close the ring if the source left it open.
	first, last := ring[0], ring[len(ring)-1]
	if first[0] != last[0] || first[1] != last[1] {
		ring = append(ring, []float64{first[0], first[1]})
	}

	return geo.NewPolygon([][][]float64{ring})
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
