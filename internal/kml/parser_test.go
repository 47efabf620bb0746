package kml

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Folder>
      <name>Acquisitions</name>
      <Placemark>
        <TimeSpan>
          <begin>2026-08-21T05:30:00Z</begin>
          <end>2026-08-21T05:31:00Z</end>
        </TimeSpan>
        <ExtendedData>
          <Data name="Mode"><value>IW</value></Data>
          <Data name="OrbitAbsolute"><value>51234</value></Data>
          <Data name="OrbitRelative"><value>64</value></Data>
        </ExtendedData>
        <Polygon>
          <outerBoundaryIs>
            <LinearRing>
              <coordinates>
                10.0,45.0,0 12.0,45.0,0 12.0,47.0,0 10.0,47.0,0 10.0,45.0,0
              </coordinates>
            </LinearRing>
          </outerBoundaryIs>
        </Polygon>
      </Placemark>
      <Folder>
        <Placemark>
          <TimeSpan>
            <begin>2026-08-22T06:00:00</begin>
            <end>2026-08-22T06:01:00</end>
          </TimeSpan>
          <ExtendedData>
            <Data name="Mode"><value>EW</value></Data>
            <Data name="OrbitAbsolute"><value>51250</value></Data>
            <Data name="OrbitRelative"><value>80</value></Data>
          </ExtendedData>
          <MultiGeometry>
            <Polygon>
              <outerBoundaryIs>
                <LinearRing>
                  <coordinates>0,0 1,0 1,1</coordinates>
                </LinearRing>
              </outerBoundaryIs>
            </Polygon>
          </MultiGeometry>
        </Placemark>
      </Folder>
      <Placemark>
        <TimeSpan>
          <begin>not-a-time</begin>
          <end>2026-08-23T00:00:00Z</end>
        </TimeSpan>
        <ExtendedData>
          <Data name="OrbitAbsolute"><value>1</value></Data>
          <Data name="OrbitRelative"><value>2</value></Data>
        </ExtendedData>
      </Placemark>
    </Folder>
  </Document>
</kml>`

func TestParse(t *testing.T) {
	col, err := Parse([]byte(sampleKML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// The third placemark has a bad timestamp and must be skipped, not fail
	// the whole file.
	if len(col.Acquisitions) != 2 {
		t.Fatalf("Parse() kept %d acquisitions, want 2", len(col.Acquisitions))
	}

	a := col.Acquisitions[0]
	if a.Mode != "IW" || a.OrbitAbsolute != 51234 || a.OrbitRelative != 64 {
		t.Errorf("first acquisition = %+v", a)
	}
	wantBegin := time.Date(2026, 8, 21, 5, 30, 0, 0, time.UTC)
	if !a.BeginDate.Equal(wantBegin) {
		t.Errorf("BeginDate = %v, want %v", a.BeginDate, wantBegin)
	}
	if a.Footprint == nil {
		t.Fatal("first acquisition has no footprint")
	}
	rings, err := a.Footprint.Polygon()
	if err != nil {
		t.Fatalf("Polygon() error = %v", err)
	}
	if len(rings) != 1 || len(rings[0]) != 5 {
		t.Errorf("footprint ring has %d vertices, want 5", len(rings[0]))
	}

	// The nested placemark uses MultiGeometry, a time without zone suffix
	// and an unclosed ring.
	b := col.Acquisitions[1]
	if b.Mode != "EW" || b.OrbitRelative != 80 {
		t.Errorf("second acquisition = %+v", b)
	}
	if b.BeginDate.Location() != time.UTC {
		t.Error("zoneless timestamps should be interpreted as UTC")
	}
	rings, err = b.Footprint.Polygon()
	if err != nil {
		t.Fatalf("Polygon() error = %v", err)
	}
	if len(rings[0]) != 4 {
		t.Errorf("open ring not closed: %d vertices, want 4", len(rings[0]))
	}
	first, last := rings[0][0], rings[0][len(rings[0])-1]
	if first[0] != last[0] || first[1] != last[1] {
		t.Error("ring is not closed")
	}
}

func TestParseInvalidXML(t *testing.T) {
	if _, err := Parse([]byte("<kml><unclosed")); err == nil {
		t.Error("Parse() on broken XML should fail")
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.kml")
	if err := os.WriteFile(path, []byte(sampleKML), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	col, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(col.Acquisitions) != 2 {
		t.Errorf("ParseFile() kept %d acquisitions, want 2", len(col.Acquisitions))
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := ParseFile(filepath.Join(t.TempDir(), "absent.kml")); err == nil {
		t.Error("ParseFile() on a missing file should fail")
	}
}

func TestParseFootprintErrors(t *testing.T) {
	tests := []struct {
		name   string
		coords string
	}{
		{"empty", ""},
		{"too few points", "0,0 1,1"},
		{"bad tuple", "0,0 1,1 nope"},
		{"bad number", "0,0 1,1 x,2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseFootprint(tt.coords); err == nil {
				t.Errorf("parseFootprint(%q) should fail", tt.coords)
			}
		})
	}
}
