package geo

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

var ErrNoCoordinates = errors.New("kml: no <coordinates> element found")

// LoadBoundaryKML reads the first <coordinates> element of a KML document
// and returns it as a closed ring. KML tuples are "lon,lat[,alt]".
func LoadBoundaryKML(r io.Reader) (orb.Ring, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, ErrNoCoordinates
		}
		if err != nil {
			return nil, fmt.Errorf("kml: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "coordinates" {
			continue
		}

		var raw string
		if err := dec.DecodeElement(&raw, &start); err != nil {
			return nil, fmt.Errorf("kml: read coordinates: %w", err)
		}
		return parseCoordinates(raw)
	}
}

func parseCoordinates(raw string) (orb.Ring, error) {
	fields := strings.Fields(raw)
	ring := make(orb.Ring, 0, len(fields)+1)
	for _, f := range fields {
		parts := strings.Split(f, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("kml: malformed tuple %q", f)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("kml: bad longitude in %q: %w", f, err)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("kml: bad latitude in %q: %w", f, err)
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	return closeRing(ring)
}

// closeRing appends the first vertex when the ring is open and rejects
// rings that cannot enclose an area.
func closeRing(ring orb.Ring) (orb.Ring, error) {
	if len(ring) < 3 {
		return nil, fmt.Errorf("ring needs at least 3 vertices, got %d", len(ring))
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	if len(ring) < 4 {
		return nil, fmt.Errorf("closed ring needs at least 4 points, got %d", len(ring))
	}
	return ring, nil
}
