package geo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"
)

// zoneFile is the static overlay format:
//
//	forest:    [[lon, lat], ...]
//	buffer:    [[lon, lat], ...]
//	community: [[lon, lat], ...]
//
// buffer and community may be omitted, in which case they are derived.
type zoneFile struct {
	Forest    [][2]float64 `yaml:"forest"`
	Buffer    [][2]float64 `yaml:"buffer"`
	Community [][2]float64 `yaml:"community"`
}

// LoadZonesYAML reads a static zone file.
func LoadZonesYAML(r io.Reader) (*Zones, error) {
	var f zoneFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("zones yaml: %w", err)
	}

	forest, err := ringFrom(f.Forest)
	if err != nil {
		return nil, fmt.Errorf("zones yaml: forest: %w", err)
	}
	if len(f.Buffer) == 0 && len(f.Community) == 0 {
		return DeriveZones(forest)
	}

	buffer, err := ringFrom(f.Buffer)
	if err != nil {
		return nil, fmt.Errorf("zones yaml: buffer: %w", err)
	}
	community, err := ringFrom(f.Community)
	if err != nil {
		return nil, fmt.Errorf("zones yaml: community: %w", err)
	}
	return &Zones{
		Forest:    forest,
		Buffer:    orb.Polygon{buffer},
		Community: orb.Polygon{community},
	}, nil
}

func ringFrom(coords [][2]float64) (orb.Ring, error) {
	ring := make(orb.Ring, 0, len(coords)+1)
	for _, c := range coords {
		ring = append(ring, orb.Point{c[0], c[1]})
	}
	return closeRing(ring)
}

// DefaultZones is the built-in overlay around the demo area. The demo's
// scenario positions fall in forest, buffer and community respectively.
func DefaultZones() *Zones {
	return &Zones{
		Forest:    rect(101.805, 12.866, 101.817, 12.878),
		Buffer:    orb.Polygon{rect(101.800, 12.861, 101.822, 12.882)},
		Community: orb.Polygon{rect(101.795, 12.856, 101.830, 12.890)},
	}
}

func rect(minLon, minLat, maxLon, maxLat float64) orb.Ring {
	return orb.Ring{
		{minLon, minLat},
		{maxLon, minLat},
		{maxLon, maxLat},
		{minLon, maxLat},
		{minLon, minLat},
	}
}

// Resolve picks the zone source: a KML boundary (file path or http(s) URL)
// wins over a YAML file, which wins over the built-in default.
func Resolve(ctx context.Context, kmlPath, yamlPath string) (*Zones, error) {
	switch {
	case kmlPath != "":
		rc, err := open(ctx, kmlPath)
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		forest, err := LoadBoundaryKML(rc)
		if err != nil {
			return nil, err
		}
		return DeriveZones(forest)

	case yamlPath != "":
		f, err := os.Open(yamlPath)
		if err != nil {
			return nil, fmt.Errorf("open zones file: %w", err)
		}
		defer f.Close()
		return LoadZonesYAML(f)

	default:
		return DefaultZones(), nil
	}
}

func open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("open boundary: %w", err)
		}
		return f, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("boundary request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("fetch boundary: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("fetch boundary: status %d", resp.StatusCode)
	}
	return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
