package main

import (
	"encoding/json"
	"fmt"

	"ElephantWatchAPI/internal/geo"
	"ElephantWatchAPI/internal/models"

	"github.com/spf13/cobra"
)

var (
	zonesKML  string
	zonesYAML string
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Inspect geofence zones",
	Long:  "zones resolves the forest boundary the same way the API does (KML, then YAML, then built-in) and derives the buffer and community rings.",
}

var zonesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the zones as a GeoJSON FeatureCollection",
	RunE: func(cmd *cobra.Command, args []string) error {
		zones, err := geo.Resolve(cmd.Context(), zonesKML, zonesYAML)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(zones.FeatureCollection())
	},
}

var (
	classifyLat float64
	classifyLng float64
)

var zonesClassifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Name the innermost zone containing a point",
	RunE: func(cmd *cobra.Command, args []string) error {
		zones, err := geo.Resolve(cmd.Context(), zonesKML, zonesYAML)
		if err != nil {
			return err
		}
		p := models.Position{Lat: classifyLat, Lng: classifyLng}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p, zones.Classify(p))
		return nil
	},
}

func init() {
	zonesCmd.PersistentFlags().StringVar(&zonesKML, "kml", "", "KML boundary file or http(s) URL")
	zonesCmd.PersistentFlags().StringVar(&zonesYAML, "yaml", "", "YAML zone file")

	zonesClassifyCmd.Flags().Float64Var(&classifyLat, "lat", 0, "Latitude in degrees")
	zonesClassifyCmd.Flags().Float64Var(&classifyLng, "lng", 0, "Longitude in degrees")
	zonesClassifyCmd.MarkFlagRequired("lat")
	zonesClassifyCmd.MarkFlagRequired("lng")

	zonesCmd.AddCommand(zonesExportCmd)
	zonesCmd.AddCommand(zonesClassifyCmd)
}
