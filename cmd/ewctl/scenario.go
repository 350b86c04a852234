package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ElephantWatchAPI/internal/models"

	"github.com/spf13/cobra"
)

var (
	scenarioServer string
	scenarioToken  string
	scenarioMode   string
)

// scenarioAliases lets operators type a short name instead of the full mode label.
var scenarioAliases = map[string]models.ScenarioMode{
	"normal":   models.ModeNormal,
	"breach":   models.ModeBufferBreach,
	"critical": models.ModeCriticalThreat,
	"health":   models.ModeHealthCheck,
}

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Trigger a scenario on a running server",
	Long:  "scenario posts to /api/scenario and prints the resulting threat level and status.",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, ok := scenarioAliases[strings.ToLower(scenarioMode)]
		if !ok {
			mode = models.ScenarioMode(scenarioMode)
		}

		body, err := json.Marshal(models.TriggerScenarioRequest{Mode: mode})
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
			strings.TrimRight(scenarioServer, "/")+"/api/scenario", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if scenarioToken != "" {
			req.Header.Set("Authorization", "Bearer "+scenarioToken)
		}

		resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
		}

		var snap models.SimulationSnapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", snap.SimMode, snap.ThreatLevel, snap.StatusBar, snap.ElephantPos)
		return nil
	},
}

func init() {
	scenarioCmd.Flags().StringVar(&scenarioServer, "server", "http://localhost:8080", "API base URL")
	scenarioCmd.Flags().StringVar(&scenarioToken, "token", "", "Operator bearer token")
	scenarioCmd.Flags().StringVar(&scenarioMode, "mode", "normal", "normal, breach, critical, health or a full mode label")
}
