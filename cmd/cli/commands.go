package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

var (
	roundFlag     int
	playerIDFlag  string
	courtFlag     int
	slotFlag      int
	seasonFlag    string
	maxRoundsFlag int
)

func init() {
	arrangeCmd.Flags().IntVar(&roundFlag, "round", 1, "The round number to arrange")
	resetCmd.Flags().IntVar(&roundFlag, "round", 1, "The round number to reset")

	checkinCmd.Flags().StringVar(&playerIDFlag, "player", "", "The player ID to check in")
	checkinCmd.Flags().IntVar(&maxRoundsFlag, "max-rounds", 0, "Cap on rounds for this player (0 = no cap)")
	checkoutCmd.Flags().StringVar(&playerIDFlag, "player", "", "The player ID to check out")

	placeCmd.Flags().IntVar(&roundFlag, "round", 1, "The round number")
	placeCmd.Flags().StringVar(&playerIDFlag, "player", "", "The player ID to place")
	placeCmd.Flags().IntVar(&courtFlag, "court", 1, "The court number")
	placeCmd.Flags().IntVar(&slotFlag, "slot", 0, "The slot on the court (0-3)")

	benchCmd.Flags().IntVar(&roundFlag, "round", 1, "The round number")
	benchCmd.Flags().StringVar(&playerIDFlag, "player", "", "The player ID to bench")

	snapshotsCmd.Flags().StringVar(&seasonFlag, "season", "", "Filter snapshots by season, e.g. 2025-2026")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(endCmd)
	rootCmd.AddCommand(checkinCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(checkinsCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(arrangeCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(placeCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List the players in the club roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/players")
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start (or fetch) the active training session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/session/start")
	},
}

var endCmd = &cobra.Command{
	Use:   "end",
	Short: "End the active training session and freeze its statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/session/end")
	},
}

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Check a player in to the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if playerIDFlag == "" {
			return fmt.Errorf("--player is required")
		}
		endpoint := "/checkins/add?playerID=" + url.QueryEscape(playerIDFlag)
		if maxRoundsFlag > 0 {
			return performPostRequestWithBody(endpoint, fmt.Sprintf(`{"max_rounds":%d}`, maxRoundsFlag))
		}
		return performPostRequest(endpoint)
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Remove a player's check-in from the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if playerIDFlag == "" {
			return fmt.Errorf("--player is required")
		}
		return performPostRequest("/checkins/remove?playerID=" + url.QueryEscape(playerIDFlag))
	},
}

var checkinsCmd = &cobra.Command{
	Use:   "checkins",
	Short: "List the check-ins of the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/checkins")
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List the matches of the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/matches")
	},
}

var arrangeCmd = &cobra.Command{
	Use:   "arrange",
	Short: "Arrange a round of matches for the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest(fmt.Sprintf("/matches/arrange?round=%d", roundFlag))
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove all matches of a round",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest(fmt.Sprintf("/matches/reset?round=%d", roundFlag))
	},
}

var placeCmd = &cobra.Command{
	Use:   "place",
	Short: "Place a player on a court slot",
	RunE: func(cmd *cobra.Command, args []string) error {
		if playerIDFlag == "" {
			return fmt.Errorf("--player is required")
		}
		return performPostRequest(fmt.Sprintf("/matches/place?round=%d&playerID=%s&court=%d&slot=%d",
			roundFlag, url.QueryEscape(playerIDFlag), courtFlag, slotFlag))
	},
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Remove a player from their match in a round",
	RunE: func(cmd *cobra.Command, args []string) error {
		if playerIDFlag == "" {
			return fmt.Errorf("--player is required")
		}
		return performPostRequest(fmt.Sprintf("/matches/bench?round=%d&playerID=%s",
			roundFlag, url.QueryEscape(playerIDFlag)))
	},
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List the statistics snapshots of ended sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := "/snapshots"
		if seasonFlag != "" {
			endpoint += "?season=" + url.QueryEscape(seasonFlag)
		}
		return performGetRequest(endpoint)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

func performGetRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func performPostRequest(endpoint string) error {
	return performPostRequestWithBody(endpoint, "")
}

func performPostRequestWithBody(endpoint, body string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
