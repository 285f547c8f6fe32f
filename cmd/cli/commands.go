package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(tournamentsCmd)
	rootCmd.AddCommand(teamsCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var tournamentsCmd = &cobra.Command{
	Use:   "tournaments",
	Short: "List all tournaments",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/tournaments")
	},
}

var teamsCmd = &cobra.Command{
	Use:   "teams <tournamentID>",
	Short: "List the teams in a tournament",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/teams?tournamentID=" + url.QueryEscape(args[0]))
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard <tournamentID>",
	Short: "Show the ranked standings for a tournament",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/leaderboard?tournamentID=" + url.QueryEscape(args[0]))
	},
}

var recordsCmd = &cobra.Command{
	Use:   "records <teamID>",
	Short: "List the match records for a team",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/records?teamID=" + url.QueryEscape(args[0]))
	},
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "List the records flagged for manual review",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/review")
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <teamID> <screenshotURL>",
	Short: "Submit a result screenshot for extraction and scoring",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/analyze", map[string]string{
			"teamID":        args[0],
			"screenshotURL": args[1],
		})
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <teamID> <screenshotURL>...",
	Short: "Submit a batch of result screenshots",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/uploads", map[string]any{
			"teamID":         args[0],
			"screenshotURLs": args[1:],
		})
	},
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute <teamID>",
	Short: "Recompute a team's aggregate totals from its records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/recompute?teamID="+url.QueryEscape(args[0]), nil)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <teamID>",
	Short: "Delete a team's records and zero its totals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/teams/reset?teamID="+url.QueryEscape(args[0]), nil)
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

func performPostRequest(endpoint string, payload any) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest("POST", url, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}

	resp, err := http.DefaultClient.Do(req)
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
