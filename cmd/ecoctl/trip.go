package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"eco-rewards/internal/domain/trip"
	"eco-rewards/internal/infrastructure/verifier"
)

// traceFile 記録済みの測位列
type traceFile struct {
	UserID    string     `json:"user_id"`
	StepCount int        `json:"step_count"`
	Fixes     []traceFix `json:"fixes"`
}

type traceFix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     float64   `json:"speed"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// replayResult 再生結果
type replayResult struct {
	Request      trip.VerificationRequest `json:"request"`
	CarbonGrams  float64                  `json:"carbon_grams"`
	FixResults   map[trip.FixResult]int   `json:"fix_results"`
	Verification *trip.VerificationResult `json:"verification,omitempty"`
}

func newTripCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trip",
		Short: "Trip tracking utilities",
	}

	var verifierURL string
	var timeout time.Duration
	replay := &cobra.Command{
		Use:   "replay <trace.json>",
		Short: "Run a recorded fix stream through the tracker",
		Long: `Feeds every fix of a recorded trace through the trip tracker, advancing the
elapsed time by the whole seconds between fixes, and prints the verification
request that would be sent when the trip ends.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read trace: %w", err)
			}
			var tf traceFile
			if err := json.Unmarshal(data, &tf); err != nil {
				return fmt.Errorf("failed to parse trace: %w", err)
			}

			result := replayTrace(tf)

			if verifierURL != "" {
				client, err := verifier.NewTripClient(verifierURL, timeout)
				if err != nil {
					return err
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
				defer cancel()
				vr, err := client.VerifyTrip(ctx, &result.Request)
				if err != nil {
					return fmt.Errorf("verification failed: %w", err)
				}
				result.Verification = vr
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	replay.Flags().StringVar(&verifierURL, "verifier-url", "", "Send the request to this trip verifier")
	replay.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Verifier request timeout")

	cmd.AddCommand(replay)
	return cmd
}

// replayTrace 測位列を再生し、終了時の検証リクエストを返す
func replayTrace(tf traceFile) replayResult {
	tracker := trip.NewTracker()
	results := make(map[trip.FixResult]int)

	var prev time.Time
	for _, f := range tf.Fixes {
		if !prev.IsZero() && f.Timestamp.After(prev) {
			for i := int64(0); i < int64(f.Timestamp.Sub(prev)/time.Second); i++ {
				tracker.Tick()
			}
		}
		if !f.Timestamp.IsZero() {
			prev = f.Timestamp
		}

		results[tracker.AcceptFix(trip.Sample{
			Latitude:  f.Latitude,
			Longitude: f.Longitude,
			Speed:     f.Speed,
			Accuracy:  f.Accuracy,
			Timestamp: f.Timestamp,
		})]++
	}

	state := tracker.Snapshot()
	req := tracker.End()
	req.UserID = tf.UserID
	req.StepCount = tf.StepCount
	return replayResult{
		Request:     req,
		CarbonGrams: state.CarbonGrams,
		FixResults:  results,
	}
}
