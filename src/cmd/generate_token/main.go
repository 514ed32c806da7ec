package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hedgeai/marketdata/src/eventservices"
	"github.com/hedgeai/marketdata/src/utils"
)

type RunArgs struct {
	RequestToken string
}

type RunResult struct {
	UserID      string
	AccessToken string
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/generate_token/main.go",
	Short: "Exchange a Kite Connect request token for a daily access token",
	Run: func(cmd *cobra.Command, args []string) {
		requestToken, err := cmd.Flags().GetString("request-token")
		if err != nil {
			log.Fatalf("error getting request-token: %v", err)
		}

		result, err := Run(RunArgs{RequestToken: requestToken})
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		fmt.Printf("\naccess token for %s:\n\n  %s\n\n", result.UserID, result.AccessToken)
		fmt.Printf("load it into a running server with:\n\n")
		fmt.Printf("  curl -X POST http://localhost:3000/admin/set_token \\\n")
		fmt.Printf("    -H 'X-ADMIN-KEY: $ADMIN_KEY' -H 'Content-Type: application/json' \\\n")
		fmt.Printf("    -d '{\"access_token\": \"%s\"}'\n", result.AccessToken)
	},
}

func Run(args RunArgs) (RunResult, error) {
	if err := utils.InitEnvironmentVariables(); err != nil {
		log.Warnf("%v, continuing with process environment", err)
	}

	apiKey, err := utils.GetEnv("KITE_API_KEY")
	if err != nil {
		return RunResult{}, err
	}

	apiSecret, err := utils.GetEnv("KITE_API_SECRET")
	if err != nil {
		return RunResult{}, err
	}

	baseURL := os.Getenv("KITE_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.kite.trade"
	}

	requestToken := strings.TrimSpace(args.RequestToken)
	if requestToken == "" {
		fmt.Printf("1. open the login url in a browser:\n\n   %s\n\n", eventservices.KiteLoginURL(apiKey))
		fmt.Printf("2. log in, then copy the request_token query parameter off the redirect url\n\n")
		fmt.Printf("Enter the request token: ")

		if err := utils.ReadLineFromStdin(&requestToken); err != nil {
			return RunResult{}, fmt.Errorf("failed to read request token: %v", err)
		}

		requestToken = strings.TrimSpace(requestToken)
	}

	if requestToken == "" {
		return RunResult{}, fmt.Errorf("request token is empty")
	}

	session, err := eventservices.GenerateKiteSession(context.Background(), baseURL, apiKey, apiSecret, requestToken)
	if err != nil {
		return RunResult{}, err
	}

	return RunResult{
		UserID:      session.Data.UserID,
		AccessToken: session.Data.AccessToken,
	}, nil
}

func main() {
	runCmd.PersistentFlags().String("request-token", "", "The request token from the login redirect. Prompts when omitted.")

	runCmd.Execute()
}
