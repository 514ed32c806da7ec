package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hedgeai/marketdata/src/data"
	"github.com/hedgeai/marketdata/src/eventmodels"
	"github.com/hedgeai/marketdata/src/eventservices"
	"github.com/hedgeai/marketdata/src/utils"
)

type RunArgs struct {
	AccessToken string
}

type RunResult struct {
	Exchange    string
	Instruments int
}

// staticCredential serves a token passed on the command line instead of one
// restored from the store.
type staticCredential struct {
	token string
}

func (c staticCredential) Token() (string, bool) {
	return c.token, c.token != ""
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/catalog_report/main.go",
	Short: "Print a per-underlying summary of the instrument catalog",
	Run: func(cmd *cobra.Command, args []string) {
		accessToken, err := cmd.Flags().GetString("access-token")
		if err != nil {
			log.Fatalf("error getting access-token: %v", err)
		}

		result, err := Run(RunArgs{AccessToken: accessToken})
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		log.Infof("catalog report: %d instruments on %s", result.Instruments, result.Exchange)
	},
}

func loadUnderlyingsConfig(filename string) (*eventmodels.UnderlyingsConfigYAML, error) {
	payload, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("loadUnderlyingsConfig: failed to read %s: %w", filename, err)
	}

	var config eventmodels.UnderlyingsConfigYAML
	if err := yaml.Unmarshal(payload, &config); err != nil {
		return nil, fmt.Errorf("loadUnderlyingsConfig: failed to unmarshal %s: %w", filename, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("loadUnderlyingsConfig: invalid config %s: %w", filename, err)
	}

	return &config, nil
}

func loadCredentials(ctx context.Context, accessToken string) (eventservices.CredentialSource, error) {
	if accessToken != "" {
		return staticCredential{token: accessToken}, nil
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}

	store, err := data.NewFileStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("loadCredentials: %w", err)
	}

	credentials := data.NewCredentialStore(store)
	if err := credentials.Load(ctx); err != nil {
		return nil, fmt.Errorf("loadCredentials: %w", err)
	}

	if _, found := credentials.Token(); !found {
		return nil, fmt.Errorf("loadCredentials: no access token in %s, pass --access-token or set one via /admin/set_token", dataDir)
	}

	return credentials, nil
}

func Run(args RunArgs) (RunResult, error) {
	if err := utils.InitEnvironmentVariables(); err != nil {
		log.Warnf("%v, continuing with process environment", err)
	}

	apiKey, err := utils.GetEnv("KITE_API_KEY")
	if err != nil {
		return RunResult{}, err
	}

	baseURL := os.Getenv("KITE_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.kite.trade"
	}

	configFile := os.Getenv("UNDERLYINGS_CONFIG")
	if configFile == "" {
		configFile = filepath.Join(os.Getenv("MARKETDATA_DIR"), "underlyings.yaml")
	}

	config, err := loadUnderlyingsConfig(configFile)
	if err != nil {
		return RunResult{}, err
	}

	ctx := context.Background()

	credentials, err := loadCredentials(ctx, args.AccessToken)
	if err != nil {
		return RunResult{}, err
	}

	client := eventservices.NewKiteClient(baseURL, apiKey, credentials)

	instruments, err := client.GetInstrumentCatalog(ctx, config.Exchange)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to fetch instrument catalog: %w", err)
	}

	renderReport(os.Stdout, config, instruments)

	return RunResult{
		Exchange:    config.Exchange,
		Instruments: len(instruments),
	}, nil
}

func renderReport(w *os.File, config *eventmodels.UnderlyingsConfigYAML, instruments []eventmodels.Instrument) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Underlying", "Contracts", "Expiries", "Nearest Expiry", "Strikes", "Lot Size"})
	table.SetAlignment(tablewriter.ALIGN_CENTER)

	for _, underlying := range config.Underlyings {
		contracts := 0
		catalogLotSize := 0
		for _, instrument := range instruments {
			if instrument.Underlying != underlying.CatalogName || !instrument.Type.IsOption() {
				continue
			}

			contracts += 1
			if catalogLotSize == 0 {
				catalogLotSize = instrument.LotSize
			}
		}

		expiries := eventservices.CollectExpiries(instruments, underlying.CatalogName, 0)

		nearestExpiry := "-"
		strikes := 0
		if len(expiries) > 0 {
			nearestExpiry = expiries[0].Label
			if date, err := time.Parse("2006-01-02", expiries[0].Value); err == nil {
				strikes = len(eventservices.CollectStrikes(instruments, underlying.CatalogName, date, 0, 0))
			}
		}

		if catalogLotSize > 0 && catalogLotSize != underlying.LotSize {
			log.Warnf("catalog lot size for %s is %d, config says %d", underlying.Symbol, catalogLotSize, underlying.LotSize)
		}

		table.Append([]string{
			underlying.Symbol,
			fmt.Sprintf("%d", contracts),
			fmt.Sprintf("%d", len(expiries)),
			nearestExpiry,
			fmt.Sprintf("%d", strikes),
			fmt.Sprintf("%d", underlying.LotSize),
		})
	}

	table.Render()
}

func main() {
	runCmd.PersistentFlags().String("access-token", "", "Kite access token. Falls back to the token persisted in DATA_DIR.")

	runCmd.Execute()
}
