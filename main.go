package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/policynav/policy-navigator/navigator/ingest"
	"github.com/policynav/policy-navigator/navigator/platform"
	"github.com/policynav/policy-navigator/navigator/respond"
	"github.com/policynav/policy-navigator/navigator/tools/courtlistener"
	"github.com/policynav/policy-navigator/navigator/tools/fedreg"
	"github.com/policynav/policy-navigator/navigator/tools/slack"
	configx "github.com/policynav/policy-navigator/pkg/config"
	_ "github.com/policynav/policy-navigator/pkg/logger/autoload"
	"github.com/policynav/policy-navigator/pkg/resilient"
)

type AppConfig struct {
	AgentID string `envconfig:"AGENT_ID"`
	IndexID string `envconfig:"INDEX_ID"`
	DataDir string `envconfig:"DATA_DIR" default:"data"`
	Query   string `envconfig:"QUERY" default:"Is Executive Order 14067 still active?"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")
	caller := resilient.MustNew(*configx.MustNew[resilient.Config]("RESILIENT"))

	fedregClient := fedreg.NewClient(*configx.MustNew[fedreg.Config]("FEDREG"), caller)
	caseLawClient := courtlistener.NewClient(*configx.MustNew[courtlistener.Config]("COURTLISTENER"), caller)
	slackClient := slack.MustNew(*configx.MustNew[slack.Config]("SLACK"), caller)

	ctx := context.Background()

	if err := os.MkdirAll(appCfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create data directory")
	}

	loader := ingest.NewLoader(appCfg.DataDir)
	rows, err := loader.WriteSampleCSV("sample_policies.csv")
	if err != nil {
		log.Fatal().Err(err).Msg("write sample dataset")
	}

	pdfRows, err := loader.LoadPDFs()
	if err != nil {
		log.Warn().Err(err).Msg("scan pdf documents")
	}
	rows = append(rows, pdfRows...)

	if missing := configx.Missing("POSTGRES_DSN"); len(missing) > 0 {
		log.Info().Msg("postgres policy source not configured, using bundled dataset only")
	} else {
		db := ingest.OpenPostgres(*configx.MustNew[ingest.PostgresConfig]("POSTGRES"))
		defer db.Close()
		pgRows, err := ingest.NewPolicySource(db).Rows(ctx, 0)
		if err != nil {
			log.Warn().Err(err).Msg("load policies from postgres")
		} else {
			rows = append(rows, pgRows...)
		}
	}

	normalized := ingest.Normalize(rows, ingest.DefaultMapping())
	log.Info().
		Int("records", len(normalized.Records)).
		Int("skipped", normalized.Skipped).
		Msg("prepared policy records")

	if missing := configx.Missing("PLATFORM_BASE_URL", "PLATFORM_API_KEY"); len(missing) > 0 {
		log.Warn().Strs("missing", missing).Msg("platform not configured, skipping index and agent setup")
	} else {
		setupPlatform(ctx, appCfg, caller, normalized)
	}

	status, err := fedregClient.CheckExecutiveOrderStatus(ctx, "14067")
	if err != nil {
		fmt.Println(respond.FormatError(err))
	} else {
		fmt.Println(respond.Format(status.Fields()))
		if _, err := slackClient.SendNotification(ctx, slack.Notification{
			Title:   "Executive Order 14067 Status Update",
			Content: respond.Format(status.Fields()),
			Source:  status.Source,
			URL:     status.URL,
		}); err != nil {
			log.Warn().Err(err).Msg("slack notification not sent")
		}
	}

	caseLaw, err := caseLawClient.SearchCaseLaw(ctx, "Section 230", 3)
	if err != nil {
		fmt.Println(respond.FormatError(err))
	} else {
		fmt.Println(courtlistener.FormatPrecedents(caseLaw))
	}
}

// setupPlatform provisions the hosted index and agent: create index, upsert
// sample and scraped records, verify the count, then create and deploy the
// agent. Run once, then save the printed ids in the environment.
func setupPlatform(ctx context.Context, appCfg *AppConfig, caller *resilient.Caller, normalized ingest.NormalizeResult) {
	client := platform.MustNew(*configx.MustNew[platform.Config]("PLATFORM"), caller)

	indexID := appCfg.IndexID
	if indexID == "" {
		idx, err := client.CreateIndex(ctx, "Policy Knowledge Base",
			"Government regulations, compliance policies, and public health guidelines")
		if err != nil {
			log.Fatal().Err(err).Msg("create vector index")
		}
		indexID = idx.ID
		log.Info().Str("index", indexID).Msg("vector index created")
	}

	if err := client.UpsertRecords(ctx, indexID, normalized.Records); err != nil {
		log.Fatal().Err(err).Msg("upsert sample records")
	}

	scraper := ingest.NewScraper(*configx.MustNew[ingest.ScraperConfig]("SCRAPER"), caller)
	docs, err := scraper.ScrapeAllSources(ctx, []string{"environmental protection", "clean air act", "compliance"})
	if err != nil {
		log.Warn().Err(err).Msg("scrape interrupted, continuing with partial documents")
	}
	if len(docs) > 0 {
		if err := scraper.SaveDocuments(appCfg.DataDir+"/scraped_policies.json", docs); err != nil {
			log.Warn().Err(err).Msg("save scraped documents")
		}
		if err := client.UpsertRecords(ctx, indexID, ingest.RecordsFromDocuments(docs)); err != nil {
			log.Fatal().Err(err).Msg("upsert scraped records")
		}
	}

	count, err := client.CountRecords(ctx, indexID)
	if err != nil {
		log.Fatal().Err(err).Msg("count index records")
	}
	log.Info().Int("count", count).Msg("index populated")

	agentID := appCfg.AgentID
	if agentID == "" {
		agent, err := client.CreateAgent(ctx, platform.AgentSpec{
			Name:        "Policy Navigator Agent",
			Description: "AI assistant for government regulation queries and compliance research",
			ToolIDs:     []string{indexID},
		})
		if err != nil {
			log.Fatal().Err(err).Msg("create agent")
		}
		if err := client.DeployAgent(ctx, agent.ID); err != nil {
			log.Fatal().Err(err).Msg("deploy agent")
		}
		agentID = agent.ID
		log.Info().Str("agent", agentID).Msg("agent deployed")
		fmt.Printf("Save these ids to your .env file:\nAGENT_ID=%s\nINDEX_ID=%s\n", agentID, indexID)
	}

	answer, err := client.RunAgent(ctx, agentID, appCfg.Query)
	if err != nil {
		fmt.Println(respond.FormatError(err))
		return
	}
	fmt.Println(answer.Output)
	log.Info().Float64("credits", answer.UsedCredits).Float64("runtime_s", answer.RunTime).Msg("agent run complete")
}
