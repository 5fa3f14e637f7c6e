package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"mindcast/internal/cmdlog"
	"mindcast/internal/config"
	"mindcast/internal/farcaster"
	"mindcast/internal/iqapi"
	"mindcast/internal/jobs"
	"mindcast/internal/llm"
	"mindcast/internal/metrics"
	"mindcast/internal/model"
	"mindcast/internal/pipeline"
	"mindcast/internal/score"
	"mindcast/internal/store/scoredb"
	"mindcast/internal/theme"
)

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "init":
		cmdInit()
	case "score":
		exitOnErr(cmdlog.Run("score", cmdScore))
	case "leaderboard":
		exitOnErr(cmdlog.Run("leaderboard", cmdLeaderboard))
	case "refresh":
		exitOnErr(cmdlog.Run("refresh", cmdRefresh))
	default:
		printHelp()
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: mindcast <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init         Create a config file at ./mindcast.yaml")
	fmt.Println("  score        Score one account by username or fid")
	fmt.Println("  leaderboard  Show top stored scores")
	fmt.Println("  refresh      Re-score tracked accounts on an interval")
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func cmdInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", "./mindcast.yaml", "path to write config")
	_ = fs.Parse(os.Args[2:])
	cfg := config.Default()
	if err := config.Save(*path, cfg); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner()
	fmt.Println("Config written to:", abs)
}

func buildPipeline(cfg config.Config, db *scoredb.DB, client *farcaster.HTTPClient) *pipeline.Pipeline {
	return pipeline.New(pipeline.Options{
		Casts:         client,
		Verifications: client,
		Authoritative: iqapi.NewClient(cfg.Credentials.IQAPIBase),
		Providers: []pipeline.Provider{
			llm.NewOpenAI(cfg.Credentials.OpenAIAPIKey, cfg.LLM.OpenAIModel),
			llm.NewGemini(cfg.Credentials.GeminiAPIKey, cfg.LLM.GeminiModel),
		},
		Store:       db,
		Scorer:      score.NewSeeded(),
		Freshness:   time.Duration(cfg.Scoring.FreshnessDays) * 24 * time.Hour,
		TierTimeout: time.Duration(cfg.Scoring.TierTimeoutSeconds) * time.Second,
		CastLimit:   cfg.Scoring.CastLimit,
		SampleCasts: cfg.Scoring.SampleCasts,
	})
}

func cmdScore() error {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	cfgPath := fs.String("config", "./mindcast.yaml", "config path")
	username := fs.String("username", "", "Farcaster username to score")
	fid := fs.Int64("fid", 0, "Farcaster fid to score (alternative to -username)")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	_ = fs.Parse(os.Args[2:])
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	metrics.StartServer(cfg.Metrics.Addr)
	db, err := scoredb.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := farcaster.NewHTTPClient(cfg.Credentials.NeynarAPIKey)
	target := *fid
	name := *username
	if target == 0 {
		if name == "" {
			return errors.New("provide -username or -fid")
		}
		user, err := client.UserByUsername(ctx, name)
		if err != nil {
			return err
		}
		target = user.FID
		name = user.Username
	}

	p := buildPipeline(cfg, db, client)
	res, err := p.Score(ctx, target, nil)
	if err != nil {
		return err
	}
	if name != "" {
		_ = db.SetUsername(ctx, target, name)
	}
	if *asJSON {
		return json.NewEncoder(os.Stdout).Encode(res)
	}
	printResult(name, res)
	return nil
}

func printResult(username string, res model.ScoreResult) {
	who := username
	if who == "" {
		who = "fid " + strconv.FormatInt(res.FID, 10)
	}
	fmt.Printf("%s — score %d (confidence %d%%, via %s)\n", who, res.Score, res.Confidence, res.Source)
	fmt.Println(res.Analysis)
}

func cmdLeaderboard() error {
	fs := flag.NewFlagSet("leaderboard", flag.ExitOnError)
	cfgPath := fs.String("config", "./mindcast.yaml", "config path")
	limit := fs.Int("limit", 20, "rows to show")
	_ = fs.Parse(os.Args[2:])
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	db, err := scoredb.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	entries, err := db.Leaderboard(context.Background(), *limit)
	if err != nil {
		return err
	}
	for i, e := range entries {
		who := e.Username
		if who == "" {
			who = "fid " + strconv.FormatInt(e.FID, 10)
		}
		fmt.Printf("%2d. %-24s %3d  (%d%%, %s, %s)\n",
			i+1, who, e.Score, e.Confidence, e.Source, e.ComputedAt.Format("2006-01-02"))
	}
	return nil
}

func cmdRefresh() error {
	fs := flag.NewFlagSet("refresh", flag.ExitOnError)
	cfgPath := fs.String("config", "./mindcast.yaml", "config path")
	interval := fs.Duration("interval", 6*time.Hour, "refresh interval")
	once := fs.Bool("once", false, "run a single pass and exit")
	_ = fs.Parse(os.Args[2:])
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	metrics.StartServer(cfg.Metrics.Addr)
	db, err := scoredb.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := buildPipeline(cfg, db, farcaster.NewHTTPClient(cfg.Credentials.NeynarAPIKey))
	freshness := time.Duration(cfg.Scoring.FreshnessDays) * 24 * time.Hour
	if *once {
		return jobs.RefreshOnce(ctx, db, p, freshness)
	}
	err = jobs.RefreshLoop(ctx, db, p, freshness, *interval)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
