package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tweetpilot/internal/worker"
	"tweetpilot/pkg/account"
	"tweetpilot/pkg/browser"
	"tweetpilot/pkg/config"
	"tweetpilot/pkg/content"
	"tweetpilot/pkg/engage"
	"tweetpilot/pkg/logger"
	"tweetpilot/pkg/pace"
	"tweetpilot/pkg/results"
	"tweetpilot/pkg/twitter"
)

var (
	tweetFile      string
	credentialFile string
	followingsFile string
	mediaDir       string
	duration       time.Duration
	headed         bool
	workers        int
)

// runCmd executes the engagement run over every credential.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every credential through the engagement flow",
	Long: `Run the engagement flow: one isolated browser session per account,
processed by a fixed-size worker pool. Posted reply URLs land in the shared
result file; unhealthy accounts land in per-category result folders with
screenshots.`,
	Example: `  # Run with the default file layout
  tweetpilot run

  # Watch the browsers work
  tweetpilot run --headed --workers 2

  # Custom input files
  tweetpilot run --tweet-file texts.txt --credential accs.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngagement()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&tweetFile, "tweet-file", "t", "contents.txt", "path to tweet content file")
	runCmd.Flags().StringVarP(&credentialFile, "credential", "r", "credentials.txt", "path to credential file")
	runCmd.Flags().StringVarP(&followingsFile, "followings", "f", "followings.txt", "path to target account list")
	runCmd.Flags().StringVarP(&mediaDir, "media-dir", "m", "", "path to media directory")
	runCmd.Flags().DurationVarP(&duration, "duration", "d", 0, "total time to run for each thread (reserved)")
	runCmd.Flags().BoolVar(&headed, "headed", false, "run browsers in headed mode")
	runCmd.Flags().IntVarP(&workers, "workers", "w", 4, "max workers to run in parallel")
}

func runEngagement() error {
	flags := make(map[string]interface{})
	if tweetFile != "contents.txt" {
		flags["tweet-file"] = tweetFile
	}
	if credentialFile != "credentials.txt" {
		flags["credential"] = credentialFile
	}
	if followingsFile != "followings.txt" {
		flags["followings"] = followingsFile
	}
	if mediaDir != "" {
		flags["media-dir"] = mediaDir
	}
	if workers != 4 {
		flags["workers"] = workers
	}
	if headed {
		flags["headed"] = true
	}
	if duration > 0 {
		flags["duration"] = duration
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if config.Debug() {
		cfg.Logging.Level = "debug"
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("tweetpilot starting")

	creds, err := account.LoadCredentials(cfg.Files.CredentialFile)
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		return fmt.Errorf("no credentials found in %s", cfg.Files.CredentialFile)
	}

	texts, err := content.LoadTexts(cfg.Files.TweetFile)
	if err != nil {
		return err
	}
	if len(texts) == 0 {
		return fmt.Errorf("no reply texts found in %s", cfg.Files.TweetFile)
	}

	followings, err := content.LoadLines(cfg.Files.FollowingsFile)
	if err != nil {
		return err
	}

	catalog, err := content.NewCatalog(cfg.Files.MediaDir)
	if err != nil {
		return err
	}
	if catalog.Len() == 0 {
		return fmt.Errorf("no publishable media found in %s", cfg.Files.MediaDir)
	}

	store, err := results.NewStore(cfg.Files.ResultDir, time.Now())
	if err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"accounts":   len(creds),
		"texts":      len(texts),
		"media":      catalog.Len(),
		"followings": len(followings),
		"results":    store.Dir(),
	}).Info("run inputs loaded")

	sessions := account.NewSessionStore(cfg.Files.AuthDir)
	pacer := pace.NewRandomPacer(cfg.Engage.PauseMin, cfg.Engage.PauseMax, time.Now().UnixNano())

	newPage := func(ctx context.Context) (engage.SessionPage, func(), error) {
		session, err := browser.NewSession(ctx, &cfg.Browser)
		if err != nil {
			return nil, nil, err
		}
		return session, session.Close, nil
	}

	runner := engage.NewRunner(
		cfg,
		texts,
		catalog,
		followings,
		sessions,
		store,
		twitter.NewTextClassifier(),
		newPage,
		pacer,
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := worker.New(cfg.Workers, runner, log)
	if err := pool.Run(ctx, creds); err != nil {
		log.WithError(err).Error("run stopped")
		return err
	}

	fmt.Println("finish")
	return nil
}
